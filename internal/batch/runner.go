// Package batch runs a filter over one file or every file in a directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rm-hull/border-filters/internal/filter"
	"github.com/rm-hull/border-filters/internal/imageio"
	"github.com/rm-hull/border-filters/internal/preview"
)

// Wildcard as the base name of the input selects every file in its directory.
const Wildcard = "*"

// Options controls a Runner.
type Options struct {
	// Output overrides the generated output path. Ignored for wildcard input.
	Output string

	RecordLog    *RecordLog
	KeepGoing    bool
	Preview      bool
	SkipExisting bool
}

// Summary counts what a run did.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Elapsed   time.Duration
}

// Runner feeds input files through a filter.Processor one at a time.
type Runner struct {
	processor *filter.Processor
	opts      Options
}

func NewRunner(processor *filter.Processor, opts Options) *Runner {
	return &Runner{processor: processor, opts: opts}
}

// Inputs expands path into the list of files to process. A base name of
// "*" selects the regular files of the directory in name order, leaving
// out any of the excluded paths.
func Inputs(path string, exclude ...string) ([]string, error) {
	if filepath.Base(path) != Wildcard {
		return []string{path}, nil
	}

	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		if abs, err := filepath.Abs(e); err == nil {
			skip[abs] = true
		}
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		file := filepath.Join(dir, entry.Name())
		if abs, err := filepath.Abs(file); err == nil && skip[abs] {
			continue
		}
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every input selected by path. Without KeepGoing the first
// failure stops the run; with it, failures are collected and returned
// together once every file has been tried.
func (r *Runner) Run(ctx context.Context, path string) (Summary, error) {
	startTime := time.Now()
	var summary Summary

	files, err := Inputs(path, r.opts.RecordLog.Path())
	if err != nil {
		return summary, err
	}

	output := r.opts.Output
	if len(files) != 1 || filepath.Base(path) == Wildcard {
		output = ""
	}

	log.Printf("Processing %d file(s) with %s", len(files), r.processor.Config())

	var errs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		skipped, err := r.processFile(file, output)
		switch {
		case err != nil:
			summary.Failed++
			err = fmt.Errorf("failed to process %s: %w", file, err)
			if !r.opts.KeepGoing {
				summary.Elapsed = time.Since(startTime)
				return summary, err
			}
			log.Printf("Error: %v", err)
			errs = append(errs, err)
		case skipped:
			summary.Skipped++
		default:
			summary.Processed++
		}
	}

	summary.Elapsed = time.Since(startTime)
	log.Printf("All files processed in %s (processed=%d, skipped=%d, errors=%d)",
		summary.Elapsed, summary.Processed, summary.Skipped, summary.Failed)
	return summary, errors.Join(errs...)
}

func (r *Runner) processFile(file, output string) (bool, error) {
	f, err := os.Open(filepath.Clean(file))
	if err != nil {
		return false, fmt.Errorf("unable to open: %w", err)
	}
	_ = f.Close()

	desc, img, err := imageio.Open(file)
	if err != nil {
		return false, err
	}

	cfg := r.processor.Config()
	format := filter.OutputFormat(output, desc.Format)
	if output == "" {
		output = filter.OutputPath(file, cfg.Type, desc.FileExt)
	}

	// if the output already exists, skip processing
	if r.opts.SkipExisting {
		if _, err := os.Stat(output); err == nil {
			return true, nil
		} else if !os.IsNotExist(err) {
			return false, err
		}
	}

	res, err := r.processor.Process(img, output, format)
	if err != nil {
		return false, err
	}
	if res.Skipped {
		return true, nil
	}

	log.Printf("Saved image: %s (engine=%s)", res.Output, res.Engine)
	if err := r.opts.RecordLog.Append(file, res.Output, cfg); err != nil {
		return false, err
	}

	if r.opts.Preview {
		if err := preview.Write(preview.Path(res.Output), img.Buffer(), res.Filtered); err != nil {
			return false, err
		}
	}
	return false, nil
}
