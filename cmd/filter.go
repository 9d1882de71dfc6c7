package cmd

import (
	"context"
	"fmt"

	"github.com/rm-hull/border-filters/internal"
	"github.com/rm-hull/border-filters/internal/batch"
	"github.com/rm-hull/border-filters/internal/convolve"
	"github.com/rm-hull/border-filters/internal/device"
	"github.com/rm-hull/border-filters/internal/filter"
)

// FilterOptions carries the flags shared by the filter and watch commands.
type FilterOptions struct {
	Output      string
	Filter      string
	MaskSize    int
	SrcOffset   int
	Anchor      int
	Engine      string
	RecordLog   string
	KeepGoing   bool
	Preview     bool
	MemoryLimit int64
	PitchAlign  int
}

// DefaultFilterOptions returns the defaults, taking the engine, record log
// and device settings from the environment.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		Filter:      "box",
		MaskSize:    filter.DefaultMaskSize,
		Anchor:      -1,
		Engine:      internal.EnvString("FILTER_ENGINE", "native"),
		RecordLog:   internal.EnvString("FILTER_RECORD_LOG", batch.DefaultRecordLog),
		MemoryLimit: internal.EnvInt64("DEVICE_MEMORY_LIMIT", 0),
		PitchAlign:  internal.EnvInt("DEVICE_PITCH_ALIGN", device.DefaultPitchAlignment),
	}
}

// Config builds the filter configuration. For Gaussian filters the mask
// size is the mask ordinal and the anchor is ignored.
func (o FilterOptions) Config() (filter.Config, error) {
	t, err := filter.ParseType(o.Filter)
	if err != nil {
		return filter.Config{}, err
	}
	switch t {
	case filter.Gauss:
		return filter.NewGauss(o.MaskSize, o.SrcOffset), nil
	default:
		return filter.NewBox(o.MaskSize, o.Anchor, o.SrcOffset)
	}
}

// NewDevice creates the device the filters run on.
func (o FilterOptions) NewDevice() *device.Device {
	return device.New("host",
		device.WithPitchAlignment(o.PitchAlign),
		device.WithMemoryLimit(o.MemoryLimit),
	)
}

// NewProcessor validates the options and binds them to an engine and device.
func (o FilterOptions) NewProcessor() (*filter.Processor, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to configure filter: %w", err)
	}
	engine, err := convolve.New(o.Engine)
	if err != nil {
		return nil, err
	}
	dev := o.NewDevice()
	internal.Banner(engine, dev)
	return filter.NewProcessor(cfg, engine, dev)
}

// Filter runs the configured filter over input, which is either a file
// or a directory path ending in "*".
func Filter(ctx context.Context, input string, opts FilterOptions) error {
	internal.EnvironmentVars("FILTER_", "DEVICE_")

	processor, err := opts.NewProcessor()
	if err != nil {
		return err
	}

	runner := batch.NewRunner(processor, batch.Options{
		Output:    opts.Output,
		RecordLog: batch.NewRecordLog(opts.RecordLog),
		KeepGoing: opts.KeepGoing,
		Preview:   opts.Preview,
	})

	_, err = runner.Run(ctx, input)
	return err
}
