package batch

import (
	"fmt"
	"os"
	"sync"

	"github.com/rm-hull/border-filters/internal/filter"
)

// DefaultRecordLog is the record log file name used when none is configured.
const DefaultRecordLog = "FilterRecord.log"

// RecordLog appends one line per processed file. A nil *RecordLog
// discards everything.
type RecordLog struct {
	mu   sync.Mutex
	path string
}

// NewRecordLog returns a record log writing to path, or nil when path is empty.
func NewRecordLog(path string) *RecordLog {
	if path == "" {
		return nil
	}
	return &RecordLog{path: path}
}

func (l *RecordLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append records that src was filtered into dst using cfg.
func (l *RecordLog) Append(src, dst string, cfg filter.Config) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open record log: %w", err)
	}

	if _, err := fmt.Fprintln(f, FormatRecord(src, dst, cfg)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write record log: %w", err)
	}
	return f.Close()
}

// FormatRecord renders a record log line.
func FormatRecord(src, dst string, cfg filter.Config) string {
	mask := cfg.MaskSize()
	anchor := cfg.EffectiveAnchor()
	return fmt.Sprintf("The image file, %s, was processed into %s, Mask (%d,%d), Offset (%d,%d), Anchor (%d,%d)",
		src, dst, mask.W, mask.H, cfg.Offset.X, cfg.Offset.Y, anchor.X, anchor.Y)
}
