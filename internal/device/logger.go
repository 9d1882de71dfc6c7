package device

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	SetLogger(nil)
}

// NewLogger returns a text logger writing to w. Verbose enables debug
// records (allocations, transfers, launches); otherwise only engine
// fallbacks and worse are written.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetLogger replaces the logger shared by the device and filter layers.
// Pass nil to restore the default warn-level logger on stderr.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = NewLogger(os.Stderr, false)
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
