// Package logging builds the structured loggers shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// NewLogger creates a [log.Logger] writing to w with timestamps and caller
// information. A nil writer logs to stderr.
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// Discard returns a logger that drops everything. Tests and embedded
// sessions use it when no logger is supplied.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Component derives a child logger tagged with the component name.
func Component(l *log.Logger, name string, kv ...any) *log.Logger {
	return l.With(append([]any{"component", name}, kv...)...)
}

// ParseLevel converts a config string to a [log.Level]. The empty string is
// info.
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Options selects the level and destination of a logger.
type Options struct {
	Level string
	File  string
}

// Open returns a logger for opts. When File is set, output is appended to
// it and the returned closer closes the file; otherwise it logs to fallback.
func Open(opts Options, fallback io.Writer) (*log.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	}

	logger := NewLogger(w)
	logger.SetLevel(level)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
