// Package logging builds the human-readable diagnostic logger.
//
// Loggers are constructed explicitly and handed to each component; there is
// no package-level instance, so two controllers never share hidden state.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Version is reported in the startup line.
const Version = "0.3.0"

// New creates a logger writing to w at the given level
// ("debug", "info", "warn", "error"). An unknown level falls back to info.
func New(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	})
}

// Discard returns a logger that drops everything. Components use it when
// the caller passes a nil logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger if l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// File is a logger backed by a dated log file.
type File struct {
	*log.Logger
	f *os.File
}

// OpenFile creates <dir>/logs/pokedex-YYYY-MM-DD.log (appending) and returns
// a logger writing to it.
func OpenFile(dir, level string) (*File, error) {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("pokedex-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := New(f, level)
	l.Info("pokedex started", "version", Version)
	return &File{Logger: l, f: f}, nil
}

// Close writes the shutdown line and closes the file.
func (lf *File) Close() error {
	lf.Info("pokedex shutting down")
	return lf.f.Close()
}
