// Package logging builds the run-scoped log sink: a logrus instance writing
// to both the console and one timestamped file per invocation. The logger is
// constructed once and passed to every component — there is no ambient
// global state, so test suites can capture output in isolation.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	logDirMode  = 0o755
	logFileMode = 0o644
	// timestampLayout names one log file per run; files are never rotated
	// or truncated by the tool itself.
	timestampLayout = "20060102-150405"
)

// RunLog couples the logger instance with the file backing it.
type RunLog struct {
	Logger *logrus.Logger
	Path   string

	file *os.File
}

// NewRunLog creates the log directory if needed, opens a fresh timestamped
// log file, and returns a logger that appends to both it and stdout.
func NewRunLog(dir string) (*RunLog, error) {
	if err := os.MkdirAll(dir, logDirMode); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}

	name := fmt.Sprintf("deckhand-%s.log", time.Now().Format(timestampLayout))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %q: %w", path, err)
	}

	log := logrus.New()
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})

	return &RunLog{Logger: log, Path: path, file: file}, nil
}

// Close flushes and closes the backing file.
func (r *RunLog) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
