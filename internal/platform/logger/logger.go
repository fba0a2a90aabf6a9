package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Text output to stdout;
// swap the handler for JSON when shipping to a log pipeline.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
