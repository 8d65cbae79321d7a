package runcmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// setupLogging sends structured logs to both stdout and the log file. The
// returned func closes the file.
func setupLogging(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, f), nil)
	slog.SetDefault(slog.New(handler))

	return func() { f.Close() }, nil
}
