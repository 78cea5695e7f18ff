package application

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/JonMunkholm/csvedit/internal/tui"
)

// EditOptions configures the terminal editor.
type EditOptions struct {
	// LogFile receives logs; empty discards them since the terminal is
	// taken by the editor.
	LogFile  string
	LogLevel string

	MaxFileSize config.ByteSize
}

// Edit opens path (which may be empty) in the terminal editor and blocks
// until the user quits.
func Edit(ctx context.Context, path string, opts EditOptions) error {
	closeLog, err := setupEditLogging(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	return tui.Run(ctx, core.Ingestor{MaxBytes: int64(opts.MaxFileSize)}, path)
}

func setupEditLogging(opts EditOptions) (func(), error) {
	if opts.LogFile == "" {
		logging.Discard()
		return func() {}, nil
	}

	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.SetupWriter(f, opts.LogLevel, "text")
	return func() { closeQuietly(f) }, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
