package initialization

import (
	"context"
	"errors"
	"fmt"
	"os"

	"unpack/pkg/config"
	"unpack/pkg/logger"
	"unpack/pkg/stream"
	"unpack/pkg/unpack"
)

// Process exit codes
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitSource      = 3
	ExitArchive     = 4
	ExitInterrupted = 130
)

// InitializedComponents holds all the components initialized during bootstrap
type InitializedComponents struct {
	Config  *config.Config
	Options unpack.Options
}

// Bootstrap loads configuration and re-initializes the logger from it.
func Bootstrap() (*InitializedComponents, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	// 2. Logger with the configured level and optional file
	logger.InitWithFile(cfg.LogLevel, logger.FileOptions{Path: cfg.LogFile, MaxBackups: 3})
	logger.Debug("Configuration loaded", "path", cfg.LoadedPath,
		"backpressure", cfg.BackpressureChunks, "read_size", cfg.ReadSize,
		"connect_timeout_s", cfg.ConnectTimeoutSeconds, "retry_attempts", cfg.RetryAttempts)

	return &InitializedComponents{
		Config: cfg,
		Options: unpack.Options{
			Stream:    cfg.StreamOptions(),
			Encodings: cfg.Encodings,
		},
	}, nil
}

// ExitWithError prints err to stderr and exits with the code it maps to.
func ExitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logger.Close()
	os.Exit(ExitCode(err))
}

// ExitCode maps an unpack failure to a process exit code.
func ExitCode(err error) int {
	var (
		transportErr *stream.TransportError
		statusErr    *stream.StatusError
		accessErr    *stream.FileAccessError
		archiveErr   *unpack.ArchiveError
		entryErr     *unpack.EntryError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &statusErr), errors.As(err, &accessErr):
		return ExitSource
	case errors.As(err, &archiveErr), errors.As(err, &entryErr), errors.Is(err, unpack.ErrUnsupportedFormat):
		// Engine errors wrap what the stream reported mid-archive.
		if errors.As(err, &transportErr) {
			return ExitSource
		}
		return ExitArchive
	case errors.As(err, &transportErr):
		return ExitSource
	default:
		return ExitFailure
	}
}
