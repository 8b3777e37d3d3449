package stream

import (
	"time"

	"github.com/spf13/afero"
)

// Defaults used when an Options field is left zero.
const (
	DefaultBackpressure   = 8
	DefaultReadSize       = 64 * 1024
	DefaultChunkSize      = 64 * 1024
	DefaultConnectTimeout = 30 * time.Second
	DefaultUserAgent      = "unpack/1.0"
)

// Options configures both backends.
type Options struct {
	// Backpressure is the number of undelivered chunks a connection buffers
	// before its read pipeline pauses.
	// Default: 8
	Backpressure int

	// ReadSize is the size of a single asynchronous body read.
	// Default: 64 KiB
	ReadSize int

	// ChunkSize is the size of a single file backend read.
	// Default: 64 KiB
	ChunkSize int

	// ConnectTimeout bounds DNS resolution plus TCP (and TLS) connect.
	// Default: 30s
	ConnectTimeout time.Duration

	// UserAgent is sent with every request.
	// Default: "unpack/1.0"
	UserAgent string

	// Fs is the filesystem used by the file backend.
	// Default: afero.NewOsFs()
	Fs afero.Fs
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Backpressure:   DefaultBackpressure,
		ReadSize:       DefaultReadSize,
		ChunkSize:      DefaultChunkSize,
		ConnectTimeout: DefaultConnectTimeout,
		UserAgent:      DefaultUserAgent,
		Fs:             afero.NewOsFs(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Backpressure <= 0 {
		o.Backpressure = d.Backpressure
	}
	if o.ReadSize <= 0 {
		o.ReadSize = d.ReadSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = d.ConnectTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.Fs == nil {
		o.Fs = d.Fs
	}
	return o
}
