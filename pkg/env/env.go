// Package env consolidates all environment variable reading for the application.
// Config overrides are applied only at startup (see config.Load).
package env

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names (single source of truth)
const (
	LOGLevel              = "LOG_LEVEL"
	LOGFile               = "LOG_FILE"
	BackpressureChunks    = "UNPACK_BACKPRESSURE_CHUNKS"
	ReadSize              = "UNPACK_READ_SIZE"
	ChunkSize             = "UNPACK_CHUNK_SIZE"
	ConnectTimeoutSeconds = "UNPACK_CONNECT_TIMEOUT_SECONDS"
	UserAgent             = "UNPACK_USER_AGENT"
	RetryAttempts         = "UNPACK_RETRY_ATTEMPTS"
	Encodings             = "UNPACK_ENCODINGS"
	TZVar                 = "TZ"
)

// Config JSON keys returned by OverrideKeys
const (
	KeyLogLevel       = "log_level"
	KeyLogFile        = "log_file"
	KeyBackpressure   = "backpressure_chunks"
	KeyReadSize       = "read_size"
	KeyChunkSize      = "chunk_size"
	KeyConnectTimeout = "connect_timeout_seconds"
	KeyUserAgent      = "user_agent"
	KeyRetryAttempts  = "retry_attempts"
	KeyEncodings      = "encodings"
)

// TZ returns the TZ environment variable (e.g. for logger timezone).
func TZ() string {
	return os.Getenv(TZVar)
}

// LogLevel returns LOG_LEVEL with default "INFO" (for early logger init before config).
func LogLevel() string {
	if v := os.Getenv(LOGLevel); v != "" {
		return v
	}
	return "INFO"
}

// ConfigOverrides holds all config values that can be set via environment variables.
// Zero values mean "not set".
type ConfigOverrides struct {
	LogLevel              string
	LogFile               string
	BackpressureChunks    int
	ReadSize              int
	ChunkSize             int
	ConnectTimeoutSeconds int
	UserAgent             string
	RetryAttempts         int
	Encodings             []string
}

// ReadConfigOverrides reads all relevant environment variables once and returns
// overrides to apply to config plus the list of config JSON keys that were set.
func ReadConfigOverrides() (ConfigOverrides, []string) {
	var o ConfigOverrides
	var keys []string

	if v := os.Getenv(LOGLevel); v != "" {
		o.LogLevel = v
		keys = append(keys, KeyLogLevel)
	}
	if v := os.Getenv(LOGFile); v != "" {
		o.LogFile = v
		keys = append(keys, KeyLogFile)
	}
	if n, ok := lookupInt(BackpressureChunks); ok {
		o.BackpressureChunks = n
		keys = append(keys, KeyBackpressure)
	}
	if n, ok := lookupInt(ReadSize); ok {
		o.ReadSize = n
		keys = append(keys, KeyReadSize)
	}
	if n, ok := lookupInt(ChunkSize); ok {
		o.ChunkSize = n
		keys = append(keys, KeyChunkSize)
	}
	if n, ok := lookupInt(ConnectTimeoutSeconds); ok {
		o.ConnectTimeoutSeconds = n
		keys = append(keys, KeyConnectTimeout)
	}
	if v := os.Getenv(UserAgent); v != "" {
		o.UserAgent = v
		keys = append(keys, KeyUserAgent)
	}
	if n, ok := lookupInt(RetryAttempts); ok {
		o.RetryAttempts = n
		keys = append(keys, KeyRetryAttempts)
	}
	if v := os.Getenv(Encodings); v != "" {
		o.Encodings = splitList(v)
		keys = append(keys, KeyEncodings)
	}

	return o, keys
}

// OverrideKeys returns the config JSON keys that have environment overrides set.
func OverrideKeys() []string {
	_, keys := ReadConfigOverrides()
	return keys
}

func lookupInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitList(v string) []string {
	var list []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
