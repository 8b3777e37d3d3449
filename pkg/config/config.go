package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"unpack/pkg/env"
	"unpack/pkg/logger"
	"unpack/pkg/paths"
	"unpack/pkg/stream"
	"unpack/pkg/text"
)

// Config holds application configuration
type Config struct {
	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"` // relative paths resolve against the data dir; empty disables

	// Stream settings
	BackpressureChunks    int    `json:"backpressure_chunks"`
	ReadSize              int    `json:"read_size"`
	ChunkSize             int    `json:"chunk_size"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
	UserAgent             string `json:"user_agent"`

	// Whole-unpack retries on transport failures; 1 means no retry
	RetryAttempts int `json:"retry_attempts"`

	// Candidate encodings for entry names, tried in order
	Encodings []string `json:"encodings"`

	// Internal - where was this config loaded from?
	LoadedPath string `json:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:              "INFO",
		BackpressureChunks:    stream.DefaultBackpressure,
		ReadSize:              stream.DefaultReadSize,
		ChunkSize:             stream.DefaultChunkSize,
		ConnectTimeoutSeconds: int(stream.DefaultConnectTimeout / time.Second),
		UserAgent:             stream.DefaultUserAgent,
		RetryAttempts:         1,
		Encodings:             slices.Clone(text.DefaultEncodings),
	}
}

// Load loads configuration from config.json in the data directory and
// applies environment variable overrides.
// Priority: Environment variables (if not empty) > config.json > defaults
func Load() (*Config, error) {
	dataDir := paths.GetDataDir()
	configPath := filepath.Join(dataDir, "config.json")

	cfg := Default()
	cfg.LoadedPath = configPath

	if err := cfg.LoadFile(configPath); err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No config found, using defaults", "path", configPath)
		} else {
			return nil, fmt.Errorf("load %s: %w", configPath, err)
		}
	} else {
		logger.Debug("Loaded configuration", "path", configPath)
	}

	overrides, keys := env.ReadConfigOverrides()
	ApplyEnvOverrides(cfg, overrides, keys)

	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(dataDir, cfg.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overrides config with values from a JSON file
func (c *Config) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the stream cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.BackpressureChunks <= 0 {
		errs = append(errs, fmt.Errorf("backpressure_chunks must be positive, got %d", c.BackpressureChunks))
	}
	if c.ReadSize <= 0 {
		errs = append(errs, fmt.Errorf("read_size must be positive, got %d", c.ReadSize))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if c.ConnectTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("connect_timeout_seconds must be positive, got %d", c.ConnectTimeoutSeconds))
	}
	if c.RetryAttempts <= 0 {
		errs = append(errs, fmt.Errorf("retry_attempts must be positive, got %d", c.RetryAttempts))
	}
	if len(c.Encodings) == 0 {
		errs = append(errs, errors.New("encodings must not be empty"))
	} else if unknown := text.UnknownEncodings(c.Encodings); len(unknown) > 0 {
		errs = append(errs, fmt.Errorf("encodings: unknown labels %q", unknown))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// StreamOptions converts the stream settings into stream.Options.
func (c *Config) StreamOptions() stream.Options {
	opts := stream.DefaultOptions()
	opts.Backpressure = c.BackpressureChunks
	opts.ReadSize = c.ReadSize
	opts.ChunkSize = c.ChunkSize
	opts.ConnectTimeout = time.Duration(c.ConnectTimeoutSeconds) * time.Second
	opts.UserAgent = c.UserAgent
	return opts
}

// ApplyEnvOverrides applies environment-derived overrides to cfg (used at startup only).
// Only fields present in keys are applied, so env vars override file values per setting.
func ApplyEnvOverrides(cfg *Config, o env.ConfigOverrides, keys []string) {
	if slices.Contains(keys, env.KeyLogLevel) {
		cfg.LogLevel = o.LogLevel
	}
	if slices.Contains(keys, env.KeyLogFile) {
		cfg.LogFile = o.LogFile
	}
	if slices.Contains(keys, env.KeyBackpressure) {
		cfg.BackpressureChunks = o.BackpressureChunks
	}
	if slices.Contains(keys, env.KeyReadSize) {
		cfg.ReadSize = o.ReadSize
	}
	if slices.Contains(keys, env.KeyChunkSize) {
		cfg.ChunkSize = o.ChunkSize
	}
	if slices.Contains(keys, env.KeyConnectTimeout) {
		cfg.ConnectTimeoutSeconds = o.ConnectTimeoutSeconds
	}
	if slices.Contains(keys, env.KeyUserAgent) {
		cfg.UserAgent = strings.TrimSpace(o.UserAgent)
	}
	if slices.Contains(keys, env.KeyRetryAttempts) {
		cfg.RetryAttempts = o.RetryAttempts
	}
	if slices.Contains(keys, env.KeyEncodings) {
		cfg.Encodings = o.Encodings
	}
}
