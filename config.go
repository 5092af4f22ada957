// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import (
	"io"
	"io/fs"
	"log/slog"
)

// ConfigOption is a function pointer to implement the option pattern
type ConfigOption func(*Config)

// Config holds all configuration options for reading and extracting an
// archive. The options can be adjusted using the option pattern style.
type Config struct {
	// concurrency is the number of entries extracted in parallel by ExtractAll.
	// A value of 1 extracts sequentially in index order.
	concurrency int

	// createDirMode is the file mode for directories created during extraction
	// (respecting umask)
	createDirMode fs.FileMode

	// inflateBufferSize is the size of the read buffer in front of the deflate
	// decompressor
	inflateBufferSize int

	// logger stream for debug output
	logger logger
}

const (
	defaultConcurrency       = 1
	defaultCreateDirMode     = fs.FileMode(0o755)
	defaultInflateBufferSize = 1 << 20
)

// defaultLogger discards all output
var defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

// NewConfig is a generator option that takes opts as adjustments of the
// default configuration in an option pattern style.
func NewConfig(opts ...ConfigOption) *Config {
	config := &Config{
		concurrency:       defaultConcurrency,
		createDirMode:     defaultCreateDirMode,
		inflateBufferSize: defaultInflateBufferSize,
		logger:            defaultLogger,
	}

	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Concurrency returns the number of entries extracted in parallel by
// ExtractAll.
func (c *Config) Concurrency() int {
	return c.concurrency
}

// CreateDirMode returns the file mode for directories created during
// extraction.
func (c *Config) CreateDirMode() fs.FileMode {
	return c.createDirMode
}

// InflateBufferSize returns the size of the read buffer in front of the
// deflate decompressor.
func (c *Config) InflateBufferSize() int {
	return c.inflateBufferSize
}

// Logger returns the logger.
func (c *Config) Logger() logger {
	return c.logger
}

// WithConcurrency options pattern function to extract up to n entries in
// parallel during ExtractAll. Values below 1 are treated as 1.
func WithConcurrency(n int) ConfigOption {
	return func(c *Config) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// WithCreateDirMode options pattern function to set the file mode for
// directories created during extraction.
func WithCreateDirMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.createDirMode = mode
	}
}

// WithInflateBufferSize options pattern function to set the read buffer size
// in front of the deflate decompressor. Values below 1 keep the default.
func WithInflateBufferSize(size int) ConfigOption {
	return func(c *Config) {
		if size >= 1 {
			c.inflateBufferSize = size
		}
	}
}

// WithLogger options pattern function to set a custom logger, e.g. a
// [log/slog.Logger].
func WithLogger(l logger) ConfigOption {
	return func(c *Config) {
		c.logger = l
	}
}
