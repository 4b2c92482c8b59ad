package procstream

import (
	"log/slog"
)

// Option configures process execution using the functional options pattern.
type Option func(*runOptions)

type runOptions struct {
	logger         *slog.Logger
	chunkSize      int
	stderrTailSize int
	stderrCallback func([]byte)
}

// applyOptions applies functional options over the defaults.
func applyOptions(opts []Option) *runOptions {
	o := &runOptions{
		logger: NopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// WithChunkSize sets the read size for draining the child's stdout.
// The default is 64 KiB.
func WithChunkSize(size int) Option {
	return func(o *runOptions) {
		o.chunkSize = size
	}
}

// WithStderrTail bounds the captured stderr diagnostics attached to
// CommandError. Stderr is always read in full so the child never blocks on a
// full stderr pipe; only the most recent bytes up to size are kept.
// The default is 64 KiB.
func WithStderrTail(size int) Option {
	return func(o *runOptions) {
		o.stderrTailSize = size
	}
}

// WithStderrCallback streams each stderr chunk to fn as it is read, in
// addition to the bounded capture. fn is called from a background goroutine.
func WithStderrCallback(fn func([]byte)) Option {
	return func(o *runOptions) {
		o.stderrCallback = fn
	}
}
