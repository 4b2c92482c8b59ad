package procstream

import "github.com/wagiedev/procstream/internal/errs"

// Re-export error types from internal package

// LaunchError indicates the child process could not be spawned.
type LaunchError = errs.LaunchError

// CommandError indicates the child process exited with a nonzero status.
type CommandError = errs.CommandError

// DecodeError indicates byte-to-text decoding failed.
type DecodeError = errs.DecodeError

// ParseError indicates an item could not be parsed as a structured record.
type ParseError = errs.ParseError

// StreamError is the base interface for all procstream errors.
type StreamError = errs.StreamError

// Re-export sentinel errors from internal package.
var (
	// ErrChunksConsumed indicates Chunks was iterated more than once.
	ErrChunksConsumed = errs.ErrChunksConsumed

	// ErrEmptySeparator indicates Itemize was called with a zero-length separator.
	ErrEmptySeparator = errs.ErrEmptySeparator

	// ErrRouteMismatch indicates RouteIn ran out of matching route-out entries.
	ErrRouteMismatch = errs.ErrRouteMismatch
)
