package errs

import (
	"errors"
	"fmt"
)

// StreamError is the base interface for all procstream errors.
type StreamError interface {
	error
	IsStreamError() bool
}

// Compile-time verification that all error types implement StreamError.
var (
	_ StreamError = (*LaunchError)(nil)
	_ StreamError = (*CommandError)(nil)
	_ StreamError = (*DecodeError)(nil)
	_ StreamError = (*ParseError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrChunksConsumed indicates Chunks was iterated more than once.
	// The output of a process is a single-consumption sequence.
	ErrChunksConsumed = errors.New("output already consumed: Chunks is single-use")

	// ErrEmptySeparator indicates Itemize was called with a zero-length separator.
	ErrEmptySeparator = errors.New("empty item separator")

	// ErrRouteMismatch indicates the processed sequence given to RouteIn did
	// not match the elements recorded by the corresponding RouteOut.
	ErrRouteMismatch = errors.New("route-in cardinality mismatch")
)

// LaunchError indicates the child process could not be spawned.
// Spawn failures are fatal and never retried.
type LaunchError struct {
	Argv []string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %v: %v", e.Argv, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsStreamError implements StreamError.
func (e *LaunchError) IsStreamError() bool { return true }

// CommandError indicates the child process exited with a nonzero status.
// Stderr holds the bounded tail of the child's diagnostic output. If a
// feeder-side failure coincided with the nonzero exit, it is attached as Err;
// the exit status remains the primary signal.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stderr   []byte
	Dir      string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %v", e.Argv)
	if e.ExitCode < 0 {
		msg += " died from a signal"
	} else {
		msg += fmt.Sprintf(" returned non-zero exit status %d", e.ExitCode)
	}

	if e.Dir != "" {
		msg += fmt.Sprintf(" in %s", e.Dir)
	}

	if len(e.Stderr) > 0 {
		msg += fmt.Sprintf(" [stderr: %s]", truncate(e.Stderr, 200))
	}

	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsStreamError implements StreamError.
func (e *CommandError) IsStreamError() bool { return true }

// DecodeError indicates byte-to-text decoding failed. Raw preserves the
// offending bytes, typically an undecodable tail at stream end. The bytes are
// reported rather than dropped.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %q: %v", truncate(e.Raw, 40), e.Err)
	}

	return fmt.Sprintf("undecodable bytes %q at end of stream", truncate(e.Raw, 40))
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsStreamError implements StreamError.
func (e *DecodeError) IsStreamError() bool { return true }

// ParseError indicates an item could not be parsed as a structured record.
// Raw preserves the offending item content.
type ParseError struct {
	Raw []byte
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", truncate(e.Raw, 80), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsStreamError implements StreamError.
func (e *ParseError) IsStreamError() bool { return true }

// truncate renders data for an error message, eliding the middle of long
// content so messages stay readable while both ends remain recognizable.
func truncate(data []byte, keep int) string {
	if len(data) <= keep {
		return string(data)
	}

	head := keep / 2
	tail := keep - head

	return fmt.Sprintf("%s<... +%d bytes>%s", data[:head], len(data)-head-tail, data[len(data)-tail:])
}
