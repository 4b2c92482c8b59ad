package procstream

import (
	"bytes"
	"context"
	"io"
	"iter"
	"sync"

	"github.com/wagiedev/procstream/internal/errs"
	"github.com/wagiedev/procstream/internal/proc"
)

// Spec describes the command to run.
type Spec struct {
	// Argv is the program and its arguments. Argv[0] is resolved via PATH
	// unless it contains a path separator.
	Argv []string
	// Dir is the working directory for the child. Empty means inherit.
	Dir string
	// Env holds environment overrides applied on top of the inherited
	// environment. Nil means inherit unchanged.
	Env map[string]string
}

// Proc is a handle on a running child process. Its stdout is exposed as a
// single-consumption chunk sequence via Chunks; its stdin is fed from the
// input sequence given to Start by a background worker, so a full OS pipe
// buffer in either direction can never block progress in the other.
type Proc struct {
	h *proc.Handle

	mu       sync.Mutex
	consumed bool
	finished bool
	finErr   error
}

// Start launches the child described by spec. The input sequence is drained
// into the child's stdin by a background worker; stdin is closed when the
// input is exhausted. Pass NoInput() (or nil) for commands that read nothing.
//
// A spawn failure (missing executable, permission denied) is returned
// immediately as *LaunchError. On success the caller must consume Chunks
// and/or call Close to release the process.
func Start(ctx context.Context, spec Spec, input iter.Seq2[[]byte, error], opts ...Option) (*Proc, error) {
	o := applyOptions(opts)

	h, err := proc.Start(ctx, proc.Config{
		Argv:           spec.Argv,
		Dir:            spec.Dir,
		Env:            spec.Env,
		ChunkSize:      o.chunkSize,
		StderrTailSize: o.stderrTailSize,
		StderrCallback: o.stderrCallback,
		Logger:         o.logger,
	}, input)
	if err != nil {
		return nil, err
	}

	return &Proc{h: h}, nil
}

// Chunks returns the child's stdout as a lazy sequence of byte chunks, in
// byte order, yielded as they become available. The sequence is finite and
// single-consumption; iterating a second time yields ErrChunksConsumed.
//
// After the last chunk the background workers are joined and the child is
// reaped. A nonzero exit status is then yielded as *CommandError carrying the
// captured stderr tail; an input-sequence failure is yielded as-is. Breaking
// out of the loop early leaves the child running until Close is called.
func (p *Proc) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		p.mu.Lock()
		if p.consumed {
			p.mu.Unlock()
			yield(nil, errs.ErrChunksConsumed)

			return
		}
		p.consumed = true
		p.mu.Unlock()

		buf := make([]byte, p.h.ChunkSize())

		for {
			n, err := p.h.Read(buf)
			if n > 0 {
				if !yield(bytes.Clone(buf[:n]), nil) {
					return
				}
			}

			if err == io.EOF {
				break
			}

			if err != nil {
				_ = p.Close()
				yield(nil, err)

				return
			}
		}

		if err := p.finish(); err != nil {
			yield(nil, err)
		}
	}
}

// finish joins workers and reaps exactly once, caching the outcome.
func (p *Proc) finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.finished {
		p.finished = true
		p.finErr = p.h.Finish()
	}

	return p.finErr
}

// Close tears down the process: closes the input pipe if still open, stops
// the feeder, kills the child if it has not exited, and reaps it. It is
// idempotent and must be called if Chunks is abandoned before exhaustion.
func (p *Proc) Close() error {
	return p.h.Close()
}

// ExitCode returns the child's exit status once it has been reaped, and -1
// before that or if the child died from a signal.
func (p *Proc) ExitCode() int {
	return p.h.ExitCode()
}

// PID returns the OS process id of the child.
func (p *Proc) PID() int {
	return p.h.PID()
}

// StderrTail returns the bounded tail of the child's stderr captured so far.
func (p *Proc) StderrTail() []byte {
	return p.h.StderrTail()
}

// Run executes the command as one scoped pipeline stage: it starts the child,
// yields its stdout chunks, and tears the process down on every exit path,
// including early breaks and errors. This is the common entry point; use
// Start directly only when the handle itself is needed.
//
//	for chunk, err := range procstream.Run(ctx, procstream.Spec{Argv: []string{"cat"}}, input) {
//	    if err != nil {
//	        return err
//	    }
//	    // consume chunk
//	}
func Run(ctx context.Context, spec Spec, input iter.Seq2[[]byte, error], opts ...Option) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		p, err := Start(ctx, spec, input, opts...)
		if err != nil {
			yield(nil, err)

			return
		}

		defer p.Close()

		for chunk, err := range p.Chunks() {
			if !yield(chunk, err) {
				return
			}

			if err != nil {
				return
			}
		}
	}
}
