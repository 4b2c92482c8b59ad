package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/procstream/internal/errs"
)

const (
	// DefaultChunkSize is the read size used when draining the child's stdout.
	DefaultChunkSize = 64 * 1024
	// DefaultStderrTailSize bounds the captured stderr diagnostics. Reading
	// continues past the limit so the child never blocks on a full stderr
	// pipe; only the most recent bytes are kept for error reporting.
	DefaultStderrTailSize = 64 * 1024
)

// Config carries launch parameters resolved from the public options.
type Config struct {
	Argv           []string
	Dir            string
	Env            map[string]string
	ChunkSize      int
	StderrTailSize int
	StderrCallback func([]byte)
	Logger         *slog.Logger
}

// Handle is a running child process with exclusive pipe ownership: the feeder
// goroutine owns the stdin write end, the caller-driven drain owns the stdout
// read end, and a tail goroutine owns stderr. The feeder and tail run under
// one errgroup, which doubles as the set-once slot for feeder-side errors.
type Handle struct {
	log       *slog.Logger
	argv      []string
	dir       string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    io.ReadCloser
	chunkSize int
	maxTail   int
	stderrCb  func([]byte)

	workers *errgroup.Group

	tailMu sync.Mutex
	tail   []byte

	stdinMu     sync.Mutex
	stdinClosed bool

	pipeMu     sync.Mutex
	brokenPipe error

	waitOnce sync.Once
	stateMu  sync.Mutex
	reaped   bool
	exitCode int

	closeOnce sync.Once
	closeErr  error
}

// Start spawns the child process and launches its two background workers.
// A spawn failure is returned as *errs.LaunchError and is fatal to the call.
func Start(ctx context.Context, cfg Config, input iter.Seq2[[]byte, error]) (*Handle, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if len(cfg.Argv) == 0 {
		return nil, &errs.LaunchError{Err: errors.New("empty argv")}
	}

	log = log.With("component", "proc", "proc_id", ulid.Make().String())

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	maxTail := cfg.StderrTailSize
	if maxTail <= 0 {
		maxTail = DefaultStderrTailSize
	}

	//nolint:gosec // G204: launching caller-controlled argv is the purpose of this package
	cmd := exec.CommandContext(ctx, cfg.Argv[0], cfg.Argv[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = buildEnv(cfg.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &errs.LaunchError{Argv: cfg.Argv, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &errs.LaunchError{Argv: cfg.Argv, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &errs.LaunchError{Argv: cfg.Argv, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		log.Debug("process failed to start", "error", err)

		return nil, &errs.LaunchError{Argv: cfg.Argv, Err: err}
	}

	h := &Handle{
		log:       log,
		argv:      cfg.Argv,
		dir:       cfg.Dir,
		cmd:       cmd,
		stdin:     stdin,
		stdout:    stdout,
		chunkSize: chunkSize,
		maxTail:   maxTail,
		stderrCb:  cfg.StderrCallback,
		workers:   &errgroup.Group{},
		exitCode:  -1,
	}

	h.workers.Go(func() error {
		h.readStderr(stderr)

		return nil
	})
	h.workers.Go(func() error {
		return h.feed(input)
	})

	log.Info("process started", "pid", cmd.Process.Pid, "argv", cfg.Argv)

	return h, nil
}

// buildEnv merges environment overrides with the inherited environment.
// A nil override map means the child inherits the parent environment as-is.
func buildEnv(overrides map[string]string) []string {
	if overrides == nil {
		return nil
	}

	env := os.Environ()
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}

	return env
}

// feed drains the input sequence into the child's stdin and closes the pipe
// when the input is exhausted, signalling EOF to the child. A write against a
// closed pipe is recorded but not reported from here: whether it matters is
// decided by the exit status once the output is fully drained. Everything
// else (an input-sequence failure, an unexpected write error) is returned and
// captured by the errgroup.
func (h *Handle) feed(input iter.Seq2[[]byte, error]) (err error) {
	defer func() {
		if cerr := h.closeStdin(); cerr != nil && err == nil && !isBrokenPipe(cerr) {
			err = fmt.Errorf("close stdin: %w", cerr)
		}
	}()

	if input == nil {
		return nil
	}

	for chunk, ierr := range input {
		if ierr != nil {
			h.log.Debug("input sequence failed", "error", ierr)

			return fmt.Errorf("input sequence: %w", ierr)
		}

		if len(chunk) == 0 {
			continue
		}

		if _, werr := h.stdin.Write(chunk); werr != nil {
			if isBrokenPipe(werr) {
				h.log.Debug("stdin write hit closed pipe", "error", werr)
				h.setBrokenPipe(werr)

				return nil
			}

			return fmt.Errorf("write to stdin: %w", werr)
		}
	}

	return nil
}

// readStderr keeps the most recent stderr bytes for diagnostics. It reads
// until the pipe reports EOF so the child can never block on a full stderr
// buffer, no matter how much it writes.
func (h *Handle) readStderr(r io.Reader) {
	buf := make([]byte, h.chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := bytes.Clone(buf[:n])

			h.tailMu.Lock()

			h.tail = append(h.tail, chunk...)
			if len(h.tail) > h.maxTail {
				h.tail = bytes.Clone(h.tail[len(h.tail)-h.maxTail:])
			}

			h.tailMu.Unlock()

			if h.stderrCb != nil {
				h.stderrCb(chunk)
			}
		}

		if err != nil {
			if err != io.EOF {
				h.log.Debug("stderr read ended", "error", err)
			}

			return
		}
	}
}

// Read reads the next stdout chunk into buf. Only the drain may call this.
func (h *Handle) Read(buf []byte) (int, error) {
	return h.stdout.Read(buf)
}

// ChunkSize reports the configured drain read size.
func (h *Handle) ChunkSize() int {
	return h.chunkSize
}

// StderrTail returns a copy of the captured stderr diagnostics.
func (h *Handle) StderrTail() []byte {
	h.tailMu.Lock()
	defer h.tailMu.Unlock()

	return bytes.Clone(h.tail)
}

// PID returns the OS process id of the child.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// ExitCode returns the child's exit status, or -1 if the child has not been
// reaped yet or died from a signal.
func (h *Handle) ExitCode() int {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	return h.exitCode
}

// Finish joins the background workers and reaps the child after the output
// has been fully drained. The error precedence is: nonzero exit status first
// (as *errs.CommandError, with any coincident feeder error attached), then a
// feeder-side failure. A broken input pipe together with a clean exit is not
// an error.
func (h *Handle) Finish() error {
	werr := h.workers.Wait()
	h.reap()

	code := h.ExitCode()
	h.log.Debug("process finished", "exit_code", code, "feeder_error", werr)

	if code != 0 {
		cause := werr
		if cause == nil {
			cause = h.getBrokenPipe()
		}

		return &errs.CommandError{
			Argv:     h.argv,
			ExitCode: code,
			Stderr:   h.StderrTail(),
			Dir:      h.dir,
			Err:      cause,
		}
	}

	if werr != nil {
		return werr
	}

	return nil
}

// Close tears the process down on every exit path: closes stdin if still
// open, kills the child if it has not been reaped, joins the workers, and
// reaps. It is idempotent and safe to call after Finish.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.log.Debug("closing process")

		_ = h.closeStdin()

		h.stateMu.Lock()
		reaped := h.reaped
		h.stateMu.Unlock()

		if !reaped && h.cmd.Process != nil {
			if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				h.closeErr = fmt.Errorf("kill process (pid %d): %w", h.cmd.Process.Pid, err)
			}
		}

		_ = h.workers.Wait()
		h.reap()
	})

	return h.closeErr
}

// reap performs the single Wait call for this process. Whichever of Finish or
// Close gets here first does the reaping; the OS wait executes at most once.
func (h *Handle) reap() {
	h.waitOnce.Do(func() {
		err := h.cmd.Wait()

		code := -1
		if h.cmd.ProcessState != nil {
			code = h.cmd.ProcessState.ExitCode()
		}

		if err != nil {
			h.log.Debug("process reaped", "exit_code", code, "wait_error", err)
		} else {
			h.log.Debug("process reaped", "exit_code", code)
		}

		h.stateMu.Lock()
		h.exitCode = code
		h.reaped = true
		h.stateMu.Unlock()
	})
}

func (h *Handle) closeStdin() error {
	h.stdinMu.Lock()
	defer h.stdinMu.Unlock()

	if h.stdinClosed {
		return nil
	}

	h.stdinClosed = true

	return h.stdin.Close()
}

func (h *Handle) setBrokenPipe(err error) {
	h.pipeMu.Lock()
	defer h.pipeMu.Unlock()

	if h.brokenPipe == nil {
		h.brokenPipe = err
	}
}

func (h *Handle) getBrokenPipe() error {
	h.pipeMu.Lock()
	defer h.pipeMu.Unlock()

	return h.brokenPipe
}

// Windows reports a write to a dead child with these error codes instead of
// EPIPE: ERROR_BROKEN_PIPE and ERROR_NO_DATA ("the pipe is being closed").
const (
	windowsBrokenPipe = syscall.Errno(109)
	windowsNoData     = syscall.Errno(232)
)

// isBrokenPipe reports whether a stdin write failed because the child went
// away or the pipe was closed underneath the feeder during teardown.
func isBrokenPipe(err error) bool {
	if errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) {
		return true
	}

	if runtime.GOOS == "windows" {
		var errno syscall.Errno
		if errors.As(err, &errno) {
			return errno == windowsBrokenPipe || errno == windowsNoData
		}
	}

	return false
}
