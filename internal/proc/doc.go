// Package proc owns the OS process boundary: it spawns the child with
// stdin/stdout/stderr pipes, feeds stdin from an input sequence on a
// background worker, captures a bounded stderr tail, and guarantees the
// child is reaped exactly once on every exit path.
package proc
