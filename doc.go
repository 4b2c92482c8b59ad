// Package procstream runs external processes as lazy, bidirectional
// iterables and rebuilds logical records from byte streams whose chunk
// boundaries are arbitrary.
//
// # Subprocess bridge
//
// Run places a child process in a chain of iterables: its stdin is fed from
// an input chunk sequence by a background worker while the caller drains its
// stdout on demand, so a full pipe buffer in either direction can never
// deadlock the other.
//
//	ctx := context.Background()
//	input := procstream.ChunksFromSlice([][]byte{[]byte("one"), []byte("two")})
//	for chunk, err := range procstream.Run(ctx, procstream.Spec{Argv: []string{"cat"}}, input) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    os.Stdout.Write(chunk)
//	}
//
// A nonzero exit status surfaces as *CommandError after the output is fully
// drained, carrying the exit code and a bounded tail of the child's stderr.
// A spawn failure surfaces immediately as *LaunchError. For explicit
// lifecycle control use Start, which returns a Proc handle with Chunks and
// Close.
//
// # Stream transforms
//
// Output chunks split records at arbitrary positions. The transforms carry a
// pending buffer across chunk boundaries to recover complete units:
//
//   - Itemize yields separator-delimited items, e.g. lines or
//     zero-byte-delimited entries
//   - Decode yields text decoded incrementally, keeping multi-byte
//     characters intact across chunk boundaries
//   - LoadJSON yields one parsed value per item, e.g. for JSON-lines output
//   - AlignPattern re-chunks so a search pattern never straddles a yield
//
// Stages compose directly because each consumes and produces
// iter.Seq2 sequences:
//
//	records := procstream.LoadJSON(
//	    procstream.Itemize(
//	        procstream.Run(ctx, procstream.Spec{Argv: argv}, procstream.NoInput()),
//	        []byte("\n"),
//	    ),
//	)
//
// # Logging
//
// Logging is disabled by default. Pass WithLogger to trace process
// lifecycle events:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	chunks := procstream.Run(ctx, spec, input, procstream.WithLogger(logger))
//
// # Error handling
//
// All failures are yielded inline through the iteration protocol, including
// those originating on the background feeder, so callers observe a single
// synchronous error channel:
//
//	for chunk, err := range procstream.Run(ctx, spec, input) {
//	    if cmdErr, ok := errors.AsType[*procstream.CommandError](err); ok {
//	        log.Fatalf("exit %d: %s", cmdErr.ExitCode, cmdErr.Stderr)
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // consume chunk
//	}
package procstream
