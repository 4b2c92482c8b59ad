package procstream

import (
	"io"
	"iter"
)

// ChunksFromSlice creates an input chunk sequence from a slice of byte chunks.
// This is useful for feeding a fixed set of chunks to a process.
func ChunksFromSlice(chunks [][]byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, chunk := range chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// ChunksFromChannel creates a chunk sequence from a channel. This is useful
// for dynamic input where chunks are produced over time. The sequence
// completes when the channel is closed.
func ChunksFromChannel(ch <-chan []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for chunk := range ch {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// ChunksFromReader reads r in chunks of up to size bytes and yields them as a
// chunk sequence. A read failure is yielded as the final element; io.EOF ends
// the sequence cleanly.
func ChunksFromReader(r io.Reader, size int) iter.Seq2[[]byte, error] {
	if size <= 0 {
		size = 64 * 1024
	}

	return func(yield func([]byte, error) bool) {
		for {
			buf := make([]byte, size)

			n, err := r.Read(buf)
			if n > 0 {
				if !yield(buf[:n], nil) {
					return
				}
			}

			if err == io.EOF {
				return
			}

			if err != nil {
				yield(nil, err)

				return
			}
		}
	}
}

// NoInput returns an empty input sequence. Feeding it to a process closes the
// child's stdin immediately.
func NoInput() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {}
}

// JoinItems is the inverse of Itemize for terminator-style separators: every
// item is yielded followed by sep, reconstructing the original byte stream
// when the stream was fully terminated. Items produced with KeepEnds should
// be concatenated directly instead. Upstream errors pass through.
func JoinItems(items iter.Seq2[[]byte, error], sep []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for item, err := range items {
			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(item, nil) {
				return
			}

			if len(sep) > 0 {
				if !yield(sep, nil) {
					return
				}
			}
		}
	}
}
