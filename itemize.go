package procstream

import (
	"bytes"
	"iter"

	"github.com/wagiedev/procstream/internal/errs"
)

// ItemizeOption configures Itemize.
type ItemizeOption func(*itemizeOptions)

type itemizeOptions struct {
	keepEnds bool
}

// KeepEnds retains the separator at the end of each complete item. The final
// unterminated item, if any, is yielded without a separator.
func KeepEnds() ItemizeOption {
	return func(o *itemizeOptions) {
		o.keepEnds = true
	}
}

// Itemize assembles complete separator-delimited items from a chunk sequence.
// An item may span multiple chunks, and the separator itself may be
// multi-byte and straddle a chunk boundary; a pending buffer carries the
// unterminated tail from one chunk to the next. A chunk containing several
// separators yields several items; an empty chunk yields nothing.
//
// Content after the last separator is always yielded as the final item, even
// though it is unterminated — no byte is ever discarded. A zero-length
// separator yields ErrEmptySeparator. Upstream errors pass through after any
// items already completed.
//
//	items := procstream.Itemize(procstream.Run(ctx, spec, nil), []byte("\n"))
func Itemize(chunks iter.Seq2[[]byte, error], sep []byte, opts ...ItemizeOption) iter.Seq2[[]byte, error] {
	var o itemizeOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func([]byte, error) bool) {
		if len(sep) == 0 {
			yield(nil, errs.ErrEmptySeparator)

			return
		}

		var pending []byte

		for chunk, err := range chunks {
			if err != nil {
				yield(nil, err)

				return
			}

			if len(chunk) == 0 {
				continue
			}

			pending = append(pending, chunk...)

			for {
				i := bytes.Index(pending, sep)
				if i < 0 {
					break
				}

				end := i
				if o.keepEnds {
					end = i + len(sep)
				}

				item := bytes.Clone(pending[:end])
				pending = pending[i+len(sep):]

				if !yield(item, nil) {
					return
				}
			}
		}

		if len(pending) > 0 {
			yield(bytes.Clone(pending), nil)
		}
	}
}
