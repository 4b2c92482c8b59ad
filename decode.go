package procstream

import (
	"bytes"
	"errors"
	"iter"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/wagiedev/procstream/internal/errs"
)

// DecodeOption configures Decode.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	encoding encoding.Encoding
	strict   bool
}

// WithEncoding selects the byte encoding to decode from. Any
// golang.org/x/text/encoding codec works, e.g. charmap.ISO8859_1 or
// unicode.UTF16(...). The default is UTF-8.
func WithEncoding(enc encoding.Encoding) DecodeOption {
	return func(o *decodeOptions) {
		o.encoding = enc
	}
}

// Strict makes ill-formed input mid-stream an error instead of a
// substitution. For the default UTF-8 encoding any invalid byte sequence
// yields a DecodeError; for other codecs, Strict surfaces the codec's own
// transform errors. An undecodable tail at stream end is a DecodeError in
// either mode.
func Strict() DecodeOption {
	return func(o *decodeOptions) {
		o.strict = true
	}
}

// Decode converts a byte chunk sequence into decoded text chunks. A pending
// buffer holds the undecodable tail of the current chunk — the prefix of a
// multi-byte sequence split at a chunk boundary — and prepends it before
// decoding the next chunk, so character boundaries never depend on chunk
// boundaries. There is no one-to-one mapping between input and output chunks.
//
// By default, ill-formed bytes mid-stream are substituted according to the
// codec; with Strict they yield a DecodeError instead. A nonempty pending
// tail at stream end always yields a DecodeError carrying the raw bytes, so
// no byte is ever silently dropped.
//
// When combined with Itemize, wrap Itemize around Decode so itemization
// happens on decoded text boundaries rather than raw chunk boundaries.
func Decode(chunks iter.Seq2[[]byte, error], opts ...DecodeOption) iter.Seq2[string, error] {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(string, error) bool) {
		var tr transform.Transformer
		if o.strict && o.encoding == nil {
			tr = encoding.UTF8Validator
		} else {
			enc := o.encoding
			if enc == nil {
				enc = unicode.UTF8
			}

			tr = enc.NewDecoder()
		}

		tr.Reset()

		dst := make([]byte, 4096)

		// run pushes src through the transformer and returns the decoded
		// text plus the undischarged tail. ErrShortSrc is the transformer's
		// way of handing back an incomplete multi-byte sequence.
		run := func(src []byte, atEOF bool) (string, []byte, error) {
			var sb strings.Builder

			for {
				nDst, nSrc, err := tr.Transform(dst, src, atEOF)
				sb.Write(dst[:nDst])
				src = src[nSrc:]

				switch {
				case err == nil:
					if len(src) == 0 {
						return sb.String(), nil, nil
					}
				case errors.Is(err, transform.ErrShortDst):
					dst = make([]byte, 2*len(dst))
				case errors.Is(err, transform.ErrShortSrc):
					return sb.String(), src, nil
				default:
					return sb.String(), src, err
				}
			}
		}

		var pending []byte

		for chunk, cerr := range chunks {
			if cerr != nil {
				yield("", cerr)

				return
			}

			if len(chunk) == 0 {
				continue
			}

			src := chunk
			if len(pending) > 0 {
				src = append(pending, chunk...)
			}

			out, rest, err := run(src, false)
			pending = bytes.Clone(rest)

			if err != nil {
				if out != "" && !yield(out, nil) {
					return
				}

				yield("", &errs.DecodeError{Raw: pending, Err: err})

				return
			}

			if out != "" && !yield(out, nil) {
				return
			}
		}

		// A nonempty tail at stream end can never be completed. Flushing it
		// through the codec would substitute the bytes away; report them
		// instead, in either mode.
		if len(pending) > 0 {
			yield("", &errs.DecodeError{Raw: pending})

			return
		}

		// Flush remaining transformer state.
		out, _, err := run(nil, true)
		if err != nil {
			if out != "" && !yield(out, nil) {
				return
			}

			yield("", &errs.DecodeError{Err: err})

			return
		}

		if out != "" {
			yield(out, nil)
		}
	}
}
