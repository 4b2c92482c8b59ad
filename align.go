package procstream

import (
	"bytes"
	"iter"
)

// AlignPattern joins chunks so that a verbatim pattern can never straddle two
// yielded chunks: every yielded chunk has at least the pattern's length
// (unless the stream ends first) and never ends with a proper nonempty prefix
// of the pattern. A plain bytes.Contains on the yielded chunks then suffices
// to detect the pattern in the stream. A yielded chunk may contain the
// pattern more than once.
//
// Nothing is held back beyond what the two guarantees require: after a yield
// no input is cached, so downstream can drop back to the raw sequence once
// the pattern has been found. Upstream errors pass through.
func AlignPattern(chunks iter.Seq2[[]byte, error], pattern []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		var current []byte

		for chunk, err := range chunks {
			if err != nil {
				yield(nil, err)

				return
			}

			if len(chunk) == 0 {
				continue
			}

			current = append(current, chunk...)

			if len(current) >= len(pattern) && !endsWithPatternPrefix(current, pattern) {
				if !yield(current, nil) {
					return
				}

				current = nil
			}
		}

		if len(current) > 0 {
			yield(current, nil)
		}
	}
}

// endsWithPatternPrefix reports whether data ends with a proper nonempty
// prefix of pattern, i.e. whether more input could complete the pattern
// across the boundary.
func endsWithPatternPrefix(data, pattern []byte) bool {
	maxLen := len(pattern) - 1
	if maxLen > len(data) {
		maxLen = len(data)
	}

	for l := maxLen; l >= 1; l-- {
		if bytes.HasSuffix(data, pattern[:l]) {
			return true
		}
	}

	return false
}
