package procstream

import (
	"bytes"
	"iter"

	"github.com/google/jsonschema-go/jsonschema"
	segjson "github.com/segmentio/encoding/json"

	"github.com/wagiedev/procstream/internal/errs"
)

// LoadOption configures LoadJSON.
type LoadOption func(*loadOptions)

type loadOptions struct {
	schema *jsonschema.Schema
}

// WithSchema validates every parsed value against a JSON Schema. A
// structurally valid record that violates the schema is reported as a
// ParseError, same as malformed JSON.
func WithSchema(schema *jsonschema.Schema) LoadOption {
	return func(o *loadOptions) {
		o.schema = schema
	}
}

// LoadJSON parses each item as one JSON document and yields the decoded
// values in order. On a malformed item it yields a *ParseError identifying
// the offending raw content — after every successfully parsed item preceding
// it — and stops; values already yielded remain valid.
//
// Combined with Itemize over newline-separated output, this processes
// JSON-lines data one record at a time:
//
//	records := procstream.LoadJSON(procstream.Itemize(chunks, []byte("\n")))
func LoadJSON(items iter.Seq2[[]byte, error], opts ...LoadOption) iter.Seq2[any, error] {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(any, error) bool) {
		var resolved *jsonschema.Resolved

		if o.schema != nil {
			var err error

			resolved, err = o.schema.Resolve(nil)
			if err != nil {
				yield(nil, err)

				return
			}
		}

		for item, err := range items {
			if err != nil {
				yield(nil, err)

				return
			}

			value, perr := parseItem(item, resolved)
			if perr != nil {
				yield(nil, perr)

				return
			}

			if !yield(value, nil) {
				return
			}
		}
	}
}

// LoadJSONLenient parses each item like LoadJSON but does not stop on a
// malformed item: the *ParseError is yielded in place of the value and
// iteration continues with the next item.
func LoadJSONLenient(items iter.Seq2[[]byte, error], opts ...LoadOption) iter.Seq2[any, error] {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(any, error) bool) {
		var resolved *jsonschema.Resolved

		if o.schema != nil {
			var err error

			resolved, err = o.schema.Resolve(nil)
			if err != nil {
				yield(nil, err)

				return
			}
		}

		for item, err := range items {
			if err != nil {
				yield(nil, err)

				return
			}

			value, perr := parseItem(item, resolved)
			if perr != nil {
				if !yield(nil, perr) {
					return
				}

				continue
			}

			if !yield(value, nil) {
				return
			}
		}
	}
}

func parseItem(item []byte, resolved *jsonschema.Resolved) (any, *errs.ParseError) {
	var value any

	if err := segjson.Unmarshal(item, &value); err != nil {
		return nil, &errs.ParseError{Raw: bytes.Clone(item), Err: err}
	}

	if resolved != nil {
		if err := resolved.Validate(value); err != nil {
			return nil, &errs.ParseError{Raw: bytes.Clone(item), Err: err}
		}
	}

	return value, nil
}
