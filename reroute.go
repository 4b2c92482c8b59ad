package procstream

import (
	"iter"

	"github.com/wagiedev/procstream/internal/errs"
)

// RouteStore carries side-band data from a RouteOut stage to its matching
// RouteIn stage. It records one entry per source element, in order, including
// elements that were stored only and never reached the intermediate
// transform. A store is owned by exactly one RouteOut/RouteIn pair and
// requires no locking.
type RouteStore[T, S any] struct {
	entries []routeEntry[S]
	head    int
}

type routeEntry[S any] struct {
	processed bool
	stored    S
}

func (s *RouteStore[T, S]) push(stored S, processed bool) {
	s.entries = append(s.entries, routeEntry[S]{processed: processed, stored: stored})
}

func (s *RouteStore[T, S]) pop() (routeEntry[S], bool) {
	if s.head >= len(s.entries) {
		return routeEntry[S]{}, false
	}

	e := s.entries[s.head]
	s.head++

	if s.head == len(s.entries) {
		s.entries = s.entries[:0]
		s.head = 0
	}

	return e, true
}

// RouteOut routes data around the consumer of the returned sequence. For
// each source element, split decides what is passed downstream and what is
// recorded in the store: it returns the value to process, the value to
// store, and whether the element should be processed at all. When process is
// false nothing is yielded downstream and the element is store-only.
//
// Use RouteIn with the same store to merge the processed results back into
// the original order and cardinality.
func RouteOut[T, S any](src iter.Seq[T], store *RouteStore[T, S], split func(T) (T, S, bool)) iter.Seq[T] {
	return func(yield func(T) bool) {
		for elem := range src {
			out, stored, process := split(elem)
			store.push(stored, process)

			if process {
				if !yield(out) {
					return
				}
			}
		}
	}
}

// RouteIn is the counterpart to RouteOut: it re-inserts store-only elements
// in their original positions among the processed results. join combines a
// processed value (or the zero value, when the element was store-only and
// processed is false) with the stored data into the element to yield.
//
// The processed sequence must yield exactly one element per store entry that
// was marked for processing; a shortfall or surplus yields ErrRouteMismatch.
func RouteIn[T, S any](processed iter.Seq[T], store *RouteStore[T, S], join func(value T, stored S, processed bool) T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		for elem := range processed {
			for {
				entry, ok := store.pop()
				if !ok {
					yield(zero, errs.ErrRouteMismatch)

					return
				}

				if entry.processed {
					if !yield(join(elem, entry.stored, true), nil) {
						return
					}

					break
				}

				if !yield(join(zero, entry.stored, false), nil) {
					return
				}
			}
		}

		// The processed sequence is exhausted; anything left must be
		// store-only.
		for {
			entry, ok := store.pop()
			if !ok {
				return
			}

			if entry.processed {
				yield(zero, errs.ErrRouteMismatch)

				return
			}

			if !yield(join(zero, entry.stored, false), nil) {
				return
			}
		}
	}
}
