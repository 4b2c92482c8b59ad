package procstream

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"
)

// collectItems drains an item sequence into a slice of strings, stopping at
// the first error.
func collectItems(seq iter.Seq2[[]byte, error]) ([]string, error) {
	var items []string

	for item, err := range seq {
		if err != nil {
			return items, err
		}

		items = append(items, string(item))
	}

	return items, nil
}

func TestItemize_ItemsSpanChunks(t *testing.T) {
	chunks := ChunksFromSlice([][]byte{
		[]byte("aaa\nbb"),
		[]byte("b\nccc"),
	})

	items, err := collectItems(Itemize(chunks, []byte("\n")))
	require.NoError(t, err)
	require.Equal(t, []string{"aaa", "bbb", "ccc"}, items)
}

func TestItemize_MultipleSeparatorsPerChunk(t *testing.T) {
	chunks := ChunksFromSlice([][]byte{[]byte("a\nb\nc\n")})

	items, err := collectItems(Itemize(chunks, []byte("\n")))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, items)
}

func TestItemize_SeparatorStraddlesChunkBoundary(t *testing.T) {
	chunks := ChunksFromSlice([][]byte{
		[]byte("a\r"),
		[]byte("\nb\r\n"),
	})

	items, err := collectItems(Itemize(chunks, []byte("\r\n")))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, items)
}

func TestItemize_LongSeparator(t *testing.T) {
	sep := []byte("\n----\n")
	chunks := ChunksFromSlice([][]byte{
		[]byte("first\n--"),
		[]byte("--\nsecond\n-"),
		[]byte("---\nthird"),
	})

	items, err := collectItems(Itemize(chunks, sep))
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "third"}, items)
}

func TestItemize_TrailingUnterminatedItemIsEmitted(t *testing.T) {
	chunks := ChunksFromSlice([][]byte{[]byte("a\nrest")})

	items, err := collectItems(Itemize(chunks, []byte("\n")))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "rest"}, items)
}

func TestItemize_NoSeparatorAtAll(t *testing.T) {
	chunks := ChunksFromSlice([][]byte{[]byte("abc"), []byte("def")})

	items, err := collectItems(Itemize(chunks, []byte("\n")))
	require.NoError(t, err)
	require.Equal(t, []string{"abcdef"}, items)
}

func TestItemize_EmptyChunksYieldNothing(t *testing.T) {
	chunks := ChunksFromSlice([][]byte{{}, []byte("a\n"), {}})

	items, err := collectItems(Itemize(chunks, []byte("\n")))
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, items)
}

func TestItemize_EmptyInput(t *testing.T) {
	items, err := collectItems(Itemize(NoInput(), []byte("\n")))
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestItemize_ZeroByteSeparator(t *testing.T) {
	chunks := ChunksFromSlice([][]byte{[]byte("a\x00b\x00c")})

	items, err := collectItems(Itemize(chunks, []byte{0}))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, items)
}

func TestItemize_KeepEnds(t *testing.T) {
	chunks := ChunksFromSlice([][]byte{[]byte("a\nb\nrest")})

	items, err := collectItems(Itemize(chunks, []byte("\n"), KeepEnds()))
	require.NoError(t, err)
	require.Equal(t, []string{"a\n", "b\n", "rest"}, items)
}

func TestItemize_EmptySeparatorIsRejected(t *testing.T) {
	_, err := collectItems(Itemize(ChunksFromSlice([][]byte{[]byte("a")}), nil))
	require.ErrorIs(t, err, ErrEmptySeparator)
}

func TestItemize_UpstreamErrorPassesThroughAfterCompleteItems(t *testing.T) {
	errUpstream := errors.New("pipe burst")

	chunks := func(yield func([]byte, error) bool) {
		if !yield([]byte("a\nb"), nil) {
			return
		}

		yield(nil, errUpstream)
	}

	items, err := collectItems(Itemize(chunks, []byte("\n")))
	require.Equal(t, []string{"a"}, items)
	require.ErrorIs(t, err, errUpstream)
}

func TestItemize_JoinItemsRoundTrip(t *testing.T) {
	original := "one\ntwo\nthree\n"
	chunks := ChunksFromSlice([][]byte{
		[]byte("one\ntw"),
		[]byte("o\nthr"),
		[]byte("ee\n"),
	})

	rejoined, err := collect(JoinItems(Itemize(chunks, []byte("\n")), []byte("\n")))
	require.NoError(t, err)
	require.Equal(t, original, string(rejoined))
}

func TestItemize_KeepEndsRoundTrip(t *testing.T) {
	original := "one\ntwo\ntail"
	chunks := ChunksFromSlice([][]byte{[]byte("one\ntw"), []byte("o\ntail")})

	var rebuilt []byte

	for item, err := range Itemize(chunks, []byte("\n"), KeepEnds()) {
		require.NoError(t, err)

		rebuilt = append(rebuilt, item...)
	}

	require.Equal(t, original, string(rebuilt))
}
