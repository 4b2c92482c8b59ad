package procstream

import (
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunksFromReader_ChunksConcatenateToSource(t *testing.T) {
	src := "the quick brown fox jumps over the lazy dog"

	var sizes []int

	var all []byte

	for chunk, err := range ChunksFromReader(strings.NewReader(src), 4) {
		require.NoError(t, err)

		sizes = append(sizes, len(chunk))
		all = append(all, chunk...)
	}

	require.Equal(t, src, string(all))

	for _, size := range sizes {
		require.LessOrEqual(t, size, 4)
	}
}

func TestChunksFromReader_ReadErrorIsYielded(t *testing.T) {
	errRead := errors.New("disk on fire")

	r := &failingReader{data: []byte("abc"), err: errRead}

	out, err := collect(ChunksFromReader(r, 2))
	require.Equal(t, "abc", string(out))
	require.ErrorIs(t, err, errRead)
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}

	n := copy(p, r.data)
	r.data = r.data[n:]

	return n, nil
}

func TestChunksFromChannel_CompletesOnClose(t *testing.T) {
	ch := make(chan []byte, 2)
	ch <- []byte("a")
	ch <- []byte("b")
	close(ch)

	out, err := collect(ChunksFromChannel(ch))
	require.NoError(t, err)
	require.Equal(t, "ab", string(out))
}

func TestNoInput_YieldsNothing(t *testing.T) {
	out, err := collect(NoInput())
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestJoinItems_TerminatesEveryItem(t *testing.T) {
	items := ChunksFromSlice([][]byte{[]byte("a"), []byte("b")})

	out, err := collect(JoinItems(items, []byte("\n")))
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", string(out))
}

func TestJoinItems_UpstreamErrorPassesThrough(t *testing.T) {
	errUpstream := errors.New("bad item")

	items := func(yield func([]byte, error) bool) {
		if !yield([]byte("a"), nil) {
			return
		}

		yield(nil, errUpstream)
	}

	var _ iter.Seq2[[]byte, error] = items

	out, err := collect(JoinItems(items, []byte(";")))
	require.Equal(t, "a;", string(out))
	require.ErrorIs(t, err, errUpstream)
}
