package procstream

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyOptions_DefaultsToNopLogger(t *testing.T) {
	o := applyOptions(nil)
	require.NotNil(t, o.logger)

	// Logging against the default logger must not panic or emit anywhere.
	o.logger.Info("discarded")
}

func TestWithLogger_EmitsLifecycleRecords(t *testing.T) {
	requireShell(t)

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	out, err := collect(Run(context.Background(), Spec{
		Argv: []string{"printf", "hi"},
	}, NoInput(), WithLogger(logger)))
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), out)

	logged := buf.String()
	require.Contains(t, logged, "process started")
	require.Contains(t, logged, "component=proc")
	require.Contains(t, logged, "proc_id=")
}

func TestWithChunkSize_BoundsYieldedChunks(t *testing.T) {
	requireShell(t)

	var sb strings.Builder

	for chunk, err := range Run(context.Background(), Spec{
		Argv: []string{"printf", "abcdef"},
	}, NoInput(), WithChunkSize(2)) {
		require.NoError(t, err)
		require.LessOrEqual(t, len(chunk), 2)

		sb.Write(chunk)
	}

	require.Equal(t, "abcdef", sb.String())
}
