package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", "two")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err", "error", errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["message"])
	assert.EqualValues(t, 1, lines[0]["a"])
	assert.Equal(t, "two", lines[1]["b"])
	assert.Equal(t, "warn", lines[2]["level"])
	assert.Equal(t, "boom", lines[3]["error"])
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf)).With("module", "auth")

	log.Info(context.Background(), "hello", "k", "v", "dangling")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "auth", lines[0]["module"])
	assert.Equal(t, "v", lines[0]["k"])
	assert.Equal(t, "dangling", lines[0]["!BADKEY"])
}

func TestNew_SelectsBackend(t *testing.T) {
	var buf bytes.Buffer

	l, err := New("slog", "info", &buf)
	require.NoError(t, err)
	assert.IsType(t, &SlogLogger{}, l)

	l, err = New("zerolog", "debug", &buf)
	require.NoError(t, err)
	assert.IsType(t, &ZerologLogger{}, l)

	_, err = New("logrus", "info", &buf)
	assert.Error(t, err)

	_, err = New("slog", "loud", &buf)
	assert.Error(t, err)
}

func TestNew_SlogRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("slog", "warn", &buf)
	require.NoError(t, err)

	l.Info(context.Background(), "skipped")
	l.Warn(context.Background(), "kept")

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, "kept")
}

func TestZerologLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))

	log.Info(ContextWithRequestID(context.Background(), "req-9"), "hello", "k", "v")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-9", lines[0]["request_id"])
	assert.Equal(t, "v", lines[0]["k"])
}
