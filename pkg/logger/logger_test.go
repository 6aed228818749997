package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

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
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_WritesFlatEntry(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo})

	log.With(Component("http")).Info("advance finished", Term(5), StudentID("s-1"), Latency(1500*time.Millisecond))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "advance finished", lines[0]["msg"])
	assert.Equal(t, "http", lines[0]["component"])
	assert.Equal(t, float64(5), lines[0]["term"])
	assert.Equal(t, "s-1", lines[0]["student_id"])
	assert.Equal(t, float64(1500), lines[0]["latency_ms"])
	assert.NotEmpty(t, lines[0]["time"])
}

func TestLogger_ReservedKeysWin(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf})

	log.Warn("real", String("msg", "spoofed"), String("level", "DEBUG"), Err(errors.New("boom")))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "real", lines[0]["msg"])
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "boom", lines[0]["error"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: ParseLevel("warn")})

	log.Info("dropped")
	log.Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLogger_WithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Options{Output: &buf})
	_ = parent.With(CareerID("c-1"))

	parent.Info("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "career_id")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf}).WithRequestID("req-1")

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.NotNil(t, FromContext(context.Background()))
}

func TestAnnotate(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), New(Options{Output: &buf}))
	ctx = WithAnnotations(ctx)

	Annotate(ctx, StudentID("s-1"), Term(3))
	Annotate(ctx, Term(4), RunID("run-1"))
	FromContext(ctx).Info("http request")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "s-1", lines[0]["student_id"])
	assert.Equal(t, float64(4), lines[0]["term"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.Len(t, Annotations(ctx), 3)

	// Without WithAnnotations nothing is recorded.
	bare := context.Background()
	Annotate(bare, StudentID("ignored"))
	assert.Empty(t, Annotations(bare))
}
