package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestProfilerTick(t *testing.T) {
	var buf bytes.Buffer
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithStats(func() []any { return []any{"rejected", 3} }),
		withClock(clock.now),
	)

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())
	assert.Empty(t, buf.String())

	clock.t = clock.t.Add(500 * time.Millisecond)
	require.True(t, p.Tick())
	out := buf.String()
	assert.Contains(t, out, "msg=profiler")
	assert.Contains(t, out, "fps=2")
	assert.Contains(t, out, "rejected=3")
	assert.Equal(t, 0, p.frameCount)
}

func TestProfilerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(
		WithInterval(100*time.Millisecond),
		WithInterval(-1),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		withClock(clock.now),
	)
	assert.Equal(t, 100*time.Millisecond, p.updateInterval)

	clock.t = clock.t.Add(100 * time.Millisecond)
	assert.True(t, p.Tick())
}
