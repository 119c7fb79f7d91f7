package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockTickClampsDelta(t *testing.T) {
	now := time.Unix(0, 0)
	c := NewClock()
	c.now = func() time.Time { return now }

	assert.Equal(t, 0.0, c.Tick(0.1))
	c.Start()

	now = now.Add(16 * time.Millisecond)
	assert.InDelta(t, 0.016, c.Tick(0.1), 1e-9)

	now = now.Add(5 * time.Second)
	assert.Equal(t, 0.1, c.Tick(0.1))

	c.Update()
	assert.InDelta(t, 5.016, c.Elapsed(), 1e-9)

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.InDelta(t, 5.016, c.Elapsed(), 1e-9)
}

func TestClampDelta(t *testing.T) {
	assert.Equal(t, 0.0, ClampDelta(-1, 0.1))
	assert.Equal(t, 0.0, ClampDelta(math.NaN(), 0.1))
	assert.Equal(t, 0.05, ClampDelta(0.05, 0.1))
	assert.Equal(t, 3.0, ClampDelta(3, 0))
}

func TestMetricsAverages(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.02)
	}
	_, avg := m.Frame()
	assert.InDelta(t, 20, avg, 1e-9)
	assert.Equal(t, uint64(AVG_COUNT), m.TotalFrames)
}

func TestIdentifierPoolGenerations(t *testing.T) {
	p := NewIdentifierPool(2)
	a, genA := p.Acquire("a")
	b, _ := p.Acquire("b")
	assert.NotEqual(t, a, b)

	assert.NoError(t, p.Release(a))
	assert.Error(t, p.Release(a))
	assert.Error(t, p.Release(99))

	_, ok := p.Owner(a, genA)
	assert.False(t, ok)

	c, genC := p.Acquire("c")
	assert.Equal(t, a, c)
	assert.NotEqual(t, genA, genC)
	owner, ok := p.Owner(c, genC)
	assert.True(t, ok)
	assert.Equal(t, "c", owner)
	assert.Equal(t, 2, p.Len())
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("debug")
	assert.NoError(t, err)
	assert.Equal(t, DebugLevel, lvl)
	_, err = ParseLogLevel("chatty")
	assert.Error(t, err)
}
