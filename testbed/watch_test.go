package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/labrig/engine/math"
)

func TestWatchStartsAssembled(t *testing.T) {
	env, _ := newEnv(t)
	w := NewWatchExperience()
	require.NoError(t, w.Setup(env))
	defer w.Dispose()

	step(t, w, 1, 1.0/60)
	assert.True(t, env.Camera.GetPosition().Compare(math.NewVec3(0, 0, 12), 1e-4))
	assert.Equal(t, []string{"hero"}, w.Frame().Sections)
	assert.Equal(t, "drift", w.Frame().Keyframe)

	glass := worldPosition(t, env.Graph, "Glass")
	assert.InDelta(t, -0.015, glass.Z, 1e-4)
}

func TestWatchScrolledToEnd(t *testing.T) {
	env, in := newEnv(t)
	w := NewWatchExperience()
	require.NoError(t, w.Setup(env))
	defer w.Dispose()

	for i := 0; i < 20; i++ {
		in.ProcessMouseWheel(600)
	}
	assert.Equal(t, float32(1), w.Scroll().Target())

	step(t, w, 200, 0.1)
	frame := w.Frame()
	assert.InDelta(t, 1, frame.Progress, 1e-4)
	assert.Equal(t, "movement", frame.Keyframe)
	assert.Equal(t, []string{"conclusion"}, frame.Sections)

	watch := worldPosition(t, env.Graph, "Watch")
	assert.True(t, watch.Compare(math.NewVec3(0, 0, 14), 1e-3), "watch at %+v", watch)
	assert.InDelta(t, 14.885, worldPosition(t, env.Graph, "Glass").Z, 1e-3)
	assert.InDelta(t, 14.785, worldPosition(t, env.Graph, "Dial").Z, 1e-3)
	assert.InDelta(t, 14.185, worldPosition(t, env.Graph, "Mechanism").Z, 1e-3)
	// Hands ride on the dial.
	assert.InDelta(t, 14.785, worldPosition(t, env.Graph, "HourHand").Z, 1e-3)
	assert.InDelta(t, 14.785, worldPosition(t, env.Graph, "MinuteHand").Z, 1e-3)

	// The camera never moves on this page.
	assert.True(t, env.Camera.GetPosition().Compare(math.NewVec3(0, 0, 12), 1e-4))
}

func TestWatchKnobSpins(t *testing.T) {
	env, _ := newEnv(t)
	w := NewWatchExperience()
	require.NoError(t, w.Setup(env))
	defer w.Dispose()

	step(t, w, 1, 0.05)
	var spin float32
	for _, o := range w.Frame().Offsets {
		if o.Part == "knob" {
			spin = o.Spin
		}
	}
	step(t, w, 5, 0.05)
	for _, o := range w.Frame().Offsets {
		if o.Part == "knob" {
			assert.InDelta(t, spin+0.5, o.Spin, 1e-4)
		}
	}
}

func TestWatchReloadKeepsCamera(t *testing.T) {
	env, _ := newEnv(t)
	w := NewWatchExperience()
	require.NoError(t, w.Setup(env))
	defer w.Dispose()
	step(t, w, 10, 0.1)

	r, ok := env.Library.Get("watch")
	require.True(t, ok)
	require.NoError(t, w.Reload(r))
	step(t, w, 1, 0)
	assert.True(t, env.Camera.GetPosition().Compare(math.NewVec3(0, 0, 12), 1e-4))

	// Rigs of other experiences are ignored.
	hub, _ := env.Library.Get("hub")
	assert.NoError(t, w.Reload(hub))
}
