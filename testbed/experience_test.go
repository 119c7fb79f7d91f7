package testbed

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/renderer/components"
	"github.com/spaghettifunk/labrig/engine/rig"
	"github.com/spaghettifunk/labrig/engine/scene"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func newEnv(t *testing.T) (*Env, *core.Input) {
	t.Helper()
	lib := assets.NewLibrary("")
	require.NoError(t, lib.LoadFS(context.Background(), Rigs()))
	bus := core.NewEventBus()
	return &Env{
		Graph:   scene.NewGraph(),
		Bus:     bus,
		Library: lib,
		Camera:  components.NewCamera(),
		Log:     log.New(io.Discard),
	}, core.NewInput(bus)
}

// step runs n frames of dt seconds.
func step(t *testing.T, x Experience, n int, dt float32) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, x.Update(dt))
		require.NoError(t, x.Render())
	}
}

func worldPosition(t *testing.T, g *scene.Graph, name string) math.Vec3 {
	t.Helper()
	h, ok := g.Lookup(name)
	require.True(t, ok, name)
	p, ok := g.WorldPosition(h)
	require.True(t, ok, name)
	return p
}

func TestEmbeddedRigsConfigure(t *testing.T) {
	env, _ := newEnv(t)
	assert.Equal(t, []string{"flight", "hub", "shoe", "watch"}, env.Library.Names())

	for _, name := range env.Library.Names() {
		r, _ := env.Library.Get(name)
		d := rig.NewDriver(nil, rig.WithLogger(env.Log))
		assert.NoError(t, d.Configure(r.Track), name)
	}

	hub, _ := env.Library.Get("hub")
	require.NotNil(t, hub.Hub)
	assert.Len(t, hub.Hub.Targets, 8)
	assert.Len(t, hub.Hub.Slots, 8)
}

func TestNewExperience(t *testing.T) {
	for _, name := range ExperienceNames() {
		x, err := NewExperience(name)
		require.NoError(t, err)
		assert.Equal(t, name, x.Name())
	}
	_, err := NewExperience("forge")
	assert.ErrorIs(t, err, ErrUnknownExperience)
}

func TestSetupFailsWithoutRig(t *testing.T) {
	env, _ := newEnv(t)
	env.Library = assets.NewLibrary("")
	for _, name := range ExperienceNames() {
		x, _ := NewExperience(name)
		assert.Error(t, x.Setup(env), name)
		x.Dispose()
	}
	assert.Equal(t, 0, env.Graph.Len())
}

func TestDisposeRemovesNodes(t *testing.T) {
	env, _ := newEnv(t)
	x := NewWatchExperience()
	require.NoError(t, x.Setup(env))
	assert.NotZero(t, env.Graph.Len())
	x.Dispose()
	assert.Equal(t, 0, env.Graph.Len())
	assert.Equal(t, 0, env.Bus.ListenerCount(core.EVENT_CODE_MOUSE_WHEEL))
}
