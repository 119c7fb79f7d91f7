package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/core"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig() *ApplicationConfig {
	cfg := DefaultApplicationConfig()
	cfg.TargetFPS = 1000
	cfg.LogLevel = "error"
	return cfg
}

func TestEngineRunsFrameLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFrames = 5

	var updates, renders int
	g := &Game{ApplicationConfig: cfg}
	g.FnUpdate = func(dt float64) error {
		updates++
		assert.LessOrEqual(t, dt, cfg.MaxDelta)
		return nil
	}
	g.FnRender = func(float64) error {
		renders++
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)
	require.NotNil(t, g.Bus)
	require.NotNil(t, g.SystemManager)

	require.NoError(t, e.Initialize(context.Background()))
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 5, updates)
	assert.Equal(t, 5, renders)
	assert.Equal(t, uint64(5), e.FrameCount())
	assert.Equal(t, uint64(5), e.Metrics().TotalFrames)

	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageStopped, e.Stage())
	assert.Error(t, e.Run(context.Background()))
}

func TestEngineStopsOnQuitKey(t *testing.T) {
	g := &Game{ApplicationConfig: testConfig()}
	frames := 0
	g.FnUpdate = func(float64) error {
		frames++
		if frames == 3 {
			g.Input.ProcessKey(core.KEY_Q, true)
		}
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize(context.Background()))
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, frames)
}

func TestEngineStopsOnCancel(t *testing.T) {
	g := &Game{ApplicationConfig: testConfig()}
	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, e.Run(ctx))
}

func TestEngineUpdateErrorStops(t *testing.T) {
	boom := errors.New("boom")
	g := &Game{ApplicationConfig: testConfig()}
	g.FnUpdate = func(float64) error { return boom }

	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize(context.Background()))
	assert.ErrorIs(t, e.Run(context.Background()), boom)
}

func TestEngineDeliversReloads(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.RigDir = dir
	cfg.WatchRigs = true

	reloaded := make(chan string, 4)
	g := &Game{ApplicationConfig: cfg}
	g.FnOnReload = func(r *assets.Rig) error {
		reloaded <- r.Name
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)

	fired := 0
	g.Bus.Register(core.EVENT_CODE_RIG_RELOADED, func(ev core.EventContext) bool {
		fired++
		return false
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.Initialize(ctx))

	g.FnUpdate = func(float64) error {
		select {
		case <-reloaded:
			cancel()
		default:
		}
		return nil
	}

	tmp := filepath.Join(dir, "lobby.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("name = \"lobby\"\n"), 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, "lobby.toml")))

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		cancel()
		<-done
		t.Fatal("reload never reached the game")
	}
	assert.GreaterOrEqual(t, fired, 1)
	require.NoError(t, e.Shutdown())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TargetFPS = 0
	_, err := New(&Game{ApplicationConfig: cfg})
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}
