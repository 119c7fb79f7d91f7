package testbed

import (
	"embed"
	"io/fs"

	"github.com/spaghettifunk/labrig/engine"
	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/renderer/components"
)

//go:embed rigs/*.toml rigs/*.yaml
var embeddedRigs embed.FS

// Rigs returns the rig files built into the binary.
func Rigs() fs.FS {
	sub, err := fs.Sub(embeddedRigs, "rigs")
	if err != nil {
		panic(err)
	}
	return sub
}

type LabGame struct {
	*engine.Game
}

type labState struct {
	camera     *components.Camera
	cameraName string
	experience Experience
	script     *Script
	elapsed    float64
}

func NewLabGame(config *engine.ApplicationConfig) (*LabGame, error) {
	experience, err := NewExperience(config.Experience)
	if err != nil {
		return nil, err
	}
	lg := &LabGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			EmbeddedRigs:      Rigs(),
			State: &labState{
				experience: experience,
				cameraName: config.Experience,
			},
		},
	}

	lg.FnInitialize = lg.Initialize
	lg.FnUpdate = lg.Update
	lg.FnRender = lg.Render
	lg.FnOnReload = lg.OnReload
	lg.FnShutdown = lg.Shutdown

	return lg, nil
}

func (g *LabGame) state() *labState {
	return g.State.(*labState)
}

// Experience returns the running experience.
func (g *LabGame) Experience() Experience {
	return g.state().experience
}

// Camera returns the camera the experience writes into.
func (g *LabGame) Camera() *components.Camera {
	return g.state().camera
}

func (g *LabGame) Initialize() error {
	state := g.state()
	core.LogInfo("initializing %s with the %s experience", g.ApplicationConfig.Name, state.experience.Name())

	camera, err := g.SystemManager.CameraSystem.Acquire(state.cameraName)
	if err != nil {
		return err
	}
	state.camera = camera

	env := &Env{
		Graph:   g.SystemManager.SceneGraph,
		Bus:     g.Bus,
		Library: g.SystemManager.RigLibrary,
		Camera:  camera,
		Log:     core.Logger().With("experience", state.experience.Name()),
	}
	if err := state.experience.Setup(env); err != nil {
		g.SystemManager.CameraSystem.Release(state.cameraName)
		return err
	}
	if g.ApplicationConfig.Demo {
		state.script = DemoScript(state.experience.Name())
	}
	return nil
}

func (g *LabGame) Update(deltaTime float64) error {
	state := g.state()
	state.elapsed += deltaTime
	if state.script != nil {
		state.script.Advance(state.elapsed, g.Input, g.Bus)
	}
	return state.experience.Update(float32(deltaTime))
}

func (g *LabGame) Render(deltaTime float64) error {
	state := g.state()
	if err := state.experience.Render(); err != nil {
		// A node removed under the rig is reported but not fatal.
		core.LogWarn("render: %s", err.Error())
	}
	return nil
}

func (g *LabGame) OnReload(r *assets.Rig) error {
	return g.state().experience.Reload(r)
}

func (g *LabGame) Shutdown() error {
	state := g.state()
	state.experience.Dispose()
	if state.camera != nil {
		pos := state.camera.GetPosition()
		core.LogInfo("final camera position [%.3f, %.3f, %.3f]", pos.X, pos.Y, pos.Z)
		g.SystemManager.CameraSystem.Release(state.cameraName)
		state.camera = nil
	}
	return nil
}
