package engine

import (
	"io/fs"

	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/systems"
)

// Game is what an application hands to the engine. The engine fills in
// SystemManager, Bus and Input before calling FnInitialize.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	Bus               *core.EventBus
	Input             *core.Input
	// Rig files shipped with the game, used when no rig directory is set.
	EmbeddedRigs fs.FS
	State        interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnReload   OnReload
	FnShutdown   Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Render func(deltaTime float64) error
type OnReload func(r *assets.Rig) error
type Shutdown func() error
