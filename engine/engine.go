package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine has shut down and cannot be restarted
	EngineStageStopped
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	case EngineStageStopped:
		return "stopped"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// metricsLogInterval is how many frames pass between two metrics log lines.
const metricsLogInterval = 300

// Engine owns the frame loop. There is no window: frames are paced by a
// ticker and the game renders by writing poses into cameras and the scene
// graph.
type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     bool
	bus           *core.EventBus
	input         *core.Input
	systemManager *systems.SystemManager
	clock         *core.Clock
	metrics       *core.Metrics
	frameCount    uint64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("engine: game and application config are required")
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		return nil, err
	}
	core.SetLogLevel(g.ApplicationConfig.Level())

	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		MaxCameraCount: g.ApplicationConfig.MaxCameraCount,
		RigDir:         g.ApplicationConfig.RigDir,
		EmbeddedRigs:   g.EmbeddedRigs,
		WatchRigs:      g.ApplicationConfig.WatchRigs,
	})
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	bus := core.NewEventBus()
	g.SystemManager = sm
	g.Bus = bus
	g.Input = core.NewInput(bus)

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		bus:           bus,
		input:         g.Input,
		systemManager: sm,
		clock:         core.NewClock(),
		metrics:       core.NewMetrics(),
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Metrics returns the frame metrics of the running loop.
func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

func (e *Engine) Initialize(ctx context.Context) error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine: initialize while %s", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	// register some events
	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	e.bus.Register(core.EVENT_CODE_KEY_PRESSED, e.onKey)

	if err := e.systemManager.Initialize(ctx); err != nil {
		return err
	}
	core.LogInfo("rigs available: %v", e.systemManager.RigLibrary.Names())

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives frames until ctx is cancelled, the application quits, or the
// configured frame limit is reached.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine: run while %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	config := e.gameInstance.ApplicationConfig
	targetFrameSeconds := 1.0 / float64(config.TargetFPS)
	ticker := time.NewTicker(time.Duration(targetFrameSeconds * float64(time.Second)))
	defer ticker.Stop()

	e.clock.Start()

	for e.isRunning {
		select {
		case <-ctx.Done():
			core.LogInfo("context cancelled, leaving the frame loop")
			e.isRunning = false
			continue
		case <-ticker.C:
		}

		frameStartTime := time.Now()
		e.clock.Update()
		delta := e.clock.Tick(config.MaxDelta)

		if err := e.drainReloads(); err != nil {
			core.LogError("Rig reload failed: %s", err.Error())
		}

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("Game update failed, shutting down.")
				e.isRunning = false
				return err
			}
		}

		// Call the game's render routine.
		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(delta); err != nil {
				core.LogError("Game render failed, shutting down.")
				e.isRunning = false
				return err
			}
		}

		e.metrics.Update(time.Since(frameStartTime).Seconds())
		e.frameCount++
		if e.frameCount%metricsLogInterval == 0 {
			fps, avg := e.metrics.Frame()
			core.LogDebug("frame=%d fps=%.1f avg_ms=%.3f elapsed=%.2fs", e.frameCount, fps, avg, e.clock.Elapsed())
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		e.input.Update(delta)

		if config.MaxFrames > 0 && e.frameCount >= config.MaxFrames {
			core.LogInfo("frame limit reached after %d frames", e.frameCount)
			e.isRunning = false
		}
	}
	return nil
}

// FrameCount is the number of frames run so far.
func (e *Engine) FrameCount() uint64 {
	return e.frameCount
}

// drainReloads hands every pending reload to the game without blocking.
func (e *Engine) drainReloads() error {
	var errs []error
	for {
		select {
		case r := <-e.systemManager.Reloads():
			e.bus.Fire(core.EventContext{
				Type: core.EVENT_CODE_RIG_RELOADED,
				Data: &core.ReloadEvent{Name: r.Name, Path: r.Path},
			})
			if e.gameInstance.FnOnReload != nil {
				if err := e.gameInstance.FnOnReload(r); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
				}
			}
		default:
			return errors.Join(errs...)
		}
	}
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageStopped {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.clock.Stop()

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.systemManager.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	e.currentStage = EngineStageStopped
	core.LogInfo("engine stopped after %d frames", e.frameCount)
	return errors.Join(errs...)
}

func (e *Engine) onEvent(ev core.EventContext) bool {
	switch ev.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(ev core.EventContext) bool {
	ke, ok := ev.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", ev.Type)
		return false
	}
	if ke.KeyCode == core.KEY_Q {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		// Block anything else from processing this.
		return true
	}
	return false
}
