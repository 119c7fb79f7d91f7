package systems

import (
	"context"
	"io/fs"

	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/scene"
)

// SystemManagerConfig configures the systems the engine owns.
type SystemManagerConfig struct {
	MaxCameraCount uint16
	// RigDir is loaded from disk when set; otherwise EmbeddedRigs is used.
	RigDir       string
	EmbeddedRigs fs.FS
	// WatchRigs reloads files from RigDir when they change.
	WatchRigs bool
}

type SystemManager struct {
	CameraSystem *CameraSystem
	SceneGraph   *scene.Graph
	RigLibrary   *assets.Library

	config  SystemManagerConfig
	watcher *assets.Watcher
}

func NewSystemManager(config SystemManagerConfig) (*SystemManager, error) {
	if config.MaxCameraCount == 0 {
		config.MaxCameraCount = 16
	}
	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: config.MaxCameraCount,
	})
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		CameraSystem: cs,
		SceneGraph:   scene.NewGraph(),
		RigLibrary:   assets.NewLibrary(config.RigDir),
		config:       config,
	}, nil
}

// Initialize loads the rig library and starts the watcher if requested. The
// watcher stops when ctx is cancelled or on Shutdown.
func (sm *SystemManager) Initialize(ctx context.Context) error {
	if sm.config.EmbeddedRigs != nil {
		if err := sm.RigLibrary.LoadFS(ctx, sm.config.EmbeddedRigs); err != nil {
			return err
		}
	}
	if sm.config.RigDir == "" {
		return nil
	}
	// Files on disk override embedded rigs of the same name.
	if err := sm.RigLibrary.LoadAll(ctx); err != nil {
		return err
	}
	if !sm.config.WatchRigs {
		return nil
	}
	w, err := assets.NewWatcher(sm.RigLibrary)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return err
	}
	sm.watcher = w
	core.LogInfo("watching rig directory %s", sm.config.RigDir)
	return nil
}

// Reloads yields rigs reloaded from disk. It is nil, and so never ready, when
// nothing is being watched.
func (sm *SystemManager) Reloads() <-chan *assets.Rig {
	if sm.watcher == nil {
		return nil
	}
	return sm.watcher.Reloads()
}

func (sm *SystemManager) Shutdown() error {
	if sm.watcher != nil {
		if err := sm.watcher.Close(); err != nil {
			return err
		}
		sm.watcher = nil
	}
	return sm.CameraSystem.Shutdown()
}
