package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/labrig/engine/core"
)

const reloadBuffer = 8

// Watcher reloads rig files into a Library when they change on disk. Reloaded
// rigs are handed to the frame loop through Reloads, which must be drained
// without blocking.
type Watcher struct {
	library  *Library
	fsnotify *fsnotify.Watcher

	reloads chan *Rig
	errors  chan error
	done    chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewWatcher(library *Library) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		library:  library,
		fsnotify: fsWatch,
		reloads:  make(chan *Rig, reloadBuffer),
		errors:   make(chan error, reloadBuffer),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the library directory until ctx is cancelled or Close is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsnotify.Add(w.library.Dir()); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

func (w *Watcher) Reloads() <-chan *Rig {
	return w.reloads
}

func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsnotify.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handleEvent(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("rig watcher: %s", err.Error())
			w.sendError(err)

		case <-ctx.Done():
			_ = w.fsnotify.Close()
			return

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(e fsnotify.Event) {
	if !IsRigFile(e.Name) {
		return
	}
	if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
		return
	}

	// Editors often replace the file, so a rename or remove just drops the
	// entry and the following create loads it again.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if name, ok := w.library.Remove(e.Name); ok {
			core.LogDebug("rig removed name=%s path=%s", name, e.Name)
		}
		return
	}

	if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	r, err := w.library.Load(e.Name)
	if err != nil {
		// A half-written file fails to decode; the next write retries.
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		core.LogWarn("rig reload failed path=%s err=%s", filepath.Base(e.Name), err.Error())
		w.sendError(err)
		return
	}

	select {
	case w.reloads <- r:
		core.LogInfo("rig reloaded name=%s", r.Name)
	default:
		core.LogWarn("reload queue full, dropping name=%s", r.Name)
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}
