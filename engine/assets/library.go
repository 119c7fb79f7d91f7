package assets

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/rig"
)

// loadConcurrency bounds the number of files decoded at once.
const loadConcurrency = 4

// Rig is one loaded rig file.
type Rig struct {
	Name     string
	Path     string
	Track    rig.Track
	Hub      *rig.HubRig
	LoadedAt time.Time
}

// Library indexes the rig files of a directory by name. It is safe for
// concurrent use; the watcher loads into it from its own goroutine.
type Library struct {
	dir string

	mutex sync.RWMutex
	rigs  map[string]*Rig
	paths map[string]string
}

func NewLibrary(dir string) *Library {
	return &Library{
		dir:   dir,
		rigs:  make(map[string]*Rig),
		paths: make(map[string]string),
	}
}

func (l *Library) Dir() string {
	return l.dir
}

// IsRigFile reports whether path has a rig file extension.
func IsRigFile(path string) bool {
	_, err := FormatFromPath(path)
	return err == nil
}

// LoadAll loads every rig file in the library directory. The first failure
// cancels the rest and is returned.
func (l *Library) LoadAll(ctx context.Context) error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for _, entry := range entries {
		if entry.IsDir() || !IsRigFile(entry.Name()) {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := l.Load(path)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	core.LogInfo("rig library loaded dir=%s rigs=%d", l.dir, l.Len())
	return nil
}

// LoadFS loads every rig file at the root of fsys, typically rigs embedded
// in the binary. Paths recorded for these rigs are relative to fsys.
func (l *Library) LoadFS(ctx context.Context, fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for _, entry := range entries {
		if entry.IsDir() || !IsRigFile(entry.Name()) {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return err
			}
			f, err := ParseRigFile(name, data)
			if err != nil {
				return err
			}
			_, err = l.store(name, f)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	core.LogDebug("embedded rigs loaded rigs=%d", l.Len())
	return nil
}

// Load reads one file and stores it under its rig name.
func (l *Library) Load(path string) (*Rig, error) {
	f, err := LoadRigFile(path)
	if err != nil {
		return nil, err
	}
	return l.store(path, f)
}

func (l *Library) store(path string, f *RigFile) (*Rig, error) {
	track, err := f.Track()
	if err != nil {
		return nil, err
	}
	r := &Rig{
		Name:     f.Name,
		Path:     path,
		Track:    track,
		LoadedAt: time.Now(),
	}
	if hub, ok := f.HubRig(); ok {
		r.Hub = &hub
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.rigs[r.Name] = r
	l.paths[filepath.Clean(path)] = r.Name
	return r, nil
}

func (l *Library) Get(name string) (*Rig, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	r, ok := l.rigs[name]
	return r, ok
}

// Remove forgets the rig loaded from path.
func (l *Library) Remove(path string) (string, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	key := filepath.Clean(path)
	name, ok := l.paths[key]
	if !ok {
		return "", false
	}
	delete(l.paths, key)
	delete(l.rigs, name)
	return name, true
}

// Names lists the loaded rigs in order.
func (l *Library) Names() []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	names := make([]string, 0, len(l.rigs))
	for name := range l.rigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Library) Len() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.rigs)
}

func nameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
