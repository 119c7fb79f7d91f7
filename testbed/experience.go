package testbed

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/renderer/components"
	"github.com/spaghettifunk/labrig/engine/scene"
)

var ErrUnknownExperience = errors.New("unknown experience")

// Env is what an experience gets to work with. The graph and camera are
// owned by the game; experiences add their nodes and write poses.
type Env struct {
	Graph   *scene.Graph
	Bus     *core.EventBus
	Library *assets.Library
	Camera  *components.Camera
	Log     *log.Logger
}

// Experience is one page of the lab.
type Experience interface {
	Name() string
	Setup(env *Env) error
	Update(dt float32) error
	// Render writes the last update into the camera and scene graph.
	Render() error
	// Reload swaps in a rig that changed on disk. Rigs the experience does
	// not use are ignored.
	Reload(r *assets.Rig) error
	Dispose()
}

type experienceFactory func() Experience

var experiences = map[string]experienceFactory{
	"hub":    func() Experience { return NewHubExperience() },
	"watch":  func() Experience { return NewWatchExperience() },
	"shoe":   func() Experience { return NewShoeExperience() },
	"flight": func() Experience { return NewFlightExperience() },
}

// NewExperience creates the experience registered under name.
func NewExperience(name string) (Experience, error) {
	f, ok := experiences[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExperience, name)
	}
	return f(), nil
}

// ExperienceNames lists the registered experiences.
func ExperienceNames() []string {
	names := make([]string, 0, len(experiences))
	for name := range experiences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func requireRig(lib *assets.Library, name string) (*assets.Rig, error) {
	r, ok := lib.Get(name)
	if !ok {
		return nil, fmt.Errorf("rig %q not loaded", name)
	}
	return r, nil
}

type nodeSpec struct {
	name     string
	parent   string
	position math.Vec3
}

// addNodes adds nodes in order. A parent must be added before its children;
// an empty parent makes a root.
func addNodes(g *scene.Graph, nodes []nodeSpec) ([]scene.Handle, error) {
	handles := make([]scene.Handle, 0, len(nodes))
	for _, n := range nodes {
		parent := scene.InvalidHandle
		if n.parent != "" {
			h, ok := g.Lookup(n.parent)
			if !ok {
				removeNodes(g, handles)
				return nil, fmt.Errorf("node %s: parent %s not found", n.name, n.parent)
			}
			parent = h
		}
		h, err := g.Add(n.name, parent, n.position)
		if err != nil {
			removeNodes(g, handles)
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// removeNodes removes handles children first.
func removeNodes(g *scene.Graph, handles []scene.Handle) {
	for i := len(handles) - 1; i >= 0; i-- {
		_ = g.Remove(handles[i])
	}
}
