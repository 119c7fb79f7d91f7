package testbed

import (
	"slices"

	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/rig"
	"github.com/spaghettifunk/labrig/engine/scene"
)

const (
	watchRigName = "watch"

	// The watch page scrolls through ten viewport heights.
	watchPages     = 10
	viewportHeight = 720
)

func watchNodes() []nodeSpec {
	return []nodeSpec{
		{name: "Watch"},
		{name: "Case", parent: "Watch"},
		{name: "Glass", parent: "Watch"},
		{name: "Dial", parent: "Watch"},
		{name: "HourHand", parent: "Watch"},
		{name: "MinuteHand", parent: "Watch"},
		{name: "Mechanism", parent: "Watch"},
		{name: "Knob", parent: "Watch", position: math.NewVec3(1.1, 0, 0)},
	}
}

// WatchExperience scrolls an exploded view of the Chronos watch.
type WatchExperience struct {
	env      *Env
	nodes    []scene.Handle
	sub      *core.Subscription
	scroll   *rig.ScrollTracker
	driver   *rig.Driver
	frame    rig.Frame
	sections []string
}

func NewWatchExperience() *WatchExperience {
	return &WatchExperience{}
}

func (w *WatchExperience) Name() string {
	return watchRigName
}

func (w *WatchExperience) Setup(env *Env) error {
	w.env = env
	r, err := requireRig(env.Library, watchRigName)
	if err != nil {
		return err
	}
	w.nodes, err = addNodes(env.Graph, watchNodes())
	if err != nil {
		return err
	}

	w.driver = rig.NewDriver(env.Graph, rig.WithLogger(env.Log.With("experience", watchRigName)))
	if err := w.driver.Configure(r.Track); err != nil {
		return err
	}
	w.scroll = rig.NewScrollTracker((watchPages-1)*viewportHeight, rig.DefaultScrollSmoothing)
	w.sub = core.NewSubscription(env.Bus)
	w.scroll.Bind(w.sub)
	return nil
}

// Scroll exposes the progress source, mostly for scripted input.
func (w *WatchExperience) Scroll() *rig.ScrollTracker {
	return w.scroll
}

func (w *WatchExperience) Frame() rig.Frame {
	return w.frame
}

func (w *WatchExperience) Update(dt float32) error {
	progress := w.scroll.Update(dt)
	w.frame = w.driver.Update(progress, dt)
	return nil
}

func (w *WatchExperience) Render() error {
	if err := w.driver.Apply(w.frame, w.env.Camera, w.env.Graph); err != nil {
		return err
	}
	if !slices.Equal(w.sections, w.frame.Sections) {
		w.env.Log.Info("overlay", "progress", w.frame.Progress, "keyframe", w.frame.Keyframe, "sections", w.frame.Sections)
		w.sections = append(w.sections[:0], w.frame.Sections...)
	}
	return nil
}

func (w *WatchExperience) Reload(r *assets.Rig) error {
	if r.Name != watchRigName {
		return nil
	}
	pose := w.frame.Pose
	if err := w.driver.Configure(r.Track); err != nil {
		return err
	}
	w.driver.Reset(pose)
	return nil
}

func (w *WatchExperience) Dispose() {
	if w.env == nil {
		return
	}
	if w.sub != nil {
		w.sub.Close()
	}
	if w.driver != nil {
		w.driver.Dispose()
	}
	removeNodes(w.env.Graph, w.nodes)
	w.nodes = nil
}
