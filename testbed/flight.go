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
	flightRigName = "flight"

	flightPages = 5
)

func flightNodes() []nodeSpec {
	return []nodeSpec{
		{name: "Ship"},
		{name: "Rocket", parent: "Ship", position: math.NewVec3(0, -1.2, -5)},
		{name: "Sabrebats", position: math.NewVec3(0, -26, -15)},
		{name: "Atlas", position: math.NewVec3(0, -50, -15)},
		{name: "Sentry", position: math.NewVec3(0, -75, -15)},
	}
}

// FlightExperience flies the camera down past the agency's projects. The
// rocket rides along at the camera height.
type FlightExperience struct {
	env      *Env
	nodes    []scene.Handle
	ship     scene.Handle
	sub      *core.Subscription
	scroll   *rig.ScrollTracker
	driver   *rig.Driver
	frame    rig.Frame
	sections []string
}

func NewFlightExperience() *FlightExperience {
	return &FlightExperience{ship: scene.InvalidHandle}
}

func (f *FlightExperience) Name() string {
	return flightRigName
}

func (f *FlightExperience) Setup(env *Env) error {
	f.env = env
	r, err := requireRig(env.Library, flightRigName)
	if err != nil {
		return err
	}
	f.nodes, err = addNodes(env.Graph, flightNodes())
	if err != nil {
		return err
	}
	f.ship = f.nodes[0]

	f.driver = rig.NewDriver(env.Graph, rig.WithLogger(env.Log.With("experience", flightRigName)))
	if err := f.driver.Configure(r.Track); err != nil {
		return err
	}
	f.scroll = rig.NewScrollTracker((flightPages-1)*viewportHeight, rig.DefaultScrollSmoothing)
	f.sub = core.NewSubscription(env.Bus)
	f.scroll.Bind(f.sub)
	return nil
}

func (f *FlightExperience) Scroll() *rig.ScrollTracker {
	return f.scroll
}

func (f *FlightExperience) Frame() rig.Frame {
	return f.frame
}

func (f *FlightExperience) Update(dt float32) error {
	progress := f.scroll.Update(dt)
	f.frame = f.driver.Update(progress, dt)
	return nil
}

func (f *FlightExperience) Render() error {
	if err := f.driver.Apply(f.frame, f.env.Camera, f.env.Graph); err != nil {
		return err
	}
	if err := f.env.Graph.SetOffset(f.ship, math.NewVec3Up(), f.frame.Pose.Position.Y); err != nil {
		return err
	}
	if !slices.Equal(f.sections, f.frame.Sections) {
		f.env.Log.Info("overlay", "progress", f.frame.Progress, "sections", f.frame.Sections)
		f.sections = append(f.sections[:0], f.frame.Sections...)
	}
	return nil
}

func (f *FlightExperience) Reload(r *assets.Rig) error {
	if r.Name != flightRigName {
		return nil
	}
	pose := f.frame.Pose
	if err := f.driver.Configure(r.Track); err != nil {
		return err
	}
	f.driver.Reset(pose)
	return nil
}

func (f *FlightExperience) Dispose() {
	if f.env == nil {
		return
	}
	if f.sub != nil {
		f.sub.Close()
	}
	if f.driver != nil {
		f.driver.Dispose()
	}
	removeNodes(f.env.Graph, f.nodes)
	f.nodes = nil
	f.ship = scene.InvalidHandle
}
