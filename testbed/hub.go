package testbed

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/rig"
	"github.com/spaghettifunk/labrig/engine/scene"
)

const (
	hubRigName = "hub"

	// Arcade cabinets stand on a ring around the hub centre, one every 45°.
	cabinetCount  = 8
	hitBoxRadius  = 5.437
	hitBoxHeight  = 1.607
	cameraRadius  = 3.6
	cameraHeight  = 1.9
	cabinetSpread = math.K_PI / 4
)

func hubNodes() []nodeSpec {
	nodes := []nodeSpec{{name: "Hub"}}
	for i := 0; i < cabinetCount; i++ {
		angle := float32(i) * cabinetSpread
		dir := math.NewVec3(math32.Cos(angle), 0, math32.Sin(angle))
		nodes = append(nodes,
			nodeSpec{
				name:     fmt.Sprintf("HitBox_%02d", i+1),
				parent:   "Hub",
				position: dir.MulScalar(hitBoxRadius).Add(math.NewVec3(0, hitBoxHeight, 0)),
			},
			nodeSpec{
				name:     fmt.Sprintf("cam_%02d", i+1),
				parent:   "Hub",
				position: dir.MulScalar(cameraRadius).Add(math.NewVec3(0, cameraHeight, 0)),
			},
		)
	}
	return nodes
}

type hubStatus struct {
	mode  rig.ModeKind
	slot  int
	focus string
}

// HubExperience is the lab lobby: an intro shot, then a carousel of arcade
// cabinets that can be focused one at a time.
type HubExperience struct {
	env    *Env
	nodes  []scene.Handle
	driver *rig.Driver
	frame  rig.Frame
	status hubStatus
}

func NewHubExperience() *HubExperience {
	return &HubExperience{status: hubStatus{slot: -1}}
}

func (h *HubExperience) Name() string {
	return hubRigName
}

func (h *HubExperience) Setup(env *Env) error {
	h.env = env
	r, err := requireRig(env.Library, hubRigName)
	if err != nil {
		return err
	}
	handles, err := addNodes(env.Graph, hubNodes())
	if err != nil {
		return err
	}
	h.nodes = handles
	return h.install(r)
}

// install builds a driver for r and hands it the input bus.
func (h *HubExperience) install(r *assets.Rig) error {
	if r.Hub == nil {
		return fmt.Errorf("rig %s has no hub section", r.Name)
	}
	modes, err := rig.NewModeMachine(*r.Hub)
	if err != nil {
		return err
	}
	driver := rig.NewDriver(h.env.Graph,
		rig.WithModes(modes),
		rig.WithLogger(h.env.Log.With("experience", hubRigName)),
	)
	if err := driver.Configure(r.Track); err != nil {
		return err
	}
	if err := driver.Bind(h.env.Bus); err != nil {
		return err
	}

	if h.driver != nil {
		// Carry the camera and carousel over so a reload does not jump.
		prev := h.driver.Modes().Carousel()
		modes.Carousel().SetRotation(prev.Rotation())
		driver.Reset(h.frame.Pose)
		h.driver.Dispose()
	}
	h.driver = driver
	return nil
}

func (h *HubExperience) Update(dt float32) error {
	h.frame = h.driver.Update(0, dt)
	return nil
}

func (h *HubExperience) Render() error {
	if err := h.driver.Apply(h.frame, h.env.Camera, h.env.Graph); err != nil {
		return err
	}
	h.report()
	return nil
}

// report logs what the interface would show when it changes.
func (h *HubExperience) report() {
	modes := h.driver.Modes()
	next := hubStatus{
		mode:  h.frame.Mode.Kind,
		slot:  modes.Carousel().Nearest(),
		focus: modes.FocusedID(),
	}
	if next == h.status {
		return
	}
	l := h.env.Log
	if next.mode != h.status.mode {
		l.Info("mode changed", "from", h.status.mode, "to", next.mode, "target", next.focus)
	}
	if next.mode == rig.ModeHub && next.slot != h.status.slot {
		if s, ok := modes.Carousel().Current(); ok {
			l.Info("carousel", "slot", s.Name, "index", next.slot)
		}
	}
	h.status = next
}

// Frame returns the frame of the last update.
func (h *HubExperience) Frame() rig.Frame {
	return h.frame
}

// Modes exposes the hub state machine.
func (h *HubExperience) Modes() *rig.ModeMachine {
	return h.driver.Modes()
}

func (h *HubExperience) Reload(r *assets.Rig) error {
	if r.Name != hubRigName {
		return nil
	}
	mode := h.driver.Modes().Mode().Kind
	focused := h.driver.Modes().FocusedID()
	if err := h.install(r); err != nil {
		return err
	}
	// The new machine starts at the intro; skip it again if we were past it.
	if mode == rig.ModeIntro {
		return nil
	}
	modes := h.driver.Modes()
	if err := modes.Start(); err != nil {
		return err
	}
	if focused != "" {
		if err := modes.Select(focused); err != nil {
			// The target is gone from the new rig, stay on the hub.
			h.env.Log.Warn("focus target dropped by reload", "target", focused, "err", err)
		}
	}
	return nil
}

func (h *HubExperience) Dispose() {
	if h.env == nil {
		return
	}
	if h.driver != nil {
		h.driver.Dispose()
	}
	removeNodes(h.env.Graph, h.nodes)
	h.nodes = nil
}
