package rig

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/labrig/engine/containers"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/scene"
)

type ModeKind uint8

const (
	ModeIntro ModeKind = iota
	ModeHub
	ModeFocused
)

func (k ModeKind) String() string {
	switch k {
	case ModeIntro:
		return "intro"
	case ModeHub:
		return "hub"
	case ModeFocused:
		return "focused"
	default:
		return "unknown"
	}
}

// Mode is the current hub state. Only the machine can build a focused mode,
// so the target index always points at a registered target.
type Mode struct {
	Kind   ModeKind
	target int
}

// Target returns the focused target index.
func (m Mode) Target() (int, bool) {
	return m.target, m.Kind == ModeFocused
}

// CameraShot is a fixed camera position and look-at point.
type CameraShot struct {
	Position math.Vec3
	Look     math.Vec3
}

// FocusTarget is something the hub camera can fly to. Both anchors are scene
// nodes resolved every frame since they ride on the rotating hub.
type FocusTarget struct {
	ID           string
	CameraAnchor string
	LookAnchor   string
	CameraOffset math.Vec3
	LookOffset   math.Vec3
}

// HubRig configures the intro, hub and focus camera strategies.
type HubRig struct {
	Intro   CameraShot
	Hub     CameraShot
	Targets []FocusTarget
	Slots   []Slot
	// HubNode is the scene node the carousel rotation is applied to.
	HubNode string
	// Zero values fall back to the track camera smoothing and
	// DefaultHubSmoothing.
	CameraSmoothing   float32
	RotationSmoothing float32
}

type signalKind uint8

const (
	signalStart signalKind = iota
	signalSelect
	signalBack
	signalNext
	signalPrev
)

type signal struct {
	kind   signalKind
	target string
}

type focusTarget struct {
	FocusTarget
	camera anchor
	look   anchor
}

const signalQueueSize = 32

// ModeMachine is the Intro -> Hub <-> Focused state machine. Input listeners
// only queue signals; they are applied once per frame by the driver.
type ModeMachine struct {
	rig      HubRig
	index    map[string]int
	targets  []focusTarget
	hub      anchor
	mode     Mode
	carousel *Carousel
	pending  *containers.RingQueue[signal]
	wheel    float32
	drag     float32
	log      *log.Logger
}

// NewModeMachine validates rig and starts in Intro.
func NewModeMachine(rig HubRig) (*ModeMachine, error) {
	if !rig.Intro.Position.IsFinite() || !rig.Intro.Look.IsFinite() ||
		!rig.Hub.Position.IsFinite() || !rig.Hub.Look.IsFinite() {
		return nil, fmt.Errorf("%w: hub camera shots: %w", core.ErrInvalidTrack, core.ErrNonFinite)
	}
	if err := checkSmoothing("hub camera", rig.CameraSmoothing); err != nil {
		return nil, err
	}

	m := &ModeMachine{
		rig:      rig,
		index:    make(map[string]int, len(rig.Targets)),
		targets:  make([]focusTarget, len(rig.Targets)),
		hub:      anchor{name: rig.HubNode, handle: scene.InvalidHandle},
		mode:     Mode{Kind: ModeIntro},
		carousel: NewCarousel(rig.Slots, rig.RotationSmoothing),
		pending:  containers.NewRingQueue[signal](signalQueueSize),
		log:      core.Logger(),
	}
	for i, t := range rig.Targets {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: focus target %d has no id", core.ErrInvalidTrack, i)
		}
		if _, dup := m.index[t.ID]; dup {
			return nil, fmt.Errorf("%w: focus target %q declared twice", core.ErrInvalidTrack, t.ID)
		}
		m.index[t.ID] = i
		m.targets[i] = focusTarget{
			FocusTarget: t,
			camera:      anchor{name: t.CameraAnchor, handle: scene.InvalidHandle},
			look:        anchor{name: t.LookAnchor, handle: scene.InvalidHandle},
		}
	}
	return m, nil
}

func (m *ModeMachine) Mode() Mode {
	return m.mode
}

func (m *ModeMachine) Carousel() *Carousel {
	return m.carousel
}

// FocusedID returns the id of the focused target, or "" outside Focused.
func (m *ModeMachine) FocusedID() string {
	if i, ok := m.mode.Target(); ok {
		return m.targets[i].ID
	}
	return ""
}

// Start leaves the intro.
func (m *ModeMachine) Start() error {
	if m.mode.Kind != ModeIntro {
		return fmt.Errorf("%w: start from %s", core.ErrInvalidTransition, m.mode.Kind)
	}
	m.mode = Mode{Kind: ModeHub}
	return nil
}

// Select focuses a registered target from the hub.
func (m *ModeMachine) Select(id string) error {
	if m.mode.Kind != ModeHub {
		return fmt.Errorf("%w: select %q from %s", core.ErrInvalidTransition, id, m.mode.Kind)
	}
	i, ok := m.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownTarget, id)
	}
	m.mode = Mode{Kind: ModeFocused, target: i}
	return nil
}

// Back returns from a focused target to the hub.
func (m *ModeMachine) Back() error {
	if m.mode.Kind != ModeFocused {
		return fmt.Errorf("%w: back from %s", core.ErrInvalidTransition, m.mode.Kind)
	}
	m.mode = Mode{Kind: ModeHub}
	return nil
}

func (m *ModeMachine) post(s signal) bool {
	if err := m.pending.Enqueue(s); err != nil {
		m.log.Warn("dropping mode signal", "err", err)
		return false
	}
	return true
}

// bind registers the input listeners on sub.
func (m *ModeMachine) bind(sub *core.Subscription) {
	sub.On(core.EVENT_CODE_EXPERIENCE_START, func(core.EventContext) bool {
		return m.post(signal{kind: signalStart})
	})
	sub.On(core.EVENT_CODE_TARGET_SELECTED, func(ctx core.EventContext) bool {
		ev, ok := ctx.Data.(*core.SelectEvent)
		if !ok {
			return false
		}
		return m.post(signal{kind: signalSelect, target: ev.Target})
	})
	sub.On(core.EVENT_CODE_BACK, func(core.EventContext) bool {
		return m.post(signal{kind: signalBack})
	})
	sub.On(core.EVENT_CODE_SLOT_NEXT, func(core.EventContext) bool {
		return m.post(signal{kind: signalNext})
	})
	sub.On(core.EVENT_CODE_SLOT_PREV, func(core.EventContext) bool {
		return m.post(signal{kind: signalPrev})
	})
	sub.On(core.EVENT_CODE_KEY_PRESSED, func(ctx core.EventContext) bool {
		ev, ok := ctx.Data.(*core.KeyEvent)
		if !ok {
			return false
		}
		switch ev.KeyCode {
		case core.KEY_ENTER:
			m.post(signal{kind: signalStart})
		case core.KEY_ESCAPE, core.KEY_BACKSPACE:
			m.post(signal{kind: signalBack})
		case core.KEY_RIGHT, core.KEY_D:
			m.post(signal{kind: signalNext})
		case core.KEY_LEFT, core.KEY_A:
			m.post(signal{kind: signalPrev})
		}
		// Keys stay visible to other listeners.
		return false
	})
	sub.On(core.EVENT_CODE_MOUSE_WHEEL, func(ctx core.EventContext) bool {
		if ev, ok := ctx.Data.(*core.MouseEvent); ok && m.acceptsInput() && math.IsFinite(ev.Scroll) {
			m.wheel += ev.Scroll
		}
		return false
	})
	sub.On(core.EVENT_CODE_POINTER_DRAG, func(ctx core.EventContext) bool {
		if ev, ok := ctx.Data.(*core.DragEvent); ok && m.acceptsInput() && math.IsFinite(ev.DeltaX) {
			m.drag += ev.DeltaX
		}
		return false
	})
}

// acceptsInput reports whether wheel and drag turn the hub.
func (m *ModeMachine) acceptsInput() bool {
	return m.mode.Kind == ModeHub
}

// drain applies queued signals in arrival order, then the continuous wheel
// and drag input gathered while the hub was accepting it.
func (m *ModeMachine) drain() {
	for !m.pending.IsEmpty() {
		s, err := m.pending.Dequeue()
		if err != nil {
			break
		}
		switch s.kind {
		case signalStart:
			err = m.Start()
		case signalSelect:
			err = m.Select(s.target)
		case signalBack:
			err = m.Back()
		case signalNext:
			if m.mode.Kind == ModeHub {
				m.carousel.Next()
			}
		case signalPrev:
			if m.mode.Kind == ModeHub {
				m.carousel.Prev()
			}
		}
		if err != nil {
			m.log.Debug("ignoring mode signal", "err", err)
		}
	}

	if m.acceptsInput() {
		m.carousel.Wheel(m.wheel)
		m.carousel.Drag(m.drag)
	}
	m.wheel, m.drag = 0, 0
}

// shot resolves the camera position and look target for the current mode.
func (m *ModeMachine) shot(r AnchorResolver, l *log.Logger) CameraShot {
	switch m.mode.Kind {
	case ModeIntro:
		return m.rig.Intro
	case ModeFocused:
		t := &m.targets[m.mode.target]
		return CameraShot{
			Position: t.camera.position(r, m.rig.Hub.Position, l).Add(t.CameraOffset),
			Look:     t.look.position(r, m.rig.Hub.Look, l).Add(t.LookOffset),
		}
	default:
		return m.rig.Hub
	}
}

// hubHandle returns the node the carousel rotation is written to.
func (m *ModeMachine) hubHandle(r AnchorResolver) (scene.Handle, bool) {
	if m.rig.HubNode == "" || !m.hub.lookup(r) {
		return scene.InvalidHandle, false
	}
	return m.hub.handle, true
}
