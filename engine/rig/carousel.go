package rig

import (
	"fmt"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
)

const (
	// WheelRotationScale converts wheel delta into hub radians.
	WheelRotationScale float32 = 0.0005
	// DragRotationScale converts horizontal drag pixels into hub radians.
	DragRotationScale float32 = -0.005
	// DefaultHubSmoothing is the damping rate of the displayed hub rotation.
	DefaultHubSmoothing float32 = 4
)

// Slot is a named stop on the hub carousel.
type Slot struct {
	Name  string
	Angle float32
}

// Carousel accumulates hub rotation from wheel, drag and slot navigation and
// damps the displayed rotation toward it.
type Carousel struct {
	slots     []Slot
	target    float32
	display   float32
	smoothing float32
}

func NewCarousel(slots []Slot, smoothing float32) *Carousel {
	if smoothing <= 0 || !math.IsFinite(smoothing) {
		smoothing = DefaultHubSmoothing
	}
	return &Carousel{
		slots:     append([]Slot(nil), slots...),
		smoothing: smoothing,
	}
}

func (c *Carousel) Slots() []Slot {
	return c.slots
}

// Rotation is the accumulated target rotation. It is not wrapped.
func (c *Carousel) Rotation() float32 {
	return c.target
}

// Displayed is the damped rotation to put on the hub group.
func (c *Carousel) Displayed() float32 {
	return c.display
}

func (c *Carousel) SetRotation(r float32) {
	if math.IsFinite(r) {
		c.target = r
	}
}

// Snap makes the displayed rotation jump to the target.
func (c *Carousel) Snap() {
	c.display = c.target
}

// NearestTo returns the slot closest to rotation on the circle, or -1 when
// there are no slots.
func (c *Carousel) NearestTo(rotation float32) int {
	best := -1
	bestDist := float32(0)
	for i, s := range c.slots {
		d := math.CircularDistance(rotation, s.Angle)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Nearest returns the slot closest to the current target rotation.
func (c *Carousel) Nearest() int {
	return c.NearestTo(c.target)
}

// Current returns the nearest slot.
func (c *Carousel) Current() (Slot, bool) {
	i := c.Nearest()
	if i < 0 {
		return Slot{}, false
	}
	return c.slots[i], true
}

// RotateTo turns toward slot i the short way around.
func (c *Carousel) RotateTo(i int) error {
	if i < 0 || i >= len(c.slots) {
		return fmt.Errorf("%w: slot %d of %d", core.ErrUnknownTarget, i, len(c.slots))
	}
	c.target += math.ShortestAngleDelta(c.target, c.slots[i].Angle)
	return nil
}

func (c *Carousel) Next() {
	if n := len(c.slots); n > 0 {
		_ = c.RotateTo((c.Nearest() + 1) % n)
	}
}

func (c *Carousel) Prev() {
	if n := len(c.slots); n > 0 {
		_ = c.RotateTo((c.Nearest() - 1 + n) % n)
	}
}

func (c *Carousel) Wheel(deltaY float32) {
	if math.IsFinite(deltaY) {
		c.target += deltaY * WheelRotationScale
	}
}

func (c *Carousel) Drag(deltaX float32) {
	if math.IsFinite(deltaX) {
		c.target += deltaX * DragRotationScale
	}
}

// Update damps the displayed rotation and returns it.
func (c *Carousel) Update(dt float32) float32 {
	if !math.IsFinite(c.display) {
		c.display = c.target
	}
	c.display = math.Damp(c.display, c.target, c.smoothing, dt)
	return c.display
}
