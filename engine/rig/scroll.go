package rig

import (
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
)

// DefaultScrollSmoothing is the damping rate of scroll progress.
const DefaultScrollSmoothing float32 = 8

// ScrollTracker turns wheel deltas into a damped progress in [0, 1]. Events
// write the target, the frame loop reads Progress once per frame.
type ScrollTracker struct {
	distance  float32
	offset    float32
	current   float32
	smoothing float32
}

// NewScrollTracker covers a track that is distance wheel units long.
func NewScrollTracker(distance, smoothing float32) *ScrollTracker {
	if distance <= 0 || !math.IsFinite(distance) {
		distance = 1
	}
	if smoothing <= 0 || !math.IsFinite(smoothing) {
		smoothing = DefaultScrollSmoothing
	}
	return &ScrollTracker{distance: distance, smoothing: smoothing}
}

// Scroll moves the target by delta wheel units.
func (s *ScrollTracker) Scroll(delta float32) {
	if !math.IsFinite(delta) {
		return
	}
	s.offset = math.Clamp(s.offset+delta, 0, s.distance)
}

// SetProgress jumps the target to p.
func (s *ScrollTracker) SetProgress(p float32) {
	if !math.IsFinite(p) {
		return
	}
	s.offset = math.Clamp(p, 0, 1) * s.distance
}

// Target is the undamped progress.
func (s *ScrollTracker) Target() float32 {
	return s.offset / s.distance
}

// Progress is the damped progress.
func (s *ScrollTracker) Progress() float32 {
	return s.current
}

// Update damps the progress toward the target and returns it.
func (s *ScrollTracker) Update(dt float32) float32 {
	if !math.IsFinite(s.current) {
		s.current = s.Target()
	}
	s.current = math.Clamp(math.Damp(s.current, s.Target(), s.smoothing, dt), 0, 1)
	return s.current
}

// Bind feeds mouse wheel events into the tracker.
func (s *ScrollTracker) Bind(sub *core.Subscription) {
	sub.On(core.EVENT_CODE_MOUSE_WHEEL, func(ctx core.EventContext) bool {
		if ev, ok := ctx.Data.(*core.MouseEvent); ok {
			s.Scroll(ev.Scroll)
		}
		return false
	})
}
