package rig

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/scene"
)

// AnchorResolver gives read access to named scene nodes.
type AnchorResolver interface {
	Lookup(name string) (scene.Handle, bool)
	WorldPosition(h scene.Handle) (math.Vec3, bool)
}

// PoseSink receives the camera pose, usually a camera component.
type PoseSink interface {
	SetPose(position math.Vec3, orientation math.Quaternion)
}

// OffsetSink receives part displacements, usually the scene graph.
type OffsetSink interface {
	SetOffset(h scene.Handle, axis math.Vec3, offset float32) error
	SetAngle(h scene.Handle, axis math.Vec3, angle float32) error
}

// PartOffset is the output of one part for a frame. Node is InvalidHandle
// until the part's node has been found in the scene graph.
type PartOffset struct {
	Part   string
	Node   scene.Handle
	Axis   math.Vec3
	Mode   PartMode
	Offset float32
	// Spin is the accumulated spin angle in [0, 2π).
	Spin float32
}

// Value is what gets written to the node: the offset, plus the spin for
// rotate parts.
func (o PartOffset) Value() float32 {
	if o.Mode == PartRotate {
		return o.Offset + o.Spin
	}
	return o.Offset
}

// Frame is the result of one Update. Offsets and Sections are reused by the
// next Update; copy them to keep them.
type Frame struct {
	// Pose is the damped camera pose and Target the raw pose it chases.
	Pose   Pose
	Target Pose

	Offsets []PartOffset

	// Active is the selected keyframe index, -1 when the track has none.
	Active   int
	Keyframe string
	// T is the eased local time inside the active keyframe.
	T        float32
	Progress float32

	Mode        Mode
	HubRotation float32
	Sections    []string
}

// Driver maps scroll progress and frame time to a damped camera pose and
// exploded part offsets. It is single threaded: Update, Reset and Apply are
// meant to be called from the frame loop.
type Driver struct {
	id  uuid.UUID
	log *log.Logger

	resolver     AnchorResolver
	up           math.Vec3
	fallbackLook math.Vec3
	maxDelta     float32
	modes        *ModeMachine
	sub          *core.Subscription

	track    *compiledTrack
	primed   bool
	disposed bool

	lastProgress float32
	current      Pose
	target       Pose
	frame        Frame
	offsets      []PartOffset
	sections     []string
}

type Option func(*Driver)

// WithMaxDelta caps dt, in seconds.
func WithMaxDelta(seconds float32) Option {
	return func(d *Driver) {
		if seconds > 0 && math.IsFinite(seconds) {
			d.maxDelta = seconds
		}
	}
}

// WithUp sets the camera up vector used by look-at.
func WithUp(up math.Vec3) Option {
	return func(d *Driver) {
		if up.IsFinite() && up.LengthSquared() > 0 {
			d.up = up.Normalized()
		}
	}
}

// WithFallbackLook is where the camera looks when a look anchor has never
// resolved.
func WithFallbackLook(p math.Vec3) Option {
	return func(d *Driver) {
		if p.IsFinite() {
			d.fallbackLook = p
		}
	}
}

// WithModes lets a hub state machine supply the camera target.
func WithModes(m *ModeMachine) Option {
	return func(d *Driver) {
		d.modes = m
	}
}

func WithLogger(l *log.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDriver creates a driver reading anchors from resolver, which may be nil
// when the track uses no anchors.
func NewDriver(resolver AnchorResolver, opts ...Option) *Driver {
	d := &Driver{
		id:           uuid.New(),
		log:          core.Logger(),
		resolver:     resolver,
		up:           math.NewVec3Up(),
		fallbackLook: math.NewVec3Forward(),
		maxDelta:     DefaultMaxDelta,
		current:      Pose{Orientation: math.NewQuatIdentity()},
		target:       Pose{Orientation: math.NewQuatIdentity()},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("driver", d.id.String()[:8])
	d.frame = Frame{Pose: d.current, Target: d.target, Active: -1}
	if d.modes != nil {
		d.modes.log = d.log
	}
	return d
}

func (d *Driver) ID() uuid.UUID {
	return d.id
}

func (d *Driver) Modes() *ModeMachine {
	return d.modes
}

// Frame returns the last frame produced by Update.
func (d *Driver) Frame() Frame {
	return d.frame
}

// Configure validates and installs track. Anchor and part nodes are looked up
// once here; names not yet in the scene graph are retried on later frames. The
// next Update snaps to its targets unless Reset is called first.
func (d *Driver) Configure(track Track) error {
	if d.disposed {
		return core.ErrDisposed
	}
	ct, err := compileTrack(track)
	if err != nil {
		return err
	}

	var missing []string
	for i := range ct.keyframes {
		kf := &ct.keyframes[i]
		for _, a := range []*anchor{kf.posAnchor, kf.lookAnchor} {
			if a != nil && !a.lookup(d.resolver) {
				missing = append(missing, a.name)
			}
		}
	}
	d.offsets = make([]PartOffset, len(ct.parts))
	for i := range ct.parts {
		p := &ct.parts[i]
		if !p.node.lookup(d.resolver) {
			missing = append(missing, p.node.name)
		}
		d.offsets[i] = PartOffset{
			Part:   p.spec.Name,
			Node:   p.node.handle,
			Axis:   p.axis,
			Mode:   p.spec.Mode,
			Offset: p.current,
		}
	}
	if len(missing) > 0 {
		d.log.Debug("nodes not in scene yet, resolving lazily", "nodes", missing)
	}

	d.track = ct
	d.primed = false
	d.sections = make([]string, 0, len(ct.sections))
	d.log.Info("track configured", "track", ct.name, "keyframes", len(ct.keyframes), "parts", len(ct.parts))
	return nil
}

func (d *Driver) sanitize(progress, dt float32) (float32, float32) {
	if !math.IsFinite(progress) {
		d.log.Debug("non-finite progress, holding last", "progress", progress)
		progress = d.lastProgress
	}
	progress = math.Clamp(progress, 0, 1)
	if !math.IsFinite(dt) || dt < 0 {
		dt = 0
	}
	return progress, math.Clamp(dt, 0, d.maxDelta)
}

// partTargets writes every part's raw target for the selected keyframe at
// progress p.
func (d *Driver) partTargets(idx int, t, p float32) {
	parts := d.track.parts
	for i := range parts {
		if w := parts[i].spec.Window; w != nil {
			parts[i].target = w.Value(p)
			continue
		}
		parts[i].target = parts[i].spec.Rest
	}
	if idx < 0 {
		return
	}
	for _, o := range d.track.keyframes[idx].offsets {
		parts[o.part].target = math.Lerp(o.from, o.to, t)
	}
}

// cameraTarget resolves the raw camera pose and the smoothing to chase it with.
func (d *Driver) cameraTarget(idx int, t float32) (Pose, float32) {
	smoothing := d.track.cameraSmoothing
	position := d.target.Position

	if d.modes != nil {
		shot := d.modes.shot(d.resolver, d.log)
		if d.modes.rig.CameraSmoothing > 0 {
			smoothing = d.modes.rig.CameraSmoothing
		}
		return PoseLookingAt(shot.Position, shot.Look, d.up), smoothing
	}

	if idx < 0 || d.track.keyframes[idx].pose == nil {
		return d.target, smoothing
	}

	kf := &d.track.keyframes[idx]
	p := kf.pose
	if p.Smoothing > 0 {
		smoothing = p.Smoothing
	}

	if kf.posAnchor != nil {
		position = kf.posAnchor.position(d.resolver, position, d.log)
	} else {
		position = p.From.Lerp(p.To, t)
	}

	if p.Orientation != nil {
		return Pose{
			Position:    position,
			Orientation: p.Orientation.From.Slerp(p.Orientation.To, t),
		}, smoothing
	}

	look := p.LookFrom.Lerp(p.LookTo, t)
	if kf.lookAnchor != nil {
		look = kf.lookAnchor.position(d.resolver, d.fallbackLook, d.log)
	}
	return PoseLookingAt(position, look, d.up), smoothing
}

// Update advances the rig by dt seconds at the given progress and returns the
// frame. Non-finite input never reaches the damped state.
func (d *Driver) Update(progress, dt float32) Frame {
	if d.disposed || d.track == nil {
		return d.frame
	}
	progress, dt = d.sanitize(progress, dt)
	d.lastProgress = progress
	snap := !d.primed

	idx, raw := d.track.selectKeyframe(progress)
	t := float32(0)
	name := ""
	if idx >= 0 {
		kf := &d.track.keyframes[idx]
		t = kf.ease(raw)
		name = kf.name
	}

	mode := Mode{}
	hubRotation := float32(0)
	if d.modes != nil {
		d.modes.drain()
		hubRotation = d.modes.carousel.Update(dt)
		if snap {
			d.modes.carousel.Snap()
			hubRotation = d.modes.carousel.Displayed()
		}
		mode = d.modes.mode
	}

	target, smoothing := d.cameraTarget(idx, t)
	if target.IsFinite() {
		d.target = target
	} else {
		d.log.Warn("non-finite camera target, holding last")
	}

	factor := math.DampFactor(smoothing, dt)
	switch {
	case snap:
		d.current = d.target
	case factor > 0:
		next := Pose{
			Position:    d.current.Position.Lerp(d.target.Position, factor),
			Orientation: d.current.Orientation.Slerp(d.target.Orientation, factor),
		}
		if next.IsFinite() {
			d.current = next
		}
	}

	d.updateParts(idx, t, progress, dt, snap)

	d.sections = d.sections[:0]
	for _, s := range d.track.sections {
		if s.Visible(progress) {
			d.sections = append(d.sections, s.ID)
		}
	}

	d.primed = true
	d.frame = Frame{
		Pose:        d.current,
		Target:      d.target,
		Offsets:     d.offsets,
		Active:      idx,
		Keyframe:    name,
		T:           t,
		Progress:    progress,
		Mode:        mode,
		HubRotation: hubRotation,
		Sections:    d.sections,
	}
	return d.frame
}

func (d *Driver) updateParts(idx int, t, progress, dt float32, snap bool) {
	d.partTargets(idx, t, progress)
	parts := d.track.parts
	for _, i := range d.track.order {
		p := &parts[i]
		switch {
		case p.follow >= 0:
			p.current = parts[p.follow].current
		case snap:
			p.current = p.target
		case dt > 0:
			p.current = math.Damp(p.current, p.target, p.smoothing, dt)
		}
		if p.spec.SpinRate != 0 && dt > 0 {
			p.spin = math.WrapAngle(p.spin + p.spec.SpinRate*dt)
		}

		p.node.lookup(d.resolver)
		out := &d.offsets[i]
		out.Node = p.node.handle
		out.Offset = p.current
		out.Spin = p.spin
	}
}

// Reset places the camera at pose and parts at their targets for the last
// progress, so the next Update continues from there instead of gliding from a
// stale pose.
func (d *Driver) Reset(pose Pose) {
	if d.disposed {
		return
	}
	if !pose.IsFinite() {
		d.log.Warn("ignoring reset to non-finite pose")
		return
	}
	pose.Orientation = pose.Orientation.Normalize()
	d.current = pose
	d.target = pose
	if d.modes != nil {
		d.modes.carousel.Snap()
	}
	if d.track == nil {
		return
	}

	idx, raw := d.track.selectKeyframe(d.lastProgress)
	t := float32(0)
	if idx >= 0 {
		t = d.track.keyframes[idx].ease(raw)
	}
	d.updateParts(idx, t, d.lastProgress, 0, true)
	d.primed = true
	d.frame.Pose = pose
	d.frame.Target = pose
}

// Apply writes frame to the sinks. Either sink may be nil.
func (d *Driver) Apply(frame Frame, poses PoseSink, offsets OffsetSink) error {
	if poses != nil {
		poses.SetPose(frame.Pose.Position, frame.Pose.Orientation)
	}
	if offsets == nil {
		return nil
	}

	var errs []error
	for i, o := range frame.Offsets {
		if !o.Node.IsValid() {
			continue
		}
		var err error
		if o.Mode == PartRotate {
			err = offsets.SetAngle(o.Node, o.Axis, o.Value())
		} else {
			err = offsets.SetOffset(o.Node, o.Axis, o.Value())
		}
		if err != nil {
			if errors.Is(err, core.ErrStaleHandle) && d.track != nil && i < len(d.track.parts) {
				d.track.parts[i].node.resolved = false
			}
			errs = append(errs, fmt.Errorf("part %s: %w", o.Part, err))
		}
	}

	if d.modes != nil {
		if h, ok := d.modes.hubHandle(d.resolver); ok {
			if err := offsets.SetAngle(h, d.up, frame.HubRotation); err != nil {
				d.modes.hub.resolved = false
				errs = append(errs, fmt.Errorf("hub: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

// Bind subscribes the driver's input listeners to bus. Dispose releases them.
func (d *Driver) Bind(bus *core.EventBus) error {
	if d.disposed {
		return core.ErrDisposed
	}
	if d.sub != nil {
		d.sub.Close()
	}
	d.sub = core.NewSubscription(bus)
	if d.modes != nil {
		d.modes.bind(d.sub)
	}
	return nil
}

// Dispose unregisters every listener. Later calls to Update return the last
// frame and Configure fails with core.ErrDisposed.
func (d *Driver) Dispose() {
	if d.disposed {
		return
	}
	if d.sub != nil {
		d.sub.Close()
		d.sub = nil
	}
	d.disposed = true
	d.log.Debug("driver disposed")
}

// position returns the anchor's world position, the last good one while the
// node is missing, or fallback if it never resolved. The warning is logged
// once per outage.
func (a *anchor) position(r AnchorResolver, fallback math.Vec3, l *log.Logger) math.Vec3 {
	if a.lookup(r) {
		if p, ok := r.WorldPosition(a.handle); ok && p.IsFinite() {
			a.last, a.hasLast, a.warned = p, true, false
			return p
		}
		// Stale handle, look the name up again next frame.
		a.resolved = false
	}
	if !a.warned {
		l.Warn("anchor unresolved, holding last target", "anchor", a.name, "fallback", !a.hasLast)
		a.warned = true
	}
	if a.hasLast {
		return a.last
	}
	return fallback
}

func (a *anchor) lookup(r AnchorResolver) bool {
	if a.resolved {
		return true
	}
	if r == nil || a.name == "" {
		return false
	}
	h, ok := r.Lookup(a.name)
	if !ok {
		a.handle = scene.InvalidHandle
		return false
	}
	a.handle, a.resolved = h, true
	return true
}
