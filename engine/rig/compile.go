package rig

import (
	"fmt"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/scene"
)

// anchor is a named node resolved to a handle once, with the last good world
// position kept for when the node goes missing.
type anchor struct {
	name     string
	handle   scene.Handle
	resolved bool
	last     math.Vec3
	hasLast  bool
	warned   bool
}

type compiledOffset struct {
	part     int
	from, to float32
}

type compiledKeyframe struct {
	name        string
	entry, exit float32
	ease        math.EasingFunc
	pose        *PoseTarget
	posAnchor   *anchor
	lookAnchor  *anchor
	offsets     []compiledOffset
}

type compiledPart struct {
	spec      PartSpec
	axis      math.Vec3
	smoothing float32
	node      anchor
	follow    int

	target  float32
	current float32
	spin    float32
}

type compiledTrack struct {
	name            string
	keyframes       []compiledKeyframe
	parts           []compiledPart
	order           []int
	sections        []Section
	cameraSmoothing float32
	partSmoothing   float32
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", core.ErrInvalidTrack, fmt.Sprintf(format, args...))
}

func invalidWrap(cause error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %w", core.ErrInvalidTrack, fmt.Sprintf(format, args...), cause)
}

func checkSmoothing(what string, v float32) error {
	if !math.IsFinite(v) {
		return invalidWrap(core.ErrNonFinite, "%s smoothing", what)
	}
	if v < 0 {
		return invalid("%s smoothing %v is negative", what, v)
	}
	return nil
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

// compileTrack validates track and turns it into the form Update walks.
func compileTrack(track Track) (*compiledTrack, error) {
	if err := checkSmoothing("camera", track.CameraSmoothing); err != nil {
		return nil, err
	}
	if err := checkSmoothing("part", track.PartSmoothing); err != nil {
		return nil, err
	}

	ct := &compiledTrack{
		name:            track.Name,
		cameraSmoothing: orDefault(track.CameraSmoothing, DefaultCameraSmoothing),
		partSmoothing:   orDefault(track.PartSmoothing, DefaultPartSmoothing),
		sections:        append([]Section(nil), track.Sections...),
	}

	partIndex, err := ct.compileParts(track.Parts)
	if err != nil {
		return nil, err
	}
	if err := ct.compileKeyframes(track.Keyframes, partIndex); err != nil {
		return nil, err
	}
	for _, s := range ct.sections {
		if !math.IsFinite(s.Enter) || !math.IsFinite(s.Exit) {
			return nil, invalidWrap(core.ErrNonFinite, "section %q", s.ID)
		}
	}
	return ct, nil
}

func (ct *compiledTrack) compileParts(specs []PartSpec) (map[string]int, error) {
	index := make(map[string]int, len(specs))
	ct.parts = make([]compiledPart, len(specs))

	for i, spec := range specs {
		if spec.Name == "" {
			return nil, invalid("part %d has no name", i)
		}
		if _, dup := index[spec.Name]; dup {
			return nil, invalid("part %q declared twice", spec.Name)
		}
		if !spec.Axis.IsFinite() || !math.IsFinite(spec.Rest) || !math.IsFinite(spec.SpinRate) {
			return nil, invalidWrap(core.ErrNonFinite, "part %q", spec.Name)
		}
		if spec.Axis.LengthSquared() < math.K_FLOAT_EPSILON {
			return nil, invalid("part %q has a zero axis", spec.Name)
		}
		if spec.SpinRate != 0 && spec.Mode != PartRotate {
			return nil, invalid("part %q spins but is not a rotate part", spec.Name)
		}
		if err := checkSmoothing(fmt.Sprintf("part %q", spec.Name), spec.Smoothing); err != nil {
			return nil, err
		}
		if w := spec.Window; w != nil {
			if !math.IsFinite(w.Entry) || !math.IsFinite(w.Exit) || !math.IsFinite(w.Ramp) ||
				!math.IsFinite(w.From) || !math.IsFinite(w.To) {
				return nil, invalidWrap(core.ErrNonFinite, "part %q window", spec.Name)
			}
			if w.Ramp <= 0 || w.Entry > w.Exit {
				return nil, invalid("part %q window needs ramp > 0 and entry <= exit", spec.Name)
			}
			if spec.Follow != "" {
				return nil, invalid("part %q has a window and follows %q", spec.Name, spec.Follow)
			}
		}

		node := spec.Node
		if node == "" {
			node = spec.Name
		}
		index[spec.Name] = i
		ct.parts[i] = compiledPart{
			spec:      spec,
			axis:      spec.Axis.Normalized(),
			smoothing: orDefault(spec.Smoothing, ct.partSmoothing),
			node:      anchor{name: node, handle: scene.InvalidHandle},
			follow:    -1,
			target:    spec.Rest,
			current:   spec.Rest,
		}
	}

	for i := range ct.parts {
		f := ct.parts[i].spec.Follow
		if f == "" {
			continue
		}
		j, ok := index[f]
		if !ok {
			return nil, invalidWrap(core.ErrUnknownPart, "part %q follows %q", ct.parts[i].spec.Name, f)
		}
		ct.parts[i].follow = j
	}

	// Evaluation order puts every followed part before its followers.
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(ct.parts))
	ct.order = make([]int, 0, len(ct.parts))
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return invalidWrap(core.ErrFollowCycle, "part %q", ct.parts[i].spec.Name)
		}
		state[i] = visiting
		if f := ct.parts[i].follow; f >= 0 {
			if err := visit(f); err != nil {
				return err
			}
		}
		state[i] = done
		ct.order = append(ct.order, i)
		return nil
	}
	for i := range ct.parts {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return index, nil
}

func (ct *compiledTrack) compileKeyframes(keyframes []Keyframe, partIndex map[string]int) error {
	ct.keyframes = make([]compiledKeyframe, len(keyframes))

	for i, kf := range keyframes {
		if !math.IsFinite(kf.Entry) || !math.IsFinite(kf.Exit) {
			return invalidWrap(core.ErrNonFinite, "keyframe %q range", kf.Name)
		}
		if kf.Entry < 0 || kf.Exit > 1 || kf.Entry >= kf.Exit {
			return invalid("keyframe %q range [%v, %v) must satisfy 0 <= entry < exit <= 1", kf.Name, kf.Entry, kf.Exit)
		}
		if i > 0 {
			prev := keyframes[i-1]
			if kf.Entry < prev.Entry {
				return invalidWrap(core.ErrKeyframeOrder, "keyframe %q starts before %q", kf.Name, prev.Name)
			}
			if kf.Entry < prev.Exit {
				return invalidWrap(core.ErrKeyframeOverlap, "keyframe %q overlaps %q", kf.Name, prev.Name)
			}
		}

		ease, err := math.LookupEasing(kf.Easing)
		if err != nil {
			return invalidWrap(err, "keyframe %q", kf.Name)
		}

		ck := compiledKeyframe{
			name:  kf.Name,
			entry: kf.Entry,
			exit:  kf.Exit,
			ease:  ease,
		}

		if kf.Pose != nil {
			p := *kf.Pose
			if !p.From.IsFinite() || !p.To.IsFinite() || !p.LookFrom.IsFinite() || !p.LookTo.IsFinite() {
				return invalidWrap(core.ErrNonFinite, "keyframe %q pose", kf.Name)
			}
			if p.Orientation != nil && (!p.Orientation.From.IsFinite() || !p.Orientation.To.IsFinite()) {
				return invalidWrap(core.ErrNonFinite, "keyframe %q orientation", kf.Name)
			}
			if err := checkSmoothing(fmt.Sprintf("keyframe %q", kf.Name), p.Smoothing); err != nil {
				return err
			}
			ck.pose = &p
			if p.PositionAnchor != "" {
				ck.posAnchor = &anchor{name: p.PositionAnchor, handle: scene.InvalidHandle}
			}
			if p.LookAnchor != "" {
				ck.lookAnchor = &anchor{name: p.LookAnchor, handle: scene.InvalidHandle}
			}
		}

		for _, o := range kf.Offsets {
			j, ok := partIndex[o.Part]
			if !ok {
				return invalidWrap(core.ErrUnknownPart, "keyframe %q offset %q", kf.Name, o.Part)
			}
			if ct.parts[j].spec.Window != nil {
				return invalid("keyframe %q animates %q which has its own window", kf.Name, o.Part)
			}
			if ct.parts[j].follow >= 0 {
				return invalid("keyframe %q animates %q which follows %q", kf.Name, o.Part, ct.parts[j].spec.Follow)
			}
			if !math.IsFinite(o.From) || !math.IsFinite(o.To) {
				return invalidWrap(core.ErrNonFinite, "keyframe %q offset %q", kf.Name, o.Part)
			}
			ck.offsets = append(ck.offsets, compiledOffset{part: j, from: o.From, to: o.To})
		}

		ct.keyframes[i] = ck
	}
	return nil
}

// selectKeyframe returns the active keyframe for p and its raw (un-eased)
// local time. Before the first range the first keyframe is used at t=0; in a
// gap, or past the last range, the preceding keyframe holds at t=1. Returns
// -1 when there are no keyframes.
func (ct *compiledTrack) selectKeyframe(p float32) (int, float32) {
	n := len(ct.keyframes)
	if n == 0 {
		return -1, 0
	}
	// Last keyframe with entry <= p.
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if ct.keyframes[mid].entry <= p {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	idx := lo - 1
	if idx < 0 {
		return 0, 0
	}
	kf := ct.keyframes[idx]
	if p >= kf.exit {
		return idx, 1
	}
	return idx, math.InverseLerp(kf.entry, kf.exit, p)
}
