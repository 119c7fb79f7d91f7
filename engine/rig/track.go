package rig

import (
	"github.com/spaghettifunk/labrig/engine/math"
)

const (
	// DefaultCameraSmoothing is the damping rate of the camera pose.
	DefaultCameraSmoothing float32 = 4
	// DefaultPartSmoothing is the damping rate of exploded parts.
	DefaultPartSmoothing float32 = 6
	// DefaultMaxDelta caps the frame time fed to the dampers, in seconds.
	DefaultMaxDelta float32 = 0.1
)

// PartMode selects how a part's scalar is applied to its node.
type PartMode uint8

const (
	// PartTranslate displaces the node along Axis.
	PartTranslate PartMode = iota
	// PartRotate turns the node about Axis, in radians.
	PartRotate
)

func (m PartMode) String() string {
	switch m {
	case PartTranslate:
		return "translate"
	case PartRotate:
		return "rotate"
	default:
		return "unknown"
	}
}

// OffsetRange interpolates one part between two displacements.
type OffsetRange struct {
	Part     string
	From, To float32
}

// OrientationRange is an explicit camera orientation used instead of look-at.
type OrientationRange struct {
	From, To math.Quaternion
}

// PoseTarget describes where the camera should be while a keyframe is active.
// A non-empty anchor replaces the matching literal endpoints and is resolved
// through the scene graph every frame.
type PoseTarget struct {
	From, To       math.Vec3
	PositionAnchor string

	LookFrom, LookTo math.Vec3
	LookAnchor       string

	Orientation *OrientationRange

	// Smoothing overrides the track camera smoothing while active. Zero keeps
	// the track value.
	Smoothing float32
}

// Keyframe maps the half-open progress range [Entry, Exit) to targets.
type Keyframe struct {
	Name        string
	Entry, Exit float32
	Easing      string
	Pose        *PoseTarget
	Offsets     []OffsetRange
}

// PartSpec declares a rigid sub-part once per track.
type PartSpec struct {
	Name string
	// Node is the scene graph name the part is applied to.
	Node string
	Axis math.Vec3
	Mode PartMode
	// Rest is used whenever the active keyframe does not mention the part.
	Rest float32
	// Smoothing of zero uses the track part smoothing.
	Smoothing float32
	// Follow locks this part's output to another part's output.
	Follow string
	// SpinRate adds a continuous rotation in rad/s. Rotate parts only.
	SpinRate float32
	// Window drives the part from progress instead of keyframe offsets.
	Window *PartWindow
}

// PartWindow moves a part from From to To as progress ramps in over
// [Entry, Entry+Ramp], and back as it ramps out over [Exit, Exit+Ramp].
// Windows of different parts may overlap each other and any keyframe.
type PartWindow struct {
	Entry, Exit float32
	Ramp        float32
	From, To    float32
}

// Value is the part displacement at progress p.
func (w PartWindow) Value(p float32) float32 {
	in := math.Smoothstep(math.InverseLerp(w.Entry, w.Entry+w.Ramp, p))
	out := math.Smoothstep(math.InverseLerp(w.Exit, w.Exit+w.Ramp, p))
	return math.Lerp(w.From, w.To, in-out)
}

// Section is an overlay window shown while progress is inside (Enter, Exit).
// Enter <= 0 is open to the start and Exit >= 1 is open to the end.
type Section struct {
	ID    string
	Title string
	Enter float32
	Exit  float32
}

// Visible reports whether the section shows at progress p.
func (s Section) Visible(p float32) bool {
	return (s.Enter <= 0 || p > s.Enter) && (s.Exit >= 1 || p < s.Exit)
}

// Track is the full configuration of one experience.
type Track struct {
	Name      string
	Keyframes []Keyframe
	Parts     []PartSpec
	Sections  []Section

	// Zero values fall back to DefaultCameraSmoothing and DefaultPartSmoothing.
	CameraSmoothing float32
	PartSmoothing   float32
}

// Pose is a camera position and orientation.
type Pose struct {
	Position    math.Vec3
	Orientation math.Quaternion
}

// PoseLookingAt builds a pose at position facing look.
func PoseLookingAt(position, look, up math.Vec3) Pose {
	return Pose{
		Position:    position,
		Orientation: math.NewQuatLookAt(position, look, up),
	}
}

func (p Pose) IsFinite() bool {
	return p.Position.IsFinite() && p.Orientation.IsFinite()
}
