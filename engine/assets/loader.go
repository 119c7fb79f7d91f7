package assets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/rig"
)

type Format uint8

const (
	FormatNone Format = iota
	FormatTOML
	FormatYAML
)

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return FormatNone, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, path)
	}
}

// Vec3 is written as [x, y, z] in rig files.
type Vec3 [3]float32

func (v Vec3) toMath() math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}

// Quat is written as [x, y, z, w] in rig files.
type Quat [4]float32

func (q Quat) toMath() math.Quaternion {
	return math.Quaternion{X: q[0], Y: q[1], Z: q[2], W: q[3]}
}

type PartFile struct {
	Name      string      `toml:"name" yaml:"name"`
	Node      string      `toml:"node,omitempty" yaml:"node,omitempty"`
	Axis      Vec3        `toml:"axis" yaml:"axis"`
	Mode      string      `toml:"mode,omitempty" yaml:"mode,omitempty"`
	Rest      float32     `toml:"rest,omitempty" yaml:"rest,omitempty"`
	Smoothing float32     `toml:"smoothing,omitempty" yaml:"smoothing,omitempty"`
	Follow    string      `toml:"follow,omitempty" yaml:"follow,omitempty"`
	SpinRate  float32     `toml:"spin_rate,omitempty" yaml:"spin_rate,omitempty"`
	Window    *WindowFile `toml:"window,omitempty" yaml:"window,omitempty"`
}

type WindowFile struct {
	Entry float32 `toml:"entry" yaml:"entry"`
	Exit  float32 `toml:"exit" yaml:"exit"`
	Ramp  float32 `toml:"ramp" yaml:"ramp"`
	From  float32 `toml:"from" yaml:"from"`
	To    float32 `toml:"to" yaml:"to"`
}

// PoseFile leaves To and LookTo out to hold the start value.
type PoseFile struct {
	From           Vec3    `toml:"from" yaml:"from"`
	To             *Vec3   `toml:"to,omitempty" yaml:"to,omitempty"`
	PositionAnchor string  `toml:"position_anchor,omitempty" yaml:"position_anchor,omitempty"`
	LookFrom       Vec3    `toml:"look_from" yaml:"look_from"`
	LookTo         *Vec3   `toml:"look_to,omitempty" yaml:"look_to,omitempty"`
	LookAnchor     string  `toml:"look_anchor,omitempty" yaml:"look_anchor,omitempty"`
	OrientFrom     *Quat   `toml:"orientation_from,omitempty" yaml:"orientation_from,omitempty"`
	OrientTo       *Quat   `toml:"orientation_to,omitempty" yaml:"orientation_to,omitempty"`
	Smoothing      float32 `toml:"smoothing,omitempty" yaml:"smoothing,omitempty"`
}

type OffsetFile struct {
	Part string  `toml:"part" yaml:"part"`
	From float32 `toml:"from" yaml:"from"`
	To   float32 `toml:"to" yaml:"to"`
}

type KeyframeFile struct {
	Name    string       `toml:"name" yaml:"name"`
	Entry   float32      `toml:"entry" yaml:"entry"`
	Exit    float32      `toml:"exit" yaml:"exit"`
	Easing  string       `toml:"easing,omitempty" yaml:"easing,omitempty"`
	Pose    *PoseFile    `toml:"pose,omitempty" yaml:"pose,omitempty"`
	Offsets []OffsetFile `toml:"offsets,omitempty" yaml:"offsets,omitempty"`
}

type SectionFile struct {
	ID    string  `toml:"id" yaml:"id"`
	Title string  `toml:"title,omitempty" yaml:"title,omitempty"`
	Enter float32 `toml:"enter" yaml:"enter"`
	Exit  float32 `toml:"exit" yaml:"exit"`
}

type ShotFile struct {
	Position Vec3 `toml:"position" yaml:"position"`
	Look     Vec3 `toml:"look" yaml:"look"`
}

type TargetFile struct {
	ID           string `toml:"id" yaml:"id"`
	CameraAnchor string `toml:"camera_anchor" yaml:"camera_anchor"`
	LookAnchor   string `toml:"look_anchor" yaml:"look_anchor"`
	CameraOffset Vec3   `toml:"camera_offset,omitempty" yaml:"camera_offset,omitempty"`
	LookOffset   Vec3   `toml:"look_offset,omitempty" yaml:"look_offset,omitempty"`
}

type SlotFile struct {
	Name  string  `toml:"name" yaml:"name"`
	Angle float32 `toml:"angle" yaml:"angle"`
}

type HubFile struct {
	Intro             ShotFile     `toml:"intro" yaml:"intro"`
	Hub               ShotFile     `toml:"hub" yaml:"hub"`
	Node              string       `toml:"node,omitempty" yaml:"node,omitempty"`
	Targets           []TargetFile `toml:"targets" yaml:"targets"`
	Slots             []SlotFile   `toml:"slots" yaml:"slots"`
	CameraSmoothing   float32      `toml:"camera_smoothing,omitempty" yaml:"camera_smoothing,omitempty"`
	RotationSmoothing float32      `toml:"rotation_smoothing,omitempty" yaml:"rotation_smoothing,omitempty"`
}

// RigFile is the on-disk description of one experience.
type RigFile struct {
	Version         string         `toml:"version" yaml:"version"`
	Name            string         `toml:"name" yaml:"name"`
	CameraSmoothing float32        `toml:"camera_smoothing,omitempty" yaml:"camera_smoothing,omitempty"`
	PartSmoothing   float32        `toml:"part_smoothing,omitempty" yaml:"part_smoothing,omitempty"`
	Parts           []PartFile     `toml:"parts,omitempty" yaml:"parts,omitempty"`
	Keyframes       []KeyframeFile `toml:"keyframes,omitempty" yaml:"keyframes,omitempty"`
	Sections        []SectionFile  `toml:"sections,omitempty" yaml:"sections,omitempty"`
	Hub             *HubFile       `toml:"hub,omitempty" yaml:"hub,omitempty"`
}

// Decode parses a rig file. Unknown keys are rejected so typos surface.
func Decode(data []byte, format Format) (*RigFile, error) {
	var f RigFile
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	default:
		return nil, core.ErrUnsupportedFormat
	}
	return &f, nil
}

// LoadRigFile reads and decodes the file at path.
func LoadRigFile(path string) (*RigFile, error) {
	if _, err := FormatFromPath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRigFile(path, data)
}

// ParseRigFile decodes data using the format implied by path. The rig name
// defaults to the file name without extension.
func ParseRigFile(path string, data []byte) (*RigFile, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = nameFromPath(path)
	}
	return f, nil
}

// LoadTrackFile reads path and returns its track.
func LoadTrackFile(path string) (rig.Track, error) {
	f, err := LoadRigFile(path)
	if err != nil {
		return rig.Track{}, err
	}
	return f.Track()
}

func parseMode(s string) (rig.PartMode, error) {
	switch strings.ToLower(s) {
	case "", "translate":
		return rig.PartTranslate, nil
	case "rotate":
		return rig.PartRotate, nil
	default:
		return rig.PartTranslate, fmt.Errorf("%w: part mode %q", core.ErrInvalidTrack, s)
	}
}

// Track converts the file into a rig.Track. Range checks happen when the
// track is configured on a driver.
func (f *RigFile) Track() (rig.Track, error) {
	t := rig.Track{
		Name:            f.Name,
		CameraSmoothing: f.CameraSmoothing,
		PartSmoothing:   f.PartSmoothing,
	}

	for _, p := range f.Parts {
		mode, err := parseMode(p.Mode)
		if err != nil {
			return rig.Track{}, fmt.Errorf("part %s: %w", p.Name, err)
		}
		spec := rig.PartSpec{
			Name:      p.Name,
			Node:      p.Node,
			Axis:      p.Axis.toMath(),
			Mode:      mode,
			Rest:      p.Rest,
			Smoothing: p.Smoothing,
			Follow:    p.Follow,
			SpinRate:  p.SpinRate,
		}
		if w := p.Window; w != nil {
			spec.Window = &rig.PartWindow{Entry: w.Entry, Exit: w.Exit, Ramp: w.Ramp, From: w.From, To: w.To}
		}
		t.Parts = append(t.Parts, spec)
	}

	for _, k := range f.Keyframes {
		kf := rig.Keyframe{
			Name:   k.Name,
			Entry:  k.Entry,
			Exit:   k.Exit,
			Easing: k.Easing,
		}
		if k.Pose != nil {
			pose, err := k.Pose.toTarget()
			if err != nil {
				return rig.Track{}, fmt.Errorf("keyframe %s: %w", k.Name, err)
			}
			kf.Pose = pose
		}
		for _, o := range k.Offsets {
			kf.Offsets = append(kf.Offsets, rig.OffsetRange{Part: o.Part, From: o.From, To: o.To})
		}
		t.Keyframes = append(t.Keyframes, kf)
	}

	for _, s := range f.Sections {
		t.Sections = append(t.Sections, rig.Section{ID: s.ID, Title: s.Title, Enter: s.Enter, Exit: s.Exit})
	}
	return t, nil
}

func (p *PoseFile) toTarget() (*rig.PoseTarget, error) {
	to := p.From
	if p.To != nil {
		to = *p.To
	}
	lookTo := p.LookFrom
	if p.LookTo != nil {
		lookTo = *p.LookTo
	}
	target := &rig.PoseTarget{
		From:           p.From.toMath(),
		To:             to.toMath(),
		PositionAnchor: p.PositionAnchor,
		LookFrom:       p.LookFrom.toMath(),
		LookTo:         lookTo.toMath(),
		LookAnchor:     p.LookAnchor,
		Smoothing:      p.Smoothing,
	}
	switch {
	case p.OrientFrom != nil && p.OrientTo != nil:
		target.Orientation = &rig.OrientationRange{From: p.OrientFrom.toMath(), To: p.OrientTo.toMath()}
	case p.OrientFrom != nil:
		target.Orientation = &rig.OrientationRange{From: p.OrientFrom.toMath(), To: p.OrientFrom.toMath()}
	case p.OrientTo != nil:
		return nil, fmt.Errorf("%w: orientation_to without orientation_from", core.ErrInvalidTrack)
	}
	return target, nil
}

// HubRig returns the hub configuration, if the file has one.
func (f *RigFile) HubRig() (rig.HubRig, bool) {
	if f.Hub == nil {
		return rig.HubRig{}, false
	}
	h := f.Hub
	out := rig.HubRig{
		Intro:             rig.CameraShot{Position: h.Intro.Position.toMath(), Look: h.Intro.Look.toMath()},
		Hub:               rig.CameraShot{Position: h.Hub.Position.toMath(), Look: h.Hub.Look.toMath()},
		HubNode:           h.Node,
		CameraSmoothing:   h.CameraSmoothing,
		RotationSmoothing: h.RotationSmoothing,
	}
	for _, t := range h.Targets {
		out.Targets = append(out.Targets, rig.FocusTarget{
			ID:           t.ID,
			CameraAnchor: t.CameraAnchor,
			LookAnchor:   t.LookAnchor,
			CameraOffset: t.CameraOffset.toMath(),
			LookOffset:   t.LookOffset.toMath(),
		})
	}
	for _, s := range h.Slots {
		out.Slots = append(out.Slots, rig.Slot{Name: s.Name, Angle: s.Angle})
	}
	return out, true
}
