package rig

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/scene"
)

func quiet() Option {
	return WithLogger(log.New(io.Discard))
}

func linearTrack() Track {
	return Track{
		Name: "linear",
		Keyframes: []Keyframe{{
			Name:  "slide",
			Entry: 0,
			Exit:  1,
			Pose: &PoseTarget{
				From:     math.NewVec3(0, 0, 0),
				To:       math.NewVec3(10, 0, 0),
				LookFrom: math.NewVec3(0, 0, -10),
				LookTo:   math.NewVec3(10, 0, -10),
			},
		}},
	}
}

func explodedTrack() Track {
	return Track{
		Name: "exploded",
		Parts: []PartSpec{
			{Name: "glass", Axis: math.NewVec3(0, 0, 1), Rest: -0.015},
			{Name: "dial", Axis: math.NewVec3(0, 0, 1), Rest: -0.015},
			{Name: "hand", Axis: math.NewVec3(0, 0, 1), Follow: "dial"},
			{Name: "hand_spin", Node: "hand", Axis: math.NewVec3Up(), Mode: PartRotate, SpinRate: -1.5},
		},
		Keyframes: []Keyframe{
			{
				Name: "approach", Entry: 0, Exit: 0.5, Easing: "smoothstep",
				Pose: &PoseTarget{From: math.NewVec3(0, 0, 10), To: math.NewVec3(0, 0, 4)},
			},
			{
				Name: "explode", Entry: 0.5, Exit: 1, Easing: "inOutCubic",
				Pose: &PoseTarget{From: math.NewVec3(0, 0, 4), To: math.NewVec3(-2, 1, 4)},
				Offsets: []OffsetRange{
					{Part: "glass", From: -0.015, To: 0.885},
					{Part: "dial", From: -0.015, To: 0.185},
				},
			},
		},
		Sections: []Section{
			{ID: "hero", Enter: 0, Exit: 0.05},
			{ID: "sapphire", Enter: 0.10, Exit: 0.25},
			{ID: "conclusion", Enter: 0.95, Exit: 1},
		},
	}
}

func newConfigured(t *testing.T, track Track, opts ...Option) *Driver {
	t.Helper()
	d := NewDriver(nil, append([]Option{quiet()}, opts...)...)
	require.NoError(t, d.Configure(track))
	return d
}

func TestUpdateIsFiniteForAllProgress(t *testing.T) {
	d := newConfigured(t, explodedTrack())
	for i := 0; i <= 200; i++ {
		f := d.Update(float32(i)/200, 1.0/60)
		require.True(t, f.Pose.IsFinite(), "progress %v", f.Progress)
		require.True(t, f.Target.IsFinite())
		for _, o := range f.Offsets {
			require.True(t, math.IsFinite(o.Offset), o.Part)
			require.True(t, math.IsFinite(o.Spin), o.Part)
		}
	}
}

func TestZeroDeltaIsIdempotent(t *testing.T) {
	d := newConfigured(t, explodedTrack())
	d.Update(0, 0)
	d.Update(0.7, 0.2)

	first := d.Update(0.7, 0)
	firstOffsets := append([]PartOffset(nil), first.Offsets...)
	for i := 0; i < 50; i++ {
		f := d.Update(0.7, 0)
		assert.Equal(t, first.Pose, f.Pose)
		assert.Equal(t, firstOffsets, f.Offsets)
	}
}

func TestConvergence(t *testing.T) {
	// After 2s the remaining distance is d*e^(-2k).
	tests := []struct {
		name      string
		smoothing float32
		progress  float32
		want      float32
	}{
		{name: "default rate short move", smoothing: 0, progress: 0.1, want: 1},
		{name: "fast rate long move", smoothing: 6, progress: 0.8, want: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := linearTrack()
			track.CameraSmoothing = tt.smoothing
			d := newConfigured(t, track)
			d.Update(0, 0)

			var f Frame
			prev := float32(math32.Inf(1))
			for i := 0; i < 120; i++ {
				f = d.Update(tt.progress, 1.0/60)
				dist := f.Pose.Position.Distance(f.Target.Position)
				assert.LessOrEqual(t, dist, prev)
				prev = dist
			}
			assert.InDelta(t, tt.want, f.Pose.Position.X, 1e-3)
			assert.True(t, f.Pose.Orientation.Compare(f.Target.Orientation, 1e-5))
		})
	}
}

func TestScenarioThreeSeconds(t *testing.T) {
	d := newConfigured(t, linearTrack())

	f := d.Update(0, 0)
	assert.InDelta(t, 0, f.Pose.Position.X, 1e-6)

	for i := 0; i < 180; i++ {
		f = d.Update(0.5, 1.0/60)
	}
	assert.InDelta(t, 5.0, f.Pose.Position.X, 0.01)
}

func TestFirstUpdateSnaps(t *testing.T) {
	d := newConfigured(t, linearTrack())
	f := d.Update(0.3, 1.0/60)
	assert.InDelta(t, 3, f.Pose.Position.X, 1e-5)
	assert.Equal(t, f.Target, f.Pose)
}

func TestRangeBoundary(t *testing.T) {
	d := newConfigured(t, Track{Keyframes: []Keyframe{
		{Name: "first", Entry: 0, Exit: 0.5},
		{Name: "second", Entry: 0.5, Exit: 1},
	}})

	f := d.Update(0.5, 1.0/60)
	assert.Equal(t, 1, f.Active)
	assert.Equal(t, "second", f.Keyframe)
	assert.InDelta(t, 0, f.T, 1e-6)

	f = d.Update(0.4999, 1.0/60)
	assert.Equal(t, 0, f.Active)
}

func TestSelectionOutsideRanges(t *testing.T) {
	d := newConfigured(t, Track{Keyframes: []Keyframe{
		{Name: "a", Entry: 0.2, Exit: 0.4},
		{Name: "b", Entry: 0.6, Exit: 0.8},
	}})

	tests := []struct {
		p      float32
		active int
		t      float32
	}{
		{0.1, 0, 0},
		{0.3, 0, 0.5},
		{0.5, 0, 1},
		{0.6, 1, 0},
		{0.9, 1, 1},
		{1, 1, 1},
	}
	for _, tc := range tests {
		f := d.Update(tc.p, 0)
		assert.Equal(t, tc.active, f.Active, "p=%v", tc.p)
		assert.InDelta(t, tc.t, f.T, 1e-5, "p=%v", tc.p)
	}
}

func TestConfigureValidation(t *testing.T) {
	nan := math32.NaN()
	parts := []PartSpec{{Name: "dial", Axis: math.NewVec3(0, 0, 1)}}

	tests := []struct {
		name  string
		track Track
		is    error
	}{
		{"inverted range", Track{Keyframes: []Keyframe{{Name: "k", Entry: 0.5, Exit: 0.2}}}, core.ErrInvalidTrack},
		{"out of unit range", Track{Keyframes: []Keyframe{{Name: "k", Entry: 0.5, Exit: 1.5}}}, core.ErrInvalidTrack},
		{"unsorted", Track{Keyframes: []Keyframe{
			{Name: "late", Entry: 0.5, Exit: 0.6},
			{Name: "early", Entry: 0.1, Exit: 0.2},
		}}, core.ErrKeyframeOrder},
		{"overlap", Track{Keyframes: []Keyframe{
			{Name: "a", Entry: 0, Exit: 0.6},
			{Name: "b", Entry: 0.5, Exit: 1},
		}}, core.ErrKeyframeOverlap},
		{"nan entry", Track{Keyframes: []Keyframe{{Name: "k", Entry: nan, Exit: 1}}}, core.ErrNonFinite},
		{"unknown part", Track{Parts: parts, Keyframes: []Keyframe{
			{Name: "k", Entry: 0, Exit: 1, Offsets: []OffsetRange{{Part: "glass", To: 1}}},
		}}, core.ErrUnknownPart},
		{"follow cycle", Track{Parts: []PartSpec{
			{Name: "a", Axis: math.NewVec3Up(), Follow: "b"},
			{Name: "b", Axis: math.NewVec3Up(), Follow: "a"},
		}}, core.ErrFollowCycle},
		{"unknown follow", Track{Parts: []PartSpec{
			{Name: "a", Axis: math.NewVec3Up(), Follow: "ghost"},
		}}, core.ErrUnknownPart},
		{"negative smoothing", Track{CameraSmoothing: -1}, core.ErrInvalidTrack},
		{"zero axis", Track{Parts: []PartSpec{{Name: "a"}}}, core.ErrInvalidTrack},
		{"bad easing", Track{Keyframes: []Keyframe{{Name: "k", Entry: 0, Exit: 1, Easing: "wobble"}}}, core.ErrInvalidTrack},
		{"spin on translate part", Track{Parts: []PartSpec{
			{Name: "a", Axis: math.NewVec3Up(), SpinRate: 1},
		}}, core.ErrInvalidTrack},
		{"zero ramp window", Track{Parts: []PartSpec{
			{Name: "a", Axis: math.NewVec3Up(), Window: &PartWindow{Entry: 0.1, Exit: 0.5}},
		}}, core.ErrInvalidTrack},
		{"nan window", Track{Parts: []PartSpec{
			{Name: "a", Axis: math.NewVec3Up(), Window: &PartWindow{Entry: nan, Exit: 0.5, Ramp: 0.1}},
		}}, core.ErrNonFinite},
		{"keyframe drives windowed part", Track{
			Parts: []PartSpec{{Name: "a", Axis: math.NewVec3Up(), Window: &PartWindow{Exit: 1, Ramp: 0.1, To: 1}}},
			Keyframes: []Keyframe{
				{Name: "k", Entry: 0, Exit: 1, Offsets: []OffsetRange{{Part: "a", To: 2}}},
			},
		}, core.ErrInvalidTrack},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDriver(nil, quiet())
			err := d.Configure(tc.track)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidTrack)
			assert.ErrorIs(t, err, tc.is)
		})
	}
}

func TestConfigureErrorNamesKeyframe(t *testing.T) {
	d := NewDriver(nil, quiet())
	err := d.Configure(Track{Keyframes: []Keyframe{
		{Name: "intro", Entry: 0, Exit: 0.6},
		{Name: "dial", Entry: 0.5, Exit: 1},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"dial"`)
}

func TestNonFiniteInputHoldsLastGood(t *testing.T) {
	d := newConfigured(t, linearTrack())
	d.Update(0.4, 0)
	good := d.Update(0.4, 0.05)

	f := d.Update(math32.NaN(), 0)
	assert.InDelta(t, 0.4, f.Progress, 1e-6)
	assert.Equal(t, good.Pose, f.Pose)

	f = d.Update(0.4, math32.Inf(1))
	assert.Equal(t, good.Pose, f.Pose)

	f = d.Update(math32.Inf(-1), math32.NaN())
	assert.True(t, f.Pose.IsFinite())
	assert.Equal(t, good.Pose, f.Pose)

	f = d.Update(0.4, -1)
	assert.Equal(t, good.Pose, f.Pose)
}

func TestDeltaIsClamped(t *testing.T) {
	a := newConfigured(t, linearTrack())
	b := newConfigured(t, linearTrack())
	a.Update(0, 0)
	b.Update(0, 0)

	fa := a.Update(1, 5)
	fb := b.Update(1, DefaultMaxDelta)
	assert.Equal(t, fb.Pose.Position, fa.Pose.Position)

	c := newConfigured(t, linearTrack(), WithMaxDelta(0.05))
	c.Update(0, 0)
	fc := c.Update(1, 5)
	assert.Less(t, fc.Pose.Position.X, fb.Pose.Position.X)
}

func TestResetAvoidsGlide(t *testing.T) {
	d := newConfigured(t, explodedTrack())
	d.Update(0.9, 0)
	d.Update(0.9, 0.1)

	pose := PoseLookingAt(math.NewVec3(1, 2, 3), math.NewVec3Zero(), math.NewVec3Up())
	d.Reset(pose)

	f := d.Update(0.9, 0)
	assert.Equal(t, pose.Position, f.Pose.Position)
	assert.True(t, f.Pose.Orientation.Compare(pose.Orientation, 1e-6))

	for _, o := range f.Offsets {
		if o.Part == "glass" {
			kf := d.track.keyframes[1]
			want := math.Lerp(-0.015, 0.885, kf.ease(0.8))
			assert.InDelta(t, want, o.Offset, 1e-5)
		}
	}
}

func TestPartsFollowSpinAndRest(t *testing.T) {
	d := newConfigured(t, explodedTrack())

	byName := func(f Frame) map[string]PartOffset {
		out := map[string]PartOffset{}
		for _, o := range f.Offsets {
			out[o.Part] = o
		}
		return out
	}

	f := d.Update(0.2, 0)
	parts := byName(f)
	assert.InDelta(t, -0.015, parts["glass"].Offset, 1e-6)
	assert.InDelta(t, -0.015, parts["dial"].Offset, 1e-6)

	for i := 0; i < 60; i++ {
		f = d.Update(0.99, 1.0/60)
		parts = byName(f)
		assert.Equal(t, parts["dial"].Offset, parts["hand"].Offset)
	}
	assert.Greater(t, parts["glass"].Offset, float32(0.5))
	assert.Greater(t, parts["hand_spin"].Spin, float32(0))
	assert.Less(t, parts["hand_spin"].Spin, math.K_PI_2)
	assert.Equal(t, PartRotate, parts["hand_spin"].Mode)

	// Back in the first keyframe the parts return to rest.
	for i := 0; i < 300; i++ {
		f = d.Update(0.1, 1.0/60)
	}
	parts = byName(f)
	assert.InDelta(t, -0.015, parts["glass"].Offset, 1e-3)
}

func TestSectionsFollowProgress(t *testing.T) {
	d := newConfigured(t, explodedTrack())

	assert.Equal(t, []string{"hero"}, d.Update(0, 0).Sections)
	assert.Equal(t, []string{"sapphire"}, d.Update(0.2, 0).Sections)
	assert.Empty(t, d.Update(0.3, 0).Sections)
	assert.Equal(t, []string{"conclusion"}, d.Update(1, 0).Sections)
}

func newAnchorGraph(t *testing.T) (*scene.Graph, scene.Handle) {
	t.Helper()
	g := scene.NewGraph()
	hub, err := g.Add("Hub", scene.InvalidHandle, math.NewVec3Zero())
	require.NoError(t, err)
	_, err = g.Add("cam_02", hub, math.NewVec3(2, 1, 0))
	require.NoError(t, err)
	_, err = g.Add("HitBox_02", hub, math.NewVec3(3, 1, 0))
	require.NoError(t, err)
	return g, hub
}

func TestAnchorsResolveEveryFrameAndFallBack(t *testing.T) {
	g, hub := newAnchorGraph(t)
	var buf bytes.Buffer
	d := NewDriver(g, WithLogger(log.New(&buf)))
	require.NoError(t, d.Configure(Track{Keyframes: []Keyframe{{
		Name: "focus", Entry: 0, Exit: 1,
		Pose: &PoseTarget{PositionAnchor: "cam_02", LookAnchor: "HitBox_02"},
	}}}))

	f := d.Update(0.5, 0)
	assert.InDelta(t, 2, f.Target.Position.X, 1e-5)

	// The hub turns, the anchor moves with it.
	require.NoError(t, g.SetRotationY(hub, math.K_HALF_PI))
	f = d.Update(0.5, 0)
	assert.InDelta(t, 0, f.Target.Position.X, 1e-5)
	assert.InDelta(t, -2, f.Target.Position.Z, 1e-5)
	last := f.Target

	// Remove the anchor: the last good target holds.
	cam, ok := g.Lookup("cam_02")
	require.True(t, ok)
	require.NoError(t, g.Remove(cam))
	for i := 0; i < 5; i++ {
		f = d.Update(0.5, 1.0/60)
		assert.Equal(t, last.Position, f.Target.Position)
		assert.True(t, f.Pose.IsFinite())
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "anchor unresolved"))

	// It comes back under the same name.
	_, err := g.Add("cam_02", scene.InvalidHandle, math.NewVec3(7, 0, 0))
	require.NoError(t, err)
	f = d.Update(0.5, 0)
	assert.InDelta(t, 7, f.Target.Position.X, 1e-5)
}

func TestMissingAnchorUsesFallbackLook(t *testing.T) {
	d := NewDriver(scene.NewGraph(), quiet(), WithFallbackLook(math.NewVec3(0, 0, 5)))
	require.NoError(t, d.Configure(Track{Keyframes: []Keyframe{{
		Name: "k", Entry: 0, Exit: 1,
		Pose: &PoseTarget{LookAnchor: "nowhere"},
	}}}))
	f := d.Update(0.5, 0)
	assert.True(t, f.Pose.IsFinite())
	assert.InDelta(t, 1, f.Pose.Orientation.Rotate(math.NewVec3Forward()).Z, 1e-4)
}

type poseRecorder struct {
	position    math.Vec3
	orientation math.Quaternion
	calls       int
}

func (r *poseRecorder) SetPose(position math.Vec3, orientation math.Quaternion) {
	r.position, r.orientation = position, orientation
	r.calls++
}

func TestApplyWritesSinks(t *testing.T) {
	g := scene.NewGraph()
	watch, err := g.Add("Watch", scene.InvalidHandle, math.NewVec3Zero())
	require.NoError(t, err)
	dial, err := g.Add("dial", watch, math.NewVec3(0, 0, 0.5))
	require.NoError(t, err)

	d := NewDriver(g, quiet())
	require.NoError(t, d.Configure(Track{
		Parts: []PartSpec{{Name: "dial", Axis: math.NewVec3(0, 0, 1)}},
		Keyframes: []Keyframe{{
			Name: "k", Entry: 0, Exit: 1,
			Pose:    &PoseTarget{From: math.NewVec3(0, 0, 5), To: math.NewVec3(0, 0, 5)},
			Offsets: []OffsetRange{{Part: "dial", From: 0, To: 1}},
		}},
	}))

	cam := &poseRecorder{}
	f := d.Update(0.5, 0)
	require.NoError(t, d.Apply(f, cam, g))

	assert.Equal(t, 1, cam.calls)
	assert.Equal(t, math.NewVec3(0, 0, 5), cam.position)
	p, ok := g.WorldPosition(dial)
	require.True(t, ok)
	assert.InDelta(t, 1.0, p.Z, 1e-5)

	require.NoError(t, g.Remove(dial))
	assert.ErrorIs(t, d.Apply(f, nil, g), core.ErrStaleHandle)
	assert.NoError(t, d.Apply(d.Update(0.5, 0), nil, g))
}

func TestDisposeReleasesListeners(t *testing.T) {
	bus := core.NewEventBus()
	m, err := NewModeMachine(HubRig{})
	require.NoError(t, err)
	d := NewDriver(nil, quiet(), WithModes(m))
	require.NoError(t, d.Configure(Track{}))
	require.NoError(t, d.Bind(bus))
	assert.Equal(t, 1, bus.ListenerCount(core.EVENT_CODE_EXPERIENCE_START))
	assert.Equal(t, 1, bus.ListenerCount(core.EVENT_CODE_MOUSE_WHEEL))

	last := d.Update(0.5, 0.1)
	d.Dispose()
	d.Dispose()

	assert.Equal(t, 0, bus.ListenerCount(core.EVENT_CODE_EXPERIENCE_START))
	assert.Equal(t, 0, bus.ListenerCount(core.EVENT_CODE_MOUSE_WHEEL))
	assert.Equal(t, last, d.Update(0.9, 0.1))
	assert.ErrorIs(t, d.Configure(Track{}), core.ErrDisposed)
	assert.ErrorIs(t, d.Bind(bus), core.ErrDisposed)
}

func TestUpdateBeforeConfigure(t *testing.T) {
	d := NewDriver(nil, quiet())
	f := d.Update(0.5, 0.1)
	assert.Equal(t, -1, f.Active)
	assert.True(t, f.Pose.IsFinite())
}

func TestPartWindowValue(t *testing.T) {
	w := PartWindow{Entry: 0.15, Exit: 0.45, Ramp: 0.1, From: -25, To: -8}
	tests := []struct {
		p, want float32
	}{
		{0, -25},
		{0.15, -25},
		{0.2, -16.5},
		{0.3, -8},
		{0.45, -8},
		{0.5, -16.5},
		{0.6, -25},
		{1, -25},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, w.Value(tc.p), 1e-4, "p=%v", tc.p)
	}
}

func TestOverlappingPartWindows(t *testing.T) {
	track := Track{
		Name: "flight",
		Parts: []PartSpec{
			{Name: "first", Axis: math.NewVec3(1, 0, 0), Window: &PartWindow{Entry: 0.15, Exit: 0.45, Ramp: 0.1, From: -25, To: -8}},
			{Name: "second", Axis: math.NewVec3(1, 0, 0), Window: &PartWindow{Entry: 0.40, Exit: 0.60, Ramp: 0.1, From: 20, To: 8}},
			{Name: "still", Axis: math.NewVec3(1, 0, 0), Rest: 3},
		},
		Keyframes: []Keyframe{{
			Name: "descent", Entry: 0, Exit: 1,
			Pose: &PoseTarget{To: math.NewVec3(0, -100, 0), LookFrom: math.NewVec3(0, 0, -10), LookTo: math.NewVec3(0, -100, -10)},
		}},
	}
	d := newConfigured(t, track)

	f := d.Update(0.5, 0)
	assert.InDelta(t, -16.5, f.Offsets[0].Offset, 1e-4)
	assert.InDelta(t, 8, f.Offsets[1].Offset, 1e-4)
	assert.InDelta(t, 3, f.Offsets[2].Offset, 1e-6)
	assert.InDelta(t, -50, f.Pose.Position.Y, 1e-4)

	// Both windows keep moving together while damping.
	for i := 0; i < 240; i++ {
		f = d.Update(0.2, 1.0/60)
	}
	assert.InDelta(t, -16.5, f.Offsets[0].Offset, 1e-3)
	assert.InDelta(t, 20, f.Offsets[1].Offset, 1e-3)

	// Reset places windowed parts at their value for the last progress.
	d.Update(0.3, 0.1)
	d.Reset(f.Pose)
	assert.InDelta(t, -8, d.Frame().Offsets[0].Offset, 1e-4)
}
