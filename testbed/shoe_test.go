package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
)

func TestShoePaintsSections(t *testing.T) {
	env, in := newEnv(t)
	s := NewShoeExperience()
	require.NoError(t, s.Setup(env))
	defer s.Dispose()

	hex, _ := s.Palette().Picked("Swoosh")
	assert.Equal(t, "#c8102e", hex)

	// P paints the selected section with the next preset.
	in.ProcessKey(core.KEY_P, true)
	in.ProcessKey(core.KEY_P, false)
	for _, part := range []string{"Base", "Collar", "Insole"} {
		hex, _ := s.Palette().Picked(part)
		assert.Equal(t, "#1a1a1a", hex, part)
	}

	in.ProcessKey(core.KEY_RIGHT, true)
	in.ProcessKey(core.KEY_P, true)
	for _, part := range []string{"Overlay", "Straps"} {
		hex, _ := s.Palette().Picked(part)
		assert.Equal(t, "#f0f0f0", hex, part)
	}

	// Displayed colours catch up over time.
	step(t, s, 60, 0.1)
	c, ok := s.Palette().Displayed("Base")
	require.True(t, ok)
	assert.Equal(t, "#1a1a1a", c.Hex())

	assert.Error(t, s.Paint("Base", "Rainbow"))
	assert.ErrorIs(t, s.Paint("Laces", "Gold"), core.ErrUnknownPart)
	assert.NoError(t, s.Paint("Accents", "Gold"))
}

func TestShoeOrbit(t *testing.T) {
	env, in := newEnv(t)
	s := NewShoeExperience()
	require.NoError(t, s.Setup(env))
	defer s.Dispose()

	step(t, s, 1, 1.0/60)
	assert.True(t, env.Camera.GetPosition().Compare(math.NewVec3(0, 0, 0.6), 1e-4))

	in.ProcessMouseWheel(viewportHeight)
	step(t, s, 200, 0.1)
	assert.True(t, env.Camera.GetPosition().Compare(math.NewVec3(0.42, 0.12, 0.42), 1e-3), "camera at %+v", env.Camera.GetPosition())

	// The shoe keeps its -45° turn.
	h, ok := env.Graph.Lookup("Shoe")
	require.True(t, ok)
	node, err := env.Graph.Node(h)
	require.NoError(t, err)
	want := math.NewQuatFromAxisAngle(math.NewVec3Up(), -0.785398, true)
	assert.True(t, node.Transform.Rotation.Compare(want, 1e-4))
}
