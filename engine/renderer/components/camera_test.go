package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/labrig/engine/math"
)

func TestCameraViewMovesWorldIntoCameraSpace(t *testing.T) {
	c := NewCamera()
	c.SetPose(math.NewVec3(0, 0, 12), math.NewQuatIdentity())

	origin := math.NewVec3Zero().Transform(c.GetView())
	assert.True(t, origin.Compare(math.NewVec3(0, 0, -12), 1e-4), "got %+v", origin)
	assert.False(t, c.IsDirty)
}

func TestCameraLookAt(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3(5, 0, 0))
	c.LookAt(math.NewVec3Zero(), math.NewVec3Up())

	assert.True(t, c.Forward().Compare(math.NewVec3(-1, 0, 0), 1e-4), "got %+v", c.Forward())
	assert.True(t, c.Backward().Compare(math.NewVec3(1, 0, 0), 1e-4))
	assert.True(t, c.Up().Compare(math.NewVec3Up(), 1e-4))
}

func TestCameraMoves(t *testing.T) {
	c := NewCamera()
	c.MoveForward(2)
	c.MoveUp(1)
	c.MoveRight(3)
	assert.True(t, c.GetPosition().Compare(math.NewVec3(3, 1, -2), 1e-4), "got %+v", c.GetPosition())

	c.Reset()
	assert.Equal(t, math.NewVec3Zero(), c.GetPosition())
	assert.Equal(t, math.NewQuatIdentity(), c.GetOrientation())
}

func TestCameraYawTurnsLeft(t *testing.T) {
	c := NewCamera()
	c.Yaw(math.K_HALF_PI)
	assert.True(t, c.Forward().Compare(math.NewVec3(-1, 0, 0), 1e-4), "got %+v", c.Forward())
}
