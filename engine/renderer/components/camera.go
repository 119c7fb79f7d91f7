package components

import (
	"github.com/spaghettifunk/labrig/engine/math"
)

/**
 * @brief Represents a camera that can be used for
 * a variety of things, especially rendering. Ideally,
 * these are created and managed by the camera system.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition or SetPose instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	/**
	 * @brief The orientation of this camera. The camera looks down its
	 * local -Z axis.
	 */
	Orientation math.Quaternion
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix math.Mat4
	world      math.Mat4
}

type CameraLookup struct {
	ID             uint16
	ReferenceCount uint16
	Camera         *Camera
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = math.NewVec3Zero()
	c.Orientation = math.NewQuatIdentity()
	c.IsDirty = false
	c.ViewMatrix = math.NewMat4Identity()
	c.world = math.NewMat4Identity()
}

func (c *Camera) GetPosition() math.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) GetOrientation() math.Quaternion {
	return c.Orientation
}

func (c *Camera) SetOrientation(orientation math.Quaternion) {
	c.Orientation = orientation.Normalize()
	c.IsDirty = true
}

// SetPose sets position and orientation together. This is what the rig
// driver writes every frame.
func (c *Camera) SetPose(position math.Vec3, orientation math.Quaternion) {
	c.Position = position
	c.Orientation = orientation.Normalize()
	c.IsDirty = true
}

// LookAt orients the camera from its current position towards target.
func (c *Camera) LookAt(target, up math.Vec3) {
	c.SetOrientation(math.NewQuatLookAt(c.Position, target, up))
}

func (c *Camera) rebuild() {
	if !c.IsDirty {
		return
	}
	c.world = c.Orientation.ToMat4().Mul(math.NewMat4Translation(c.Position))
	c.ViewMatrix = c.world.Inverse()
	c.IsDirty = false
}

func (c *Camera) GetView() math.Mat4 {
	c.rebuild()
	return c.ViewMatrix
}

// GetWorld is the camera's model matrix, the inverse of the view.
func (c *Camera) GetWorld() math.Mat4 {
	c.rebuild()
	return c.world
}

func (c *Camera) Forward() math.Vec3 {
	return c.GetWorld().Forward()
}

func (c *Camera) Backward() math.Vec3 {
	return c.Forward().MulScalar(-1)
}

func (c *Camera) Left() math.Vec3 {
	return c.Right().MulScalar(-1)
}

func (c *Camera) Right() math.Vec3 {
	return c.GetWorld().Right()
}

func (c *Camera) Up() math.Vec3 {
	return c.GetWorld().Up()
}

func (c *Camera) MoveForward(amount float32) {
	c.SetPosition(c.Position.Add(c.Forward().MulScalar(amount)))
}

func (c *Camera) MoveRight(amount float32) {
	c.SetPosition(c.Position.Add(c.Right().MulScalar(amount)))
}

func (c *Camera) MoveUp(amount float32) {
	c.SetPosition(c.Position.Add(math.NewVec3Up().MulScalar(amount)))
}

// Yaw turns the camera around the world up axis.
func (c *Camera) Yaw(amount float32) {
	q := math.NewQuatFromAxisAngle(math.NewVec3Up(), amount, true)
	c.SetOrientation(q.Mul(c.Orientation))
}
