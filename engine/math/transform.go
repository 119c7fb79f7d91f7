package math

// NewTransform creates a parentless transform at the origin with identity
// rotation and unit scale.
func NewTransform() *Transform {
	return NewTransformFrom(NewVec3Zero(), NewQuatIdentity(), NewVec3One())
}

// NewTransformAt creates a parentless transform at position.
func NewTransformAt(position Vec3) *Transform {
	return NewTransformFrom(position, NewQuatIdentity(), NewVec3One())
}

func NewTransformFrom(position Vec3, rotation Quaternion, scale Vec3) *Transform {
	t := &Transform{Local: NewMat4Identity()}
	t.SetPositionRotationScale(position, rotation, scale)
	return t
}

func (t *Transform) SetPosition(position Vec3) {
	t.Position = position
	t.IsDirty = true
}

func (t *Transform) Translate(translation Vec3) {
	t.Position = t.Position.Add(translation)
	t.IsDirty = true
}

func (t *Transform) SetRotation(rotation Quaternion) {
	t.Rotation = rotation
	t.IsDirty = true
}

func (t *Transform) Rotate(rotation Quaternion) {
	t.Rotation = t.Rotation.Mul(rotation)
	t.IsDirty = true
}

func (t *Transform) SetPositionRotationScale(position Vec3, rotation Quaternion, scale Vec3) {
	t.Position = position
	t.Rotation = rotation
	t.Scale = scale
	t.IsDirty = true
}

// SetParent attaches t under parent. A nil parent detaches it.
func (t *Transform) SetParent(parent *Transform) {
	t.Parent = parent
}

/**
 * @brief Returns the local matrix (scale, then rotation, then translation),
 * recomputing it only when the transform is dirty.
 */
func (t *Transform) GetLocal() Mat4 {
	if t == nil {
		return NewMat4Identity()
	}
	if t.IsDirty {
		t.Local = NewMat4Scale(t.Scale).
			Mul(t.Rotation.ToMat4()).
			Mul(NewMat4Translation(t.Position))
		t.IsDirty = false
	}
	return t.Local
}

/**
 * @brief Returns the world matrix: the local matrix followed by every
 * ancestor's local matrix.
 */
func (t *Transform) GetWorld() Mat4 {
	if t == nil {
		return NewMat4Identity()
	}
	l := t.GetLocal()
	if t.Parent != nil {
		return l.Mul(t.Parent.GetWorld())
	}
	return l
}

// WorldPosition is the origin of t expressed in world space.
func (t *Transform) WorldPosition() Vec3 {
	return t.GetWorld().Translation()
}
