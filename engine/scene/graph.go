package scene

import (
	"fmt"
	stdmath "math"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
)

// Handle is a stable reference to a node. It stops resolving once the node is
// removed, even if the slot is later reused.
type Handle struct {
	ID         uint32
	Generation uint32
}

// InvalidHandle never resolves.
var InvalidHandle = Handle{ID: stdmath.MaxUint32, Generation: stdmath.MaxUint32}

func (h Handle) IsValid() bool {
	return h != InvalidHandle
}

type angleChannel struct {
	axis  math.Vec3
	angle float32
}

// Node is one named transform in the graph.
type Node struct {
	Name      string
	Transform *math.Transform
	parent    Handle

	restPosition math.Vec3
	restRotation math.Quaternion
	channels     []angleChannel
}

// Graph keeps named nodes in an arena indexed by Handle. Names are resolved to
// handles once and handles are used from then on.
type Graph struct {
	pool  *core.IdentifierPool
	names map[string]Handle
}

func NewGraph() *Graph {
	return &Graph{
		pool:  core.NewIdentifierPool(64),
		names: make(map[string]Handle),
	}
}

// Add creates a node under parent (InvalidHandle for a root) with the given
// local position as its rest position.
func (g *Graph) Add(name string, parent Handle, position math.Vec3) (Handle, error) {
	if _, exists := g.names[name]; exists {
		return InvalidHandle, fmt.Errorf("%w: %s", core.ErrDuplicateNode, name)
	}

	node := &Node{
		Name:         name,
		Transform:    math.NewTransformAt(position),
		parent:       InvalidHandle,
		restPosition: position,
		restRotation: math.NewQuatIdentity(),
	}
	if parent.IsValid() {
		p, err := g.Node(parent)
		if err != nil {
			return InvalidHandle, fmt.Errorf("add %s: %w", name, err)
		}
		node.Transform.SetParent(p.Transform)
		node.parent = parent
	}

	id, gen := g.pool.Acquire(node)
	h := Handle{ID: id, Generation: gen}
	g.names[name] = h
	return h, nil
}

// Lookup resolves a name to its handle.
func (g *Graph) Lookup(name string) (Handle, bool) {
	h, ok := g.names[name]
	return h, ok
}

// Node returns the node behind h or core.ErrStaleHandle.
func (g *Graph) Node(h Handle) (*Node, error) {
	owner, ok := g.pool.Owner(h.ID, h.Generation)
	if !ok {
		return nil, fmt.Errorf("%w: %d/%d", core.ErrStaleHandle, h.ID, h.Generation)
	}
	return owner.(*Node), nil
}

// WorldPosition reports the current world-space origin of the node.
func (g *Graph) WorldPosition(h Handle) (math.Vec3, bool) {
	node, err := g.Node(h)
	if err != nil {
		return math.Vec3{}, false
	}
	return node.Transform.WorldPosition(), true
}

// SetOffset displaces the node from its rest position along axis. Offsets
// along orthogonal unit axes are independent of each other.
func (g *Graph) SetOffset(h Handle, axis math.Vec3, offset float32) error {
	node, err := g.Node(h)
	if err != nil {
		return err
	}
	axis = axis.Normalized()
	current := node.Transform.Position.Sub(node.restPosition).Dot(axis)
	node.Transform.Translate(axis.MulScalar(offset - current))
	return nil
}

// SetAngle sets the rotation of the node about axis, on top of its rest
// rotation. Each axis is a separate channel applied in the order first set.
func (g *Graph) SetAngle(h Handle, axis math.Vec3, angle float32) error {
	node, err := g.Node(h)
	if err != nil {
		return err
	}
	axis = axis.Normalized()
	found := false
	for i := range node.channels {
		if node.channels[i].axis.Compare(axis, math.K_FLOAT_EPSILON) {
			node.channels[i].angle = angle
			found = true
			break
		}
	}
	if !found {
		node.channels = append(node.channels, angleChannel{axis: axis, angle: angle})
	}

	rotation := node.restRotation
	for _, c := range node.channels {
		rotation = rotation.Mul(math.NewQuatFromAxisAngle(c.axis, c.angle, true))
	}
	node.Transform.SetRotation(rotation)
	return nil
}

// SetRotationY spins the node about the world up axis.
func (g *Graph) SetRotationY(h Handle, angle float32) error {
	return g.SetAngle(h, math.NewVec3Up(), angle)
}

// Remove deletes the node. Its children become roots and keep their local
// transforms. Outstanding handles to it stop resolving.
func (g *Graph) Remove(h Handle) error {
	node, err := g.Node(h)
	if err != nil {
		return err
	}
	for _, other := range g.names {
		child, err := g.Node(other)
		if err != nil {
			continue
		}
		if child.parent == h {
			child.parent = InvalidHandle
			child.Transform.SetParent(nil)
		}
	}
	delete(g.names, node.Name)
	return g.pool.Release(h.ID)
}

// Len reports the number of live nodes.
func (g *Graph) Len() int {
	return g.pool.Len()
}
