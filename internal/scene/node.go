package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/irfansharif/iconwire/internal/camera"
	"github.com/irfansharif/iconwire/internal/collision"
	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/palette"
	"github.com/irfansharif/iconwire/internal/vecmath"
)

// DefaultExtents is the local bounding box of an icon.
var DefaultExtents = geom.MakeExtents(-0.5, 0.5, -0.458, 0.458)

// Delete affordance geometry, relative to the node's centre.
var (
	nodeDeleteOffset   = mgl64.Vec3{0.42, 0.36, 0}
	deleteHalfSize     = 0.075
	deleteAffordanceXY = geom.MakeExtents(-deleteHalfSize, deleteHalfSize, -deleteHalfSize, deleteHalfSize)
)

// Drag holds the drag/delete state of a node that supports it.
type Drag struct {
	Clicked     bool       // selected; the delete affordance is showing
	Dragging    bool       // pointer is down and moves translate the node
	ClickOffset mgl64.Vec3 // node position relative to the cursor at pointer-down
}

// Node is an icon on the canvas with four ports.
type Node struct {
	Index            int
	Transform        mgl64.Mat4
	Extents          geom.Extents
	Texture          palette.TextureID
	SecondaryTexture palette.TextureID // inner inset; same as Texture to draw none
	Tint             *colorful.Color

	// SideConnections holds the connection occupying each port, indexed by
	// geom.Side.
	SideConnections [4]*Connection

	// Drag is nil for nodes that cannot be dragged or deleted.
	Drag *Drag
}

// NewNode returns a draggable node centred at position.
func NewNode(index int, position mgl64.Vec3, texture palette.TextureID) *Node {
	return &Node{
		Index:            index,
		Transform:        vecmath.Translation(position),
		Extents:          DefaultExtents,
		Texture:          texture,
		SecondaryTexture: texture,
		Drag:             &Drag{},
	}
}

// ID implements collision.Body.
func (n *Node) ID() int { return n.Index }

// Position is the translation column of the node's transform.
func (n *Node) Position() mgl64.Vec3 { return vecmath.TranslationOf(n.Transform) }

// SetPosition moves the node without collision checks.
func (n *Node) SetPosition(p mgl64.Vec3) { n.Transform = vecmath.WithTranslation(n.Transform, p) }

// Bounds implements collision.Body.
func (n *Node) Bounds() geom.Bounds { return n.ScaledBounds(1) }

// ScaledBounds returns the node's world bounds with extents scaled by s.
func (n *Node) ScaledBounds(s float64) geom.Bounds {
	return geom.BoundsFor(n.Position(), n.Extents, s)
}

// Contains reports whether p lies within the node's bounds scaled by s.
func (n *Node) Contains(p mgl64.Vec3, s float64) bool {
	return n.ScaledBounds(s).Contains(p)
}

// SideMidpoints returns the node's ports in side order.
func (n *Node) SideMidpoints() [4]mgl64.Vec3 {
	return geom.SideMidpoints(n.Position(), n.Extents)
}

// Port returns the world position of the given port.
func (n *Node) Port(s geom.Side) mgl64.Vec3 { return n.SideMidpoints()[s] }

// PortFree reports whether no connection occupies the given port.
func (n *Node) PortFree(s geom.Side) bool { return n.SideConnections[s] == nil }

// Selected reports whether the node is clicked.
func (n *Node) Selected() bool { return n.Drag != nil && n.Drag.Clicked }

// DeleteBounds is the hit box of the node's delete affordance.
func (n *Node) DeleteBounds() geom.Bounds {
	return geom.BoundsFor(n.Position().Add(nodeDeleteOffset), deleteAffordanceXY, 1)
}

// OnMouseDown hit-tests the pointer against the node. Clicking the delete
// affordance of a selected node asks for its removal; clicking the body
// selects it and starts a drag; clicking elsewhere deselects it.
func (n *Node) OnMouseDown(ev *PointerEvent) Intent {
	if n.Drag == nil {
		return IntentNone
	}
	if n.Drag.Clicked && n.DeleteBounds().Contains(ev.World) {
		return IntentDelete
	}
	if n.Contains(ev.World, 1) {
		n.Drag.Clicked = true
		n.Drag.Dragging = true
		n.Drag.ClickOffset = n.Position().Sub(ev.World)
		return IntentSelect
	}
	n.Deselect()
	return IntentNone
}

// OnMouseUp ends a drag. The node stays selected.
func (n *Node) OnMouseUp(*PointerEvent) {
	if n.Drag != nil {
		n.Drag.Dragging = false
	}
}

// OnMouseMove drags the node, if it is being dragged, keeping it clear of
// the other nodes and inside the camera's view.
func (n *Node) OnMouseMove(ev *PointerEvent) {
	if n.Drag == nil || !n.Drag.Dragging {
		return
	}
	candidate := ev.World.Add(n.Drag.ClickOffset)
	candidate[2] = n.Position()[2]
	n.MoveTo(candidate, ev.Nodes, ev.Camera)
}

// MoveTo places the node as close to candidate as it can without
// overlapping others or leaving the camera's view, and reports whether it
// moved. When there is no such position the node stays where it is.
func (n *Node) MoveTo(candidate mgl64.Vec3, others []*Node, cam *camera.Camera) bool {
	pos, ok := collision.Place(candidate, n.Index, n.Extents, others, cam)
	if !ok {
		return false
	}
	n.SetPosition(pos)
	return true
}

// Deselect clears the node's selection and any drag in progress.
func (n *Node) Deselect() {
	if n.Drag != nil {
		n.Drag.Clicked = false
		n.Drag.Dragging = false
	}
}
