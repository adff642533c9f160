package tool

import (
	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/palette"
	"github.com/irfansharif/iconwire/internal/scene"
)

// AddTool places a new node at the cursor on pointer-down. The node is
// dragged with the pointer until it is released.
type AddTool struct {
	texture palette.TextureID
	extents geom.Extents
	placing *scene.Node
}

var _ Cleaner = (*AddTool)(nil)

// Placing returns the node being placed, if any.
func (t *AddTool) Placing() *scene.Node { return t.placing }

func (t *AddTool) OnMouseDown(ev *scene.PointerEvent) {
	n := scene.NewNode(ev.NodesCreated, ev.World, t.texture)
	if t.extents != (geom.Extents{}) {
		n.Extents = t.extents
	}
	if err := ev.Scene.AddNode(n); err != nil {
		toolLogger.Printf("add: %v", err)
		return
	}

	// Grab it under the cursor, then settle it against its neighbours. With
	// no room anywhere in view the placement is dropped.
	n.OnMouseDown(ev)
	if !n.MoveTo(n.Position(), ev.Nodes, ev.Camera) {
		toolLogger.Printf("add: no room for node %d near %v", n.Index, n.Position())
		ev.Scene.RemoveNode(n.Index)
		return
	}
	t.placing = n
	toolLogger.Printf("add: placed node %d at %v", n.Index, n.Position())
}

func (t *AddTool) OnMouseUp(ev *scene.PointerEvent) {
	if t.placing == nil {
		return
	}
	t.placing.OnMouseUp(ev)
	t.placing.Deselect()
	t.placing = nil
}

func (t *AddTool) OnMouseMove(ev *scene.PointerEvent) {
	if t.placing != nil {
		t.placing.OnMouseMove(ev)
	}
}

// OnToolChange abandons the placement. The node stays in the scene.
func (t *AddTool) OnToolChange(scene.Mutator) {
	if t.placing != nil {
		t.placing.Deselect()
		t.placing = nil
	}
}
