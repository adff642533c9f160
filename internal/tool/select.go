package tool

import "github.com/irfansharif/iconwire/internal/scene"

// SelectTool forwards every pointer event to every node; nodes hit-test
// themselves. It remembers the selected node so a tool switch can let go of
// it.
type SelectTool struct {
	selected *scene.Node
}

var _ Cleaner = (*SelectTool)(nil)

// Selected returns the clicked node, if any.
func (t *SelectTool) Selected() *scene.Node { return t.selected }

func (t *SelectTool) OnMouseDown(ev *scene.PointerEvent) {
	for _, n := range ev.Nodes {
		switch n.OnMouseDown(ev) {
		case scene.IntentDelete:
			toolLogger.Printf("select: deleting node %d", n.Index)
			ev.Scene.RemoveNode(n.Index)
			if t.selected == n {
				t.selected = nil
			}
		case scene.IntentSelect:
			t.selected = n
		default:
			if t.selected == n {
				t.selected = nil
			}
		}
	}
}

func (t *SelectTool) OnMouseUp(ev *scene.PointerEvent) {
	for _, n := range ev.Nodes {
		n.OnMouseUp(ev)
	}
}

func (t *SelectTool) OnMouseMove(ev *scene.PointerEvent) {
	for _, n := range ev.Nodes {
		n.OnMouseMove(ev)
	}
}

// OnToolChange deselects the selected node, stopping any drag.
func (t *SelectTool) OnToolChange(scene.Mutator) {
	if t.selected != nil {
		t.selected.Deselect()
		t.selected = nil
	}
}
