package tool

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/scene"
)

// Indicator marks the port a click would connect to.
type Indicator struct {
	Node      *scene.Node
	Side      geom.Side
	Position  mgl64.Vec3
	Transform mgl64.Mat4 // arrow glyph placement
}

// ConnectTool draws connections between ports. It is idle until a click
// lands near a free port, then draws a working connection to the cursor
// until a second click completes it on another node's free port or
// discards it.
type ConnectTool struct {
	opts      Options
	working   *scene.Connection
	indicator *Indicator
	hovered   []*scene.Connection // connections that saw the last move
}

var (
	_ Cleaner = (*ConnectTool)(nil)
	_ Hoverer = (*ConnectTool)(nil)
	_ Overlay = (*ConnectTool)(nil)
)

// Working returns the connection being drawn, if any.
func (t *ConnectTool) Working() *scene.Connection { return t.working }

// Indicator returns the port indicator, if one is showing.
func (t *ConnectTool) Indicator() (Indicator, bool) {
	if t.indicator == nil {
		return Indicator{}, false
	}
	return *t.indicator, true
}

func (t *ConnectTool) OnMouseDown(ev *scene.PointerEvent) {
	if t.working == nil {
		for _, c := range ev.Connections {
			if c.OnMouseDown(ev) == scene.IntentDelete {
				toolLogger.Printf("connect: deleting connection %d", c.Index)
				ev.Scene.RemoveConnection(c.Index)
				return
			}
		}
	}

	n, side, ok := t.nearestPort(ev.World, ev.Nodes)
	if t.working == nil {
		if !ok {
			return
		}
		c := scene.NewConnection(ev.ConnectionsCreated, n, side)
		c.Cursor = ev.World
		if err := ev.Scene.AddConnection(c); err != nil {
			toolLogger.Printf("connect: %v", err)
			return
		}
		t.working = c
		t.indicator = nil
		toolLogger.Printf("connect: started connection %d at node %d %s", c.Index, n.Index, side)
		return
	}

	c := t.working
	t.working = nil
	t.indicator = nil
	if !ok {
		toolLogger.Printf("connect: no port in range, discarding connection %d", c.Index)
		ev.Scene.RemoveConnection(c.Index)
		return
	}
	if err := c.Complete(n, side); err != nil {
		toolLogger.Printf("connect: discarding connection %d: %v", c.Index, err)
		ev.Scene.RemoveConnection(c.Index)
		return
	}
	toolLogger.Printf("connect: completed connection %d at node %d %s", c.Index, n.Index, side)
}

func (t *ConnectTool) OnMouseUp(*scene.PointerEvent) {}

func (t *ConnectTool) OnMouseMove(ev *scene.PointerEvent) {
	for _, c := range ev.Connections {
		c.OnMouseMove(ev)
	}
	t.hovered = ev.Connections

	// A connection can't end on the node it starts from.
	n, side, ok := t.nearestPort(ev.World, ev.Nodes)
	if !ok || (t.working != nil && n == t.working.Start) {
		t.indicator = nil
		return
	}
	port := n.Port(side)
	t.indicator = &Indicator{
		Node:      n,
		Side:      side,
		Position:  port,
		Transform: geom.ArrowTransform(side, port, mgl64.Vec3{t.opts.ArrowScale, t.opts.ArrowScale, 1}),
	}
}

func (t *ConnectTool) OnMouseOver(*scene.PointerEvent) {}

// OnMouseOut hides the indicator and delete affordances when the pointer
// leaves the canvas. A working connection survives; it keeps its last
// cursor position.
func (t *ConnectTool) OnMouseOut(*scene.PointerEvent) {
	t.indicator = nil
	t.clearHover()
}

// OnToolChange discards the working connection, the indicator and any
// delete affordances.
func (t *ConnectTool) OnToolChange(m scene.Mutator) {
	if t.working != nil {
		toolLogger.Printf("connect: tool change, discarding connection %d", t.working.Index)
		m.RemoveConnection(t.working.Index)
		t.working = nil
	}
	t.indicator = nil
	t.clearHover()
}

func (t *ConnectTool) clearHover() {
	for _, c := range t.hovered {
		c.ClearHover()
	}
	t.hovered = nil
}

// nearestPort finds the free port closest to p, among nodes whose enlarged
// bounds contain p and within the distance limit. Ties keep the first port
// found, scanning nodes in order and sides left to top.
func (t *ConnectTool) nearestPort(p mgl64.Vec3, nodes []*scene.Node) (*scene.Node, geom.Side, bool) {
	var (
		best     *scene.Node
		bestSide = geom.NoSide
		bestDist float64
	)
	for _, n := range nodes {
		if !n.Contains(p, t.opts.ProximityScale) {
			continue
		}
		ports := n.SideMidpoints()
		for _, side := range geom.Sides {
			if !n.PortFree(side) {
				continue
			}
			d := ports[side].Sub(p).Vec2().Len()
			if d > t.opts.DistanceLimit {
				continue
			}
			if best == nil || d < bestDist {
				best, bestSide, bestDist = n, side, d
			}
		}
	}
	return best, bestSide, best != nil
}
