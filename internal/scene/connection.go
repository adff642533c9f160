package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/route"
)

var (
	// ErrSelfLoop is returned when a connection would start and end on the
	// same node.
	ErrSelfLoop = errors.New("connection cannot start and end on the same node")
	// ErrPortOccupied is returned when a connection is bound to a port that
	// already holds another connection.
	ErrPortOccupied = errors.New("port already holds a connection")
)

const (
	// hoverMargin is how far outside its bounds the cursor may be for a
	// completed connection to show its delete affordances.
	hoverMargin = 0.2
)

var connectionDeleteOffset = mgl64.Vec3{0.1, 0.1, 0}

// Connection is a wire from a node's port to another node's port, or, while
// it is being drawn, to the cursor.
type Connection struct {
	Index     int
	Start     *Node
	StartSide geom.Side
	End       *Node     // nil until completed
	EndSide   geom.Side // geom.NoSide until completed
	Cursor    mgl64.Vec3

	hovered bool
}

// NewConnection returns a working connection bound at the given port. The
// port is occupied once the connection is added to a scene.
func NewConnection(index int, start *Node, side geom.Side) *Connection {
	return &Connection{
		Index:     index,
		Start:     start,
		StartSide: side,
		EndSide:   geom.NoSide,
		Cursor:    start.Port(side),
	}
}

// Completed reports whether both ends are bound.
func (c *Connection) Completed() bool { return c.End != nil }

// StartPos is the world position of the start port.
func (c *Connection) StartPos() mgl64.Vec3 { return c.Start.Port(c.StartSide) }

// EndPos is the world position of the end port, or the cursor while the
// connection is being drawn.
func (c *Connection) EndPos() mgl64.Vec3 {
	if c.End == nil {
		return c.Cursor
	}
	return c.End.Port(c.EndSide)
}

// Complete binds the free end to the given port and occupies it.
func (c *Connection) Complete(end *Node, side geom.Side) error {
	if end == c.Start || end.Index == c.Start.Index {
		return ErrSelfLoop
	}
	if !side.Valid() {
		return fmt.Errorf("completing connection %d: invalid side %s", c.Index, side)
	}
	if !end.PortFree(side) {
		return ErrPortOccupied
	}
	c.End, c.EndSide = end, side
	end.SideConnections[side] = c
	return nil
}

// Touches reports whether either end of the connection is bound to n.
func (c *Connection) Touches(n *Node) bool {
	return c.Start.Index == n.Index || (c.End != nil && c.End.Index == n.Index)
}

// detach clears every port slot that holds c.
func (c *Connection) detach() {
	for _, n := range [2]*Node{c.Start, c.End} {
		if n == nil {
			continue
		}
		for s, occupant := range n.SideConnections {
			if occupant == c {
				n.SideConnections[s] = nil
			}
		}
	}
}

// Path routes the wire. A connection being drawn routes to the cursor,
// arriving from the side the cursor is heading.
func (c *Connection) Path(opts route.Options) route.Path {
	start := c.StartPos()
	if c.End == nil {
		return route.Route(start, c.StartSide, c.Cursor, route.CursorSide(start, c.Cursor),
			c.Start.Bounds(), geom.PointBounds(c.Cursor), opts)
	}
	return route.Route(start, c.StartSide, c.EndPos(), c.EndSide,
		c.Start.Bounds(), c.End.Bounds(), opts)
}

// Bounds is the box spanned by the two ends.
func (c *Connection) Bounds() geom.Bounds {
	a, b := c.StartPos(), c.EndPos()
	return geom.MakeBounds(math.Min(a[0], b[0]), math.Max(a[0], b[0]), math.Min(a[1], b[1]), math.Max(a[1], b[1]))
}

// Contains reports whether p lies within the connection's bounds grown by
// margin on every side.
func (c *Connection) Contains(p mgl64.Vec3, margin float64) bool {
	return c.Bounds().Expand(margin).Contains(p)
}

// ShowsDelete reports whether the delete affordances are visible: the
// connection is complete and the cursor was last seen near it.
func (c *Connection) ShowsDelete() bool { return c.Completed() && c.hovered }

// ClearHover hides the delete affordances until the cursor next comes near.
func (c *Connection) ClearHover() { c.hovered = false }

// DeleteBounds returns the hit boxes of the two delete affordances, one next
// to each port.
func (c *Connection) DeleteBounds() [2]geom.Bounds {
	return [2]geom.Bounds{
		geom.BoundsFor(c.StartPos().Add(connectionDeleteOffset), deleteAffordanceXY, 1),
		geom.BoundsFor(c.EndPos().Add(connectionDeleteOffset), deleteAffordanceXY, 1),
	}
}

// OnMouseDown asks for removal when a visible delete affordance is clicked.
func (c *Connection) OnMouseDown(ev *PointerEvent) Intent {
	if !c.ShowsDelete() {
		return IntentNone
	}
	for _, b := range c.DeleteBounds() {
		if b.Contains(ev.World) {
			return IntentDelete
		}
	}
	return IntentNone
}

// OnMouseMove makes the free end follow the cursor while drawing, and
// tracks hover once complete.
func (c *Connection) OnMouseMove(ev *PointerEvent) {
	if c.End == nil {
		c.Cursor = ev.World
		return
	}
	c.hovered = c.Contains(ev.World, hoverMargin)
}
