package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/iconwire/internal/camera"
)

// Intent is what a node or connection asks of the active tool in response to
// a pointer-down. The tool decides what to do with it.
type Intent int

const (
	IntentNone   Intent = iota
	IntentSelect        // the element was clicked and is now selected
	IntentDelete        // the element's delete affordance was clicked
)

func (i Intent) String() string {
	switch i {
	case IntentNone:
		return "none"
	case IntentSelect:
		return "select"
	case IntentDelete:
		return "delete"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

// EventKind identifies a pointer event.
type EventKind int

const (
	MouseDown EventKind = iota
	MouseUp
	MouseMove
	MouseOver
	MouseOut
)

func (k EventKind) String() string {
	switch k {
	case MouseDown:
		return "down"
	case MouseUp:
		return "up"
	case MouseMove:
		return "move"
	case MouseOver:
		return "over"
	case MouseOut:
		return "out"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Mutator is the only way tools change the scene. Removal of an index that
// is not present is a no-op.
type Mutator interface {
	AddNode(n *Node) error
	RemoveNode(index int)
	AddConnection(c *Connection) error
	RemoveConnection(index int)
}

// PointerEvent is a raw pointer event enriched with everything a tool needs.
// Nodes and Connections are snapshots of the scene's collections at dispatch
// time; handlers must not modify the slices.
type PointerEvent struct {
	Kind   EventKind
	Screen mgl64.Vec2 // canvas pixels, origin top-left
	World  mgl64.Vec3 // projected onto the routing plane

	Nodes              []*Node
	Connections        []*Connection
	NodesCreated       int
	ConnectionsCreated int

	Camera *camera.Camera
	Scene  Mutator
}
