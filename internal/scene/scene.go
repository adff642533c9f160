// Package scene holds the editor's nodes and connections.
//
// The Scene owns both collections and the creation counters that hand out
// indices. Collections are replaced wholesale on every mutation, so a slice
// returned by Nodes or Connections is a stable snapshot: a draw pass holding
// it never observes a later mutation half-applied. Nodes and connections
// themselves are shared between snapshots.
package scene

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/irfansharif/iconwire/internal/geom"
)

var sceneLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("ICONWIRE_DEBUG_SCENE") == "1" {
		sceneLogger = log.New(os.Stdout, "[scene] ", log.Ltime|log.Lmsgprefix)
	}
}

// Scene is the single source of truth for what is on the canvas.
type Scene struct {
	nodes              []*Node
	connections        []*Connection
	nodesCreated       int // next node index to assign
	connectionsCreated int // next connection index to assign
}

var _ Mutator = (*Scene)(nil)

// New returns an empty scene.
func New() *Scene { return &Scene{} }

// Nodes returns the current node snapshot, in creation order.
func (s *Scene) Nodes() []*Node { return s.nodes }

// Connections returns the current connection snapshot, in creation order.
func (s *Scene) Connections() []*Connection { return s.connections }

// NodesCreated is the index the next node should take.
func (s *Scene) NodesCreated() int { return s.nodesCreated }

// ConnectionsCreated is the index the next connection should take.
func (s *Scene) ConnectionsCreated() int { return s.connectionsCreated }

// Node looks up a node by index.
func (s *Scene) Node(index int) (*Node, bool) {
	for _, n := range s.nodes {
		if n.Index == index {
			return n, true
		}
	}
	return nil, false
}

// Connection looks up a connection by index.
func (s *Scene) Connection(index int) (*Connection, bool) {
	for _, c := range s.connections {
		if c.Index == index {
			return c, true
		}
	}
	return nil, false
}

// AddNode appends n. Its index must not be in use.
func (s *Scene) AddNode(n *Node) error {
	if n == nil {
		return fmt.Errorf("adding nil node")
	}
	if _, ok := s.Node(n.Index); ok {
		return fmt.Errorf("node %d already in scene", n.Index)
	}

	nodes := make([]*Node, len(s.nodes), len(s.nodes)+1)
	copy(nodes, s.nodes)
	s.nodes = append(nodes, n)
	s.nodesCreated = max(s.nodesCreated, n.Index+1)
	sceneLogger.Printf("added node %d at %v", n.Index, n.Position())
	return nil
}

// RemoveNode removes the node with the given index along with every
// connection bound to it. Unknown indices are ignored.
func (s *Scene) RemoveNode(index int) {
	n, ok := s.Node(index)
	if !ok {
		sceneLogger.Printf("remove node %d: not in scene", index)
		return
	}

	for _, c := range n.SideConnections {
		if c != nil {
			s.RemoveConnection(c.Index)
		}
	}
	// A connection can only reference a node through a port, but a scene
	// that failed validation may disagree; sweep anything left.
	for _, c := range s.connections {
		if c.Touches(n) {
			s.RemoveConnection(c.Index)
		}
	}

	nodes := make([]*Node, 0, len(s.nodes)-1)
	for _, o := range s.nodes {
		if o.Index != index {
			nodes = append(nodes, o)
		}
	}
	s.nodes = nodes
	sceneLogger.Printf("removed node %d", index)
}

// AddConnection appends c and occupies the ports it is bound to.
func (s *Scene) AddConnection(c *Connection) error {
	if c == nil || c.Start == nil {
		return fmt.Errorf("adding connection without a start node")
	}
	if _, ok := s.Connection(c.Index); ok {
		return fmt.Errorf("connection %d already in scene", c.Index)
	}
	if !c.StartSide.Valid() || (c.End != nil && !c.EndSide.Valid()) {
		return fmt.Errorf("connection %d: invalid port side", c.Index)
	}
	if c.End != nil && c.End.Index == c.Start.Index {
		return fmt.Errorf("connection %d: %w", c.Index, ErrSelfLoop)
	}
	if occupant := c.Start.SideConnections[c.StartSide]; occupant != nil && occupant != c {
		return fmt.Errorf("connection %d: node %d %s: %w", c.Index, c.Start.Index, c.StartSide, ErrPortOccupied)
	}
	if c.End != nil {
		if occupant := c.End.SideConnections[c.EndSide]; occupant != nil && occupant != c {
			return fmt.Errorf("connection %d: node %d %s: %w", c.Index, c.End.Index, c.EndSide, ErrPortOccupied)
		}
		c.End.SideConnections[c.EndSide] = c
	}
	c.Start.SideConnections[c.StartSide] = c

	connections := make([]*Connection, len(s.connections), len(s.connections)+1)
	copy(connections, s.connections)
	s.connections = append(connections, c)
	s.connectionsCreated = max(s.connectionsCreated, c.Index+1)
	sceneLogger.Printf("added connection %d from node %d %s", c.Index, c.Start.Index, c.StartSide)
	return nil
}

// RemoveConnection removes the connection with the given index and frees
// the ports it occupied. Unknown indices are ignored.
func (s *Scene) RemoveConnection(index int) {
	c, ok := s.Connection(index)
	if !ok {
		sceneLogger.Printf("remove connection %d: not in scene", index)
		return
	}
	c.detach()

	connections := make([]*Connection, 0, len(s.connections)-1)
	for _, o := range s.connections {
		if o.Index != index {
			connections = append(connections, o)
		}
	}
	s.connections = connections
	sceneLogger.Printf("removed connection %d", index)
}

// Validate checks the scene's structural invariants: unique indices below
// the creation counters, no self-loops, and port slots that agree with the
// connections bound to them.
func (s *Scene) Validate() error {
	var errors []string

	nodes := make(map[int]*Node, len(s.nodes))
	for _, n := range s.nodes {
		if _, ok := nodes[n.Index]; ok {
			errors = append(errors, fmt.Sprintf("duplicate node index %d", n.Index))
		}
		nodes[n.Index] = n
		if n.Index >= s.nodesCreated {
			errors = append(errors, fmt.Sprintf("node %d not below creation counter %d", n.Index, s.nodesCreated))
		}
	}

	connections := make(map[int]*Connection, len(s.connections))
	for _, c := range s.connections {
		if _, ok := connections[c.Index]; ok {
			errors = append(errors, fmt.Sprintf("duplicate connection index %d", c.Index))
		}
		connections[c.Index] = c
		if c.Index >= s.connectionsCreated {
			errors = append(errors, fmt.Sprintf("connection %d not below creation counter %d", c.Index, s.connectionsCreated))
		}

		if nodes[c.Start.Index] != c.Start {
			errors = append(errors, fmt.Sprintf("connection %d starts on node %d, which is not in the scene", c.Index, c.Start.Index))
		} else if !c.StartSide.Valid() || c.Start.SideConnections[c.StartSide] != c {
			errors = append(errors, fmt.Sprintf("connection %d does not occupy node %d %s", c.Index, c.Start.Index, c.StartSide))
		}
		if c.End == nil {
			if c.EndSide != geom.NoSide {
				errors = append(errors, fmt.Sprintf("connection %d has end side %s but no end node", c.Index, c.EndSide))
			}
			continue
		}
		if c.End.Index == c.Start.Index {
			errors = append(errors, fmt.Sprintf("connection %d loops on node %d", c.Index, c.Start.Index))
		}
		if nodes[c.End.Index] != c.End {
			errors = append(errors, fmt.Sprintf("connection %d ends on node %d, which is not in the scene", c.Index, c.End.Index))
		} else if !c.EndSide.Valid() || c.End.SideConnections[c.EndSide] != c {
			errors = append(errors, fmt.Sprintf("connection %d does not occupy node %d %s", c.Index, c.End.Index, c.EndSide))
		}
	}

	for _, n := range s.nodes {
		for _, side := range geom.Sides {
			c := n.SideConnections[side]
			if c == nil {
				continue
			}
			if connections[c.Index] != c {
				errors = append(errors, fmt.Sprintf("node %d %s holds connection %d, which is not in the scene", n.Index, side, c.Index))
				continue
			}
			atStart := c.Start == n && c.StartSide == side
			atEnd := c.End == n && c.EndSide == side
			if !atStart && !atEnd {
				errors = append(errors, fmt.Sprintf("node %d %s holds connection %d, which is bound elsewhere", n.Index, side, c.Index))
			}
		}
	}

	if len(errors) > 0 {
		for _, err := range errors {
			sceneLogger.Printf("  - %s", err)
		}
		return fmt.Errorf("scene integrity check failed with %d errors: %s", len(errors), strings.Join(errors, "; "))
	}
	return nil
}
