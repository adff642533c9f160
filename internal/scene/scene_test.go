package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/palette"
)

func addNode(t *testing.T, s *Scene, x, y float64) *Node {
	t.Helper()
	n := NewNode(s.NodesCreated(), mgl64.Vec3{x, y, 2}, palette.TextureDefault)
	require.NoError(t, s.AddNode(n))
	return n
}

func connect(t *testing.T, s *Scene, a *Node, as geom.Side, b *Node, bs geom.Side) *Connection {
	t.Helper()
	c := NewConnection(s.ConnectionsCreated(), a, as)
	require.NoError(t, s.AddConnection(c))
	require.NoError(t, c.Complete(b, bs))
	return c
}

func indices[T interface{ *Node | *Connection }](items []T) []int {
	var out []int
	for _, item := range items {
		switch v := any(item).(type) {
		case *Node:
			out = append(out, v.Index)
		case *Connection:
			out = append(out, v.Index)
		}
	}
	return out
}

func TestSceneCountersMonotonic(t *testing.T) {
	s := New()
	a := addNode(t, s, 0, 0)
	b := addNode(t, s, 2, 0)
	assert.Equal(t, 0, a.Index)
	assert.Equal(t, 1, b.Index)

	s.RemoveNode(b.Index)
	assert.Equal(t, 2, s.NodesCreated())
	c := addNode(t, s, 2, 0)
	assert.Equal(t, 2, c.Index, "indices are never reused")
	assert.Equal(t, []int{0, 2}, indices(s.Nodes()))

	assert.Error(t, s.AddNode(c), "duplicate index")
	assert.Error(t, s.AddNode(nil))
	require.NoError(t, s.Validate())
}

func TestSceneCascadingDelete(t *testing.T) {
	s := New()
	a := addNode(t, s, 0, 0)
	b := addNode(t, s, -3, 0)
	c := addNode(t, s, 3, 0)
	ab := connect(t, s, a, geom.Left, b, geom.Right)
	ac := connect(t, s, a, geom.Right, c, geom.Left)
	bc := connect(t, s, b, geom.Top, c, geom.Top)
	require.NoError(t, s.Validate())

	s.RemoveNode(a.Index)

	assert.Equal(t, []int{b.Index, c.Index}, indices(s.Nodes()))
	assert.Equal(t, []int{bc.Index}, indices(s.Connections()))
	assert.True(t, b.PortFree(geom.Right))
	assert.True(t, c.PortFree(geom.Left))
	assert.Same(t, bc, b.SideConnections[geom.Top])
	assert.Same(t, bc, c.SideConnections[geom.Top])
	for _, removed := range []*Connection{ab, ac} {
		_, ok := s.Connection(removed.Index)
		assert.False(t, ok)
	}
	require.NoError(t, s.Validate())
}

func TestSceneDeleteScenario(t *testing.T) {
	// Connect A.right to B.left, then delete A.
	s := New()
	a := addNode(t, s, 0, 0)
	b := addNode(t, s, 2, 0)
	connect(t, s, a, geom.Right, b, geom.Left)

	s.RemoveNode(a.Index)
	assert.Empty(t, s.Connections())
	assert.Nil(t, b.SideConnections[geom.Left])
	require.NoError(t, s.Validate())
}

func TestScenePortExclusivity(t *testing.T) {
	s := New()
	a := addNode(t, s, 0, 0)
	b := addNode(t, s, 2, 0)
	c := addNode(t, s, 0, 2)
	first := connect(t, s, a, geom.Right, b, geom.Left)

	// Starting on an occupied port.
	dup := NewConnection(s.ConnectionsCreated(), a, geom.Right)
	assert.ErrorIs(t, s.AddConnection(dup), ErrPortOccupied)

	// Completing onto an occupied port.
	other := NewConnection(s.ConnectionsCreated(), c, geom.Bottom)
	require.NoError(t, s.AddConnection(other))
	assert.ErrorIs(t, other.Complete(b, geom.Left), ErrPortOccupied)
	assert.False(t, other.Completed())

	assert.Same(t, first, a.SideConnections[geom.Right])
	assert.Same(t, first, b.SideConnections[geom.Left])
	assert.Len(t, s.Connections(), 2)
	require.NoError(t, s.Validate())
}

func TestSceneRejectsSelfLoop(t *testing.T) {
	s := New()
	a := addNode(t, s, 0, 0)

	c := NewConnection(s.ConnectionsCreated(), a, geom.Right)
	require.NoError(t, s.AddConnection(c))
	assert.ErrorIs(t, c.Complete(a, geom.Left), ErrSelfLoop)
	assert.Nil(t, a.SideConnections[geom.Left])

	loop := NewConnection(s.ConnectionsCreated(), a, geom.Top)
	loop.End, loop.EndSide = a, geom.Bottom
	assert.ErrorIs(t, s.AddConnection(loop), ErrSelfLoop)
	assert.Nil(t, a.SideConnections[geom.Top])
	assert.Nil(t, a.SideConnections[geom.Bottom])
}

func TestSceneRemoveConnectionFreesPorts(t *testing.T) {
	s := New()
	a := addNode(t, s, 0, 0)
	b := addNode(t, s, 2, 0)
	c := connect(t, s, a, geom.Right, b, geom.Left)

	s.RemoveConnection(c.Index)
	assert.Empty(t, s.Connections())
	assert.True(t, a.PortFree(geom.Right))
	assert.True(t, b.PortFree(geom.Left))
	assert.Equal(t, 1, s.ConnectionsCreated())
}

func TestSceneStaleRemovalIsNoop(t *testing.T) {
	s := New()
	a := addNode(t, s, 0, 0)
	b := addNode(t, s, 2, 0)
	c := connect(t, s, a, geom.Right, b, geom.Left)

	nodes, connections := s.Nodes(), s.Connections()
	s.RemoveNode(42)
	s.RemoveConnection(42)
	assert.Equal(t, nodes, s.Nodes())
	assert.Equal(t, connections, s.Connections())

	s.RemoveConnection(c.Index)
	s.RemoveConnection(c.Index)
	s.RemoveNode(a.Index)
	s.RemoveNode(a.Index)
	assert.Equal(t, []int{b.Index}, indices(s.Nodes()))
	require.NoError(t, s.Validate())
}

func TestSceneSnapshotsAreStable(t *testing.T) {
	s := New()
	a := addNode(t, s, 0, 0)
	snapshot := s.Nodes()

	addNode(t, s, 2, 0)
	s.RemoveNode(a.Index)

	assert.Equal(t, []int{0}, indices(snapshot))
	assert.Equal(t, []int{1}, indices(s.Nodes()))
}

func TestSceneValidateDetectsCorruption(t *testing.T) {
	s := New()
	a := addNode(t, s, 0, 0)
	b := addNode(t, s, 2, 0)
	c := connect(t, s, a, geom.Right, b, geom.Left)

	b.SideConnections[geom.Top] = c
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node 1 top holds connection 0, which is bound elsewhere")

	b.SideConnections[geom.Top] = nil
	a.SideConnections[geom.Right] = nil
	err = s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection 0 does not occupy node 0 right")
}
