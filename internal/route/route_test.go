package route

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/iconwire/internal/geom"
)

var iconExtents = geom.MakeExtents(-0.5, 0.5, -0.458, 0.458)

func boundsAt(x, y float64) geom.Bounds {
	return geom.BoundsFor(mgl64.Vec3{x, y, 2}, iconExtents, 1)
}

func TestRouteFacingPorts(t *testing.T) {
	// A's right port at the origin, B's left port two units to the right.
	start, end := mgl64.Vec3{0, 0, 2}, mgl64.Vec3{2, 0, 2}
	path := Route(start, geom.Right, end, geom.Left, boundsAt(-0.5, 0), boundsAt(2.5, 0), DefaultOptions())

	want := []mgl64.Vec3{
		{0, 0, 2},
		{0.36, 0, 2},
		{1.16, 0, 2},
		{1.16, 0, 2},
		{1.64, 0, 2},
		{2, 0, 2},
	}
	require.Len(t, path.Points, len(want))
	for i := range want {
		assert.True(t, path.Points[i].ApproxEqualThreshold(want[i], 1e-9), "point %d: got %v, want %v", i, path.Points[i], want[i])
	}
	assert.False(t, path.Detour)
}

func TestRouteOrthogonalAllSidePairs(t *testing.T) {
	offsets := []mgl64.Vec2{
		{3, 0}, {-3, 0}, {0, 3}, {0, -3},
		{3, 2}, {-3, -2}, {2, -3}, {-2, 3},
		{1.2, 0.1}, {0.2, 1.1},
	}
	opts := DefaultOptions()
	for _, off := range offsets {
		for _, s := range geom.Sides {
			for _, e := range geom.Sides {
				t.Run(fmt.Sprintf("%v/%s-%s", off, s, e), func(t *testing.T) {
					a := mgl64.Vec3{0, 0, 2}
					b := mgl64.Vec3{off[0], off[1], 2}
					start := geom.SideMidpoints(a, iconExtents)[s]
					end := geom.SideMidpoints(b, iconExtents)[e]
					path := Route(start, s, end, e, geom.BoundsFor(a, iconExtents, 1), geom.BoundsFor(b, iconExtents, 1), opts)

					pts := path.Points
					require.GreaterOrEqual(t, len(pts), 5)
					require.LessOrEqual(t, len(pts), 7)
					assert.Equal(t, start, pts[0])
					assert.Equal(t, end, pts[len(pts)-1])
					for i := 1; i < len(pts); i++ {
						assert.True(t, pts[i][0] == pts[i-1][0] || pts[i][1] == pts[i-1][1],
							"segment %d is diagonal: %v -> %v", i, pts[i-1], pts[i])
						assert.Equal(t, start[2], pts[i][2])
					}

					c := opts.Clearance(s, e)
					assert.True(t, pts[1].ApproxEqualThreshold(start.Add(geom.Outward(s).Mul(c)), 1e-9))
					assert.True(t, pts[len(pts)-2].ApproxEqualThreshold(end.Sub(geom.ArrowDirection(e).Mul(c)), 1e-9))
				})
			}
		}
	}
}

func TestRouteAvoidsBodiesWhenSeparated(t *testing.T) {
	offsets := []mgl64.Vec2{{3, 0}, {-3, 0}, {0, 3}, {0, -3}, {3, 3}, {-3, 3}}
	for _, off := range offsets {
		for _, s := range geom.Sides {
			for _, e := range geom.Sides {
				a := mgl64.Vec3{0, 0, 2}
				b := mgl64.Vec3{off[0], off[1], 2}
				ab, bb := geom.BoundsFor(a, iconExtents, 1), geom.BoundsFor(b, iconExtents, 1)
				start := geom.SideMidpoints(a, iconExtents)[s]
				end := geom.SideMidpoints(b, iconExtents)[e]
				path := Route(start, s, end, e, ab, bb, DefaultOptions())

				// The stubs touch their own nodes; everything in between must
				// stay clear of both bodies.
				pts := path.Points
				for i := 2; i < len(pts)-1; i++ {
					assert.False(t, crosses(pts[i-1], pts[i], ab), "%v %s-%s: segment %d crosses start", off, s, e, i)
					assert.False(t, crosses(pts[i-1], pts[i], bb), "%v %s-%s: segment %d crosses end", off, s, e, i)
				}
			}
		}
	}
}

func TestRouteNeverDoublesBack(t *testing.T) {
	a := mgl64.Vec3{0, 0, 2}
	b := mgl64.Vec3{-3, 0, 2}
	start := geom.SideMidpoints(a, iconExtents)[geom.Right]
	end := geom.SideMidpoints(b, iconExtents)[geom.Left]
	path := Route(start, geom.Right, end, geom.Left,
		geom.BoundsFor(a, iconExtents, 1), geom.BoundsFor(b, iconExtents, 1), DefaultOptions())

	// B sits behind A, so the wire has to leave rightwards and go around.
	assert.True(t, path.Detour)

	prev := geom.Outward(geom.Right)
	for i := 1; i < len(path.Points); i++ {
		dir, ok := direction(path.Points[i-1], path.Points[i])
		if !ok {
			continue
		}
		assert.False(t, dir.ApproxEqual(prev.Mul(-1)), "reversal at segment %d", i)
		prev = dir
	}
	assert.True(t, prev.ApproxEqual(geom.ArrowDirection(geom.Left)))
}

func TestRouteToCursor(t *testing.T) {
	a := mgl64.Vec3{0, 0, 2}
	start := geom.SideMidpoints(a, iconExtents)[geom.Top]
	cursor := mgl64.Vec3{1.5, 2, 2}
	side := CursorSide(start, cursor)
	require.Equal(t, geom.Bottom, side)

	path := Route(start, geom.Top, cursor, side, geom.BoundsFor(a, iconExtents, 1), geom.PointBounds(cursor), DefaultOptions())
	assert.Equal(t, cursor, path.Points[len(path.Points)-1])
	assert.False(t, path.Detour)
}

func TestRouteFlattensEndDepth(t *testing.T) {
	start := mgl64.Vec3{0.5, 0, 2}
	cursor := mgl64.Vec3{3, 0, 7}
	path := Route(start, geom.Right, cursor, CursorSide(start, cursor),
		geom.BoundsFor(mgl64.Vec3{0, 0, 2}, iconExtents, 1), geom.PointBounds(cursor), DefaultOptions())
	for _, p := range path.Points {
		assert.Equal(t, 2.0, p[2])
	}
}

func TestCursorSide(t *testing.T) {
	origin := mgl64.Vec3{}
	for _, tc := range []struct {
		cursor mgl64.Vec3
		want   geom.Side
	}{
		{mgl64.Vec3{2, 1, 0}, geom.Left},
		{mgl64.Vec3{-2, 1, 0}, geom.Right},
		{mgl64.Vec3{1, 2, 0}, geom.Bottom},
		{mgl64.Vec3{1, -2, 0}, geom.Top},
		{mgl64.Vec3{1, 1, 0}, geom.Bottom}, // ties go vertical
		{mgl64.Vec3{}, geom.Top},
	} {
		assert.Equal(t, tc.want, CursorSide(origin, tc.cursor), "cursor %v", tc.cursor)
	}
}

func TestOptionsStagger(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 0.0, opts.Stagger(geom.Left, geom.Left))
	assert.InDelta(t, 0.2, opts.Clearance(geom.Left, geom.Left), 1e-12)
	assert.InDelta(t, 0.36, opts.Clearance(geom.Right, geom.Left), 1e-12)
	assert.InDelta(t, 0.2*0.2*15, opts.Stagger(geom.Top, geom.Top), 1e-12)

	// Every side pair gets its own stagger.
	seen := make(map[float64]bool)
	for _, s := range geom.Sides {
		for _, e := range geom.Sides {
			v := math.Round(opts.Stagger(s, e) * 1e9)
			assert.False(t, seen[v], "duplicate stagger for %s-%s", s, e)
			seen[v] = true
		}
	}
}
