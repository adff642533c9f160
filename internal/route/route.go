// Package route computes orthogonal wire paths between node ports.
//
// Every path starts with a short stub leaving the start port along its
// outward direction and ends with a stub entering the end port along its
// arrow direction. Between the two stubs the router tries a fixed sequence of
// candidate shapes, cheapest first:
//
//   - one corner (an L), continuing along the departure axis where possible
//   - two corners (a Z or U) around a mid-line, staggered per side pair
//   - two corners around a line clear of both node bodies
//   - three corners around two such lines
//
// A candidate is accepted if it never doubles back over a stub or over itself
// and never crosses the interior of either node. If none qualifies the first
// candidate is used as is; it is still orthogonal, just not pretty.
package route

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/vecmath"
)

const epsilon = 1e-9

// wireIndex gives every (startSide, endSide) pair its own slot, used to
// stagger wires between the same pair of sides so they never fully overlap.
var wireIndex = [4][4]int{
	{0, 1, 2, 3},
	{4, 5, 6, 7},
	{8, 9, 10, 11},
	{12, 13, 14, 15},
}

// Options tunes wire clearance.
type Options struct {
	MinLineDist     float64 // minimum stub length
	SideOffsetCoeff float64 // stagger per wire index, as a fraction of MinLineDist
}

// DefaultOptions returns the clearances the editor uses.
func DefaultOptions() Options {
	return Options{MinLineDist: 0.2, SideOffsetCoeff: 0.2}
}

// Stagger is the lateral offset applied to wires between the given sides.
func (o Options) Stagger(start, end geom.Side) float64 {
	return o.MinLineDist * o.SideOffsetCoeff * float64(wireIndex[start][end])
}

// Clearance is the stub length for wires between the given sides.
func (o Options) Clearance(start, end geom.Side) float64 {
	return o.MinLineDist + o.Stagger(start, end)
}

// Path is a routed wire.
type Path struct {
	Points []mgl64.Vec3

	// Detour is set when the path goes around the node bodies, along a line
	// clear of both, rather than directly between its ports.
	Detour bool
}

// Segments returns the number of segments in the path.
func (p Path) Segments() int { return len(p.Points) - 1 }

// CursorSide picks the side a free wire end behaves as if attached to, given
// where the wire started: the wire arrives travelling along the dominant axis
// of the displacement.
func CursorSide(start, cursor mgl64.Vec3) geom.Side {
	d := cursor.Sub(start)
	if math.Abs(d[0]) > math.Abs(d[1]) {
		if d[0] > 0 {
			return geom.Left
		}
		return geom.Right
	}
	if d[1] > 0 {
		return geom.Bottom
	}
	return geom.Top
}

// Route returns an orthogonal path from the start port to the end port.
// startBounds and endBounds are the bodies of the two nodes; a free end
// passes the zero-area box at the cursor.
func Route(
	start mgl64.Vec3, startSide geom.Side,
	end mgl64.Vec3, endSide geom.Side,
	startBounds, endBounds geom.Bounds,
	opts Options,
) Path {
	end[2] = start[2] // routing is planar at the start depth

	clearance := opts.Clearance(startSide, endSide)
	r := &router{
		out:         geom.Outward(startSide),
		in:          geom.ArrowDirection(endSide),
		startBounds: startBounds,
		endBounds:   endBounds,
		clearance:   clearance,
		stagger:     opts.Stagger(startSide, endSide),
	}
	r.p = start.Add(r.out.Mul(clearance))
	r.q = end.Sub(r.in.Mul(clearance))
	r.departAxis, r.arriveAxis = startSide.Axis(), endSide.Axis()
	r.longAxis = 1
	if d := end.Sub(start); math.Abs(d[0]) >= math.Abs(d[1]) {
		r.longAxis = 0
	}

	cands := r.candidates()
	chosen := cands[0]
	for _, c := range cands {
		if r.valid(c.corners) {
			chosen = c
			break
		}
	}

	points := make([]mgl64.Vec3, 0, len(chosen.corners)+4)
	points = append(points, start, r.p)
	points = append(points, chosen.corners...)
	points = append(points, r.q, end)
	for i := range points {
		points[i][2] = start[2]
	}
	return Path{Points: points, Detour: chosen.detour}
}

type candidate struct {
	corners []mgl64.Vec3
	detour  bool
}

type router struct {
	p, q                   mgl64.Vec3 // stub ends next to the start and end ports
	out, in                mgl64.Vec3 // departure and arrival directions
	startBounds, endBounds geom.Bounds
	clearance, stagger     float64
	departAxis, arriveAxis int
	longAxis               int
}

func (r *router) candidates() []candidate {
	var cands []candidate
	simple := func(corners ...mgl64.Vec3) { cands = append(cands, candidate{corners: corners}) }
	detour := func(corners ...mgl64.Vec3) { cands = append(cands, candidate{corners: corners, detour: true}) }

	k := r.departAxis
	if r.departAxis == r.arriveAxis {
		// Both ports face along the same axis: an S between facing ports, a
		// U between ports facing the same way.
		simple(r.zCorners(k, r.midLine(k))...)
		simple(r.lCorner(k))
		simple(r.lCorner(1 - k))
		simple(r.zCorners(1-k, r.midLine(1-k))...)
	} else {
		// Perpendicular ports: continue along the departure axis and turn
		// once into the arrival; otherwise split along the long axis first
		// and the short one last.
		simple(r.lCorner(k))
		simple(r.zCorners(r.longAxis, r.midLine(r.longAxis))...)
		simple(r.zCorners(1-r.longAxis, r.midLine(1-r.longAxis))...)
		simple(r.lCorner(1 - k))
	}

	for _, axis := range [2]int{1 - k, k} {
		for _, m := range r.clearLines(axis) {
			detour(r.zCorners(axis, m)...)
		}
	}
	for _, u := range [2]int{1 - k, k} {
		for _, t1 := range r.clearLines(u) {
			for _, t2 := range r.clearLines(1 - u) {
				detour(r.detourCorners(u, t1, t2)...)
			}
		}
	}
	return cands
}

// lCorner is the single corner reached by travelling along axis first.
func (r *router) lCorner(axis int) mgl64.Vec3 {
	c := r.p
	c[axis] = r.q[axis]
	return c
}

// zCorners travel along axis to m, across, then along axis again to q.
func (r *router) zCorners(axis int, m float64) []mgl64.Vec3 {
	c1 := r.p
	c1[axis] = m
	c2 := c1
	c2[1-axis] = r.q[1-axis]
	return []mgl64.Vec3{c1, c2}
}

// detourCorners travel along u to t1, along the other axis to t2, back along
// u to q's coordinate, and finally across into q.
func (r *router) detourCorners(u int, t1, t2 float64) []mgl64.Vec3 {
	c1 := r.p
	c1[u] = t1
	c2 := c1
	c2[1-u] = t2
	c3 := c2
	c3[u] = r.q[u]
	return []mgl64.Vec3{c1, c2, c3}
}

// midLine is the preferred crossing coordinate for a two-corner path along
// axis. Ports facing opposite ways along that axis (a U) cross beyond the
// farther stub; otherwise the crossing sits halfway, nudged by the stagger
// towards q.
func (r *router) midLine(axis int) float64 {
	if r.out[axis] != 0 && r.in[axis] != 0 && r.out[axis] != r.in[axis] {
		if r.out[axis] > 0 {
			return math.Max(r.p[axis], r.q[axis]) + r.stagger
		}
		return math.Min(r.p[axis], r.q[axis]) - r.stagger
	}

	lo, hi := math.Min(r.p[axis], r.q[axis]), math.Max(r.p[axis], r.q[axis])
	mid := (r.p[axis]+r.q[axis])/2 + r.stagger*vecmath.Sign(r.q[axis]-r.p[axis])
	return vecmath.Clamp(mid, lo, hi)
}

// clearLines returns coordinates along axis at which a perpendicular line
// misses both node bodies: the middle of the gap between them if there is
// one, then beyond either side of both, nearest detour first.
func (r *router) clearLines(axis int) []float64 {
	sLo, sHi := r.startBounds.Min(axis), r.startBounds.Max(axis)
	eLo, eHi := r.endBounds.Min(axis), r.endBounds.Max(axis)

	var lines []float64
	switch {
	case sHi+epsilon < eLo:
		lines = append(lines, (sHi+eLo)/2)
	case eHi+epsilon < sLo:
		lines = append(lines, (eHi+sLo)/2)
	}

	offset := r.clearance + r.stagger
	above := math.Max(sHi, eHi) + offset
	below := math.Min(sLo, eLo) - offset
	cost := func(m float64) float64 { return math.Abs(m-r.p[axis]) + math.Abs(m-r.q[axis]) }
	if cost(below) < cost(above) {
		return append(lines, below, above)
	}
	return append(lines, above, below)
}

// valid reports whether the path p -> corners -> q leaves p without doubling
// back over the departure stub, enters q without doubling back over the
// arrival stub, never reverses on itself, and stays clear of both bodies.
func (r *router) valid(corners []mgl64.Vec3) bool {
	points := make([]mgl64.Vec3, 0, len(corners)+2)
	points = append(points, r.p)
	points = append(points, corners...)
	points = append(points, r.q)

	prev := r.out
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		dir, ok := direction(a, b)
		if !ok {
			continue // zero length
		}
		if dir.ApproxEqualThreshold(prev.Mul(-1), epsilon) {
			return false
		}
		if crosses(a, b, r.startBounds) || crosses(a, b, r.endBounds) {
			return false
		}
		prev = dir
	}
	return !prev.ApproxEqualThreshold(r.in.Mul(-1), epsilon)
}

// direction returns the unit axis direction from a to b, or false if the two
// points coincide.
func direction(a, b mgl64.Vec3) (mgl64.Vec3, bool) {
	d := b.Sub(a)
	d[2] = 0
	switch {
	case math.Abs(d[0]) > epsilon:
		return mgl64.Vec3{vecmath.Sign(d[0]), 0, 0}, true
	case math.Abs(d[1]) > epsilon:
		return mgl64.Vec3{0, vecmath.Sign(d[1]), 0}, true
	default:
		return mgl64.Vec3{}, false
	}
}

// crosses reports whether the axis-aligned segment ab passes through the
// interior of box. Segments running along an edge do not cross it.
func crosses(a, b mgl64.Vec3, box geom.Bounds) bool {
	if box.Width() <= epsilon || box.Height() <= epsilon {
		return false
	}
	lo := mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), 0}
	hi := mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), 0}
	return lo[0] < box.Right-epsilon && hi[0] > box.Left+epsilon &&
		lo[1] < box.Top-epsilon && hi[1] > box.Bottom+epsilon
}
