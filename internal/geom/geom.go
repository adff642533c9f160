// Package geom provides the port geometry shared by collision, routing and
// hit-testing:
// - Side indices and their arrow (inward) and outward directions
// - Local extents and world-space axis-aligned bounds
// - Side midpoints ("ports") of a node
// - Glyph transforms for arrows drawn at ports
package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/iconwire/internal/vecmath"
)

// Side identifies one of the four ports of a node. The numbering is fixed
// across the editor.
type Side int

const (
	Left Side = iota
	Right
	Bottom
	Top
)

// NoSide marks an unbound connection end.
const NoSide Side = -1

// Sides lists every side in scan order.
var Sides = [4]Side{Left, Right, Bottom, Top}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	case Top:
		return "top"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Valid reports whether s is one of the four sides.
func (s Side) Valid() bool { return s >= Left && s <= Top }

// Axis returns 0 for the horizontal sides (left/right) and 1 for the vertical
// ones (bottom/top).
func (s Side) Axis() int {
	if s == Left || s == Right {
		return 0
	}
	return 1
}

// ArrowDirection is the unit direction of an arrow drawn at the given port,
// pointing into the node. A wire arriving at the port travels this way.
func ArrowDirection(s Side) mgl64.Vec3 {
	switch s {
	case Right:
		return mgl64.Vec3{-1, 0, 0}
	case Bottom:
		return mgl64.Vec3{0, 1, 0}
	case Top:
		return mgl64.Vec3{0, -1, 0}
	default:
		return mgl64.Vec3{1, 0, 0}
	}
}

// Outward is the unit direction pointing away from the node at the given
// port. A wire departing the port travels this way.
func Outward(s Side) mgl64.Vec3 { return ArrowDirection(s).Mul(-1) }

// Interval is a closed [min, max] range.
type Interval [2]float64

// Extents holds a node's local x and y intervals, relative to its position.
type Extents [2]Interval

func MakeExtents(xMin, xMax, yMin, yMax float64) Extents {
	return Extents{{xMin, xMax}, {yMin, yMax}}
}

// Scale returns the extents scaled about the node's origin.
func (e Extents) Scale(s float64) Extents {
	return MakeExtents(e[0][0]*s, e[0][1]*s, e[1][0]*s, e[1][1]*s)
}

// Bounds is a world-space axis-aligned box.
type Bounds struct {
	Left, Right, Bottom, Top float64
}

func MakeBounds(left, right, bottom, top float64) Bounds {
	return Bounds{Left: left, Right: right, Bottom: bottom, Top: top}
}

// BoundsFor returns the box covered by extents (scaled by extentsScale) when
// the node sits at position.
func BoundsFor(position mgl64.Vec3, e Extents, extentsScale float64) Bounds {
	s := e.Scale(extentsScale)
	return Bounds{
		Left:   position[0] + s[0][0],
		Right:  position[0] + s[0][1],
		Bottom: position[1] + s[1][0],
		Top:    position[1] + s[1][1],
	}
}

// PointBounds is the zero-area box at p.
func PointBounds(p mgl64.Vec3) Bounds {
	return Bounds{Left: p[0], Right: p[0], Bottom: p[1], Top: p[1]}
}

// Min returns the lower edge along axis (0 = x, 1 = y).
func (b Bounds) Min(axis int) float64 {
	if axis == 0 {
		return b.Left
	}
	return b.Bottom
}

// Max returns the upper edge along axis (0 = x, 1 = y).
func (b Bounds) Max(axis int) float64 {
	if axis == 0 {
		return b.Right
	}
	return b.Top
}

func (b Bounds) Width() float64  { return b.Right - b.Left }
func (b Bounds) Height() float64 { return b.Top - b.Bottom }

// Contains is an inclusive point-in-box test.
func (b Bounds) Contains(p mgl64.Vec3) bool {
	return p[0] >= b.Left && p[0] <= b.Right && p[1] >= b.Bottom && p[1] <= b.Top
}

// Overlaps reports whether the two boxes share a region of positive area.
// Boxes that only touch along an edge do not overlap.
func (b Bounds) Overlaps(o Bounds) bool {
	return b.Left < o.Right && b.Right > o.Left && b.Bottom < o.Top && b.Top > o.Bottom
}

// Expand grows (d > 0) or shrinks (d < 0) the box on every side.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{Left: b.Left - d, Right: b.Right + d, Bottom: b.Bottom - d, Top: b.Top + d}
}

// SideMidpoints returns the four ports of a node at position, in side order.
func SideMidpoints(position mgl64.Vec3, e Extents) [4]mgl64.Vec3 {
	b := BoundsFor(position, e, 1)
	midX := position[0] + (e[0][0]+e[0][1])/2
	midY := position[1] + (e[1][0]+e[1][1])/2
	z := position[2]
	return [4]mgl64.Vec3{
		Left:   {b.Left, midY, z},
		Right:  {b.Right, midY, z},
		Bottom: {midX, b.Bottom, z},
		Top:    {midX, b.Top, z},
	}
}

// arrowRotation is the rotation, in degrees about Z, that turns the arrow
// glyph (which points along -X) into ArrowDirection(s).
func arrowRotation(s Side) float64 {
	switch s {
	case Right:
		return 0
	case Bottom:
		return -90
	case Top:
		return 90
	default:
		return 180
	}
}

// ArrowTransform places an arrow glyph of the given scale just outside the
// port, pointing into the node.
func ArrowTransform(s Side, port mgl64.Vec3, scale mgl64.Vec3) mgl64.Mat4 {
	out := Outward(s)
	location := port.Add(mgl64.Vec3{out[0] * scale[0] * 0.5, out[1] * scale[1] * 0.5, 0})
	return vecmath.Compose(
		vecmath.Rotation(arrowRotation(s), vecmath.ZAxis),
		vecmath.Scaling(scale),
		vecmath.Translation(location),
	)
}

// CursorArrowTransform places an arrow glyph at a free wire end, pointing
// along the dominant direction of travel from `from`.
func CursorArrowTransform(pos, from mgl64.Vec3, scale mgl64.Vec3) mgl64.Mat4 {
	d := pos.Sub(from)
	var rot float64
	if abs(d[0]) > abs(d[1]) {
		if d[0] > 0 {
			rot = 180
		}
	} else if d[1] > 0 {
		rot = -90
	} else {
		rot = 90
	}
	return vecmath.Compose(
		vecmath.Rotation(rot, vecmath.ZAxis),
		vecmath.Scaling(scale),
		vecmath.Translation(pos),
	)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
