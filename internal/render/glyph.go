package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rclancey/earcut"

	"github.com/irfansharif/iconwire/internal/vecmath"
)

// arrowOutline is a unit arrow pointing along -X, centred on the origin.
var arrowOutline = []mgl64.Vec2{
	{-0.5, 0},
	{0, 0.5},
	{0, 0.2},
	{0.5, 0.2},
	{0.5, -0.2},
	{0, -0.2},
	{0, -0.5},
}

// crossOutline is a unit plus sign; it is drawn rotated by 45 degrees.
var crossOutline = []mgl64.Vec2{
	{0.12, 0.12}, {0.12, 0.5}, {-0.12, 0.5}, {-0.12, 0.12},
	{-0.5, 0.12}, {-0.5, -0.12}, {-0.12, -0.12}, {-0.12, -0.5},
	{0.12, -0.5}, {0.12, -0.12}, {0.5, -0.12}, {0.5, 0.12},
}

// glyph is a flat shape as triangles in its own unit space.
type glyph [][3]mgl64.Vec2

type glyphs struct {
	arrow glyph
	cross glyph
}

func newGlyphs() (glyphs, error) {
	arrow, err := triangulate(arrowOutline)
	if err != nil {
		return glyphs{}, fmt.Errorf("arrow glyph: %w", err)
	}
	rot := vecmath.Rotation(45, vecmath.ZAxis)
	rotated := make([]mgl64.Vec2, len(crossOutline))
	for i, p := range crossOutline {
		rotated[i] = rot.Mul4x1(mgl64.Vec4{p[0], p[1], 0, 1}).Vec2()
	}
	cross, err := triangulate(rotated)
	if err != nil {
		return glyphs{}, fmt.Errorf("cross glyph: %w", err)
	}
	return glyphs{arrow: arrow, cross: cross}, nil
}

// triangulate ear-clips a simple polygon.
func triangulate(polygon []mgl64.Vec2) (glyph, error) {
	if len(polygon) < 3 {
		return nil, fmt.Errorf("degenerate polygon (%d vertices < 3)", len(polygon))
	}

	// Format: [x0, y0, x1, y1, ..., xn, yn]
	coords := make([]float64, len(polygon)*2)
	for i, p := range polygon {
		coords[i*2] = p[0]
		coords[i*2+1] = p[1]
	}

	indices, err := earcut.Earcut(coords, nil /* holeIndices */, 2 /* dim */)
	if err != nil {
		return nil, fmt.Errorf("triangulation failed for %d-vertex polygon: %w", len(polygon), err)
	}
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("invalid triangulation of %d-vertex polygon (%d indices)", len(polygon), len(indices))
	}

	tris := make(glyph, len(indices)/3)
	for i := range tris {
		for v := 0; v < 3; v++ {
			tris[i][v] = polygon[indices[i*3+v]]
		}
	}
	return tris, nil
}

// area is the glyph's total unsigned area.
func (g glyph) area() float64 {
	var total float64
	for _, t := range g {
		ab, ac := t[1].Sub(t[0]), t[2].Sub(t[0])
		a := ab[0]*ac[1] - ab[1]*ac[0]
		if a < 0 {
			a = -a
		}
		total += a / 2
	}
	return total
}
