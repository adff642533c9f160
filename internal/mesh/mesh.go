// Package mesh builds the procedural geometry the renderer draws: planes for
// node bodies, spheres for port markers, and line or ribbon meshes for
// routed wires.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrTooFewSegments is returned when a plane or sphere is requested with
	// fewer subdivisions than it can be built from.
	ErrTooFewSegments = errors.New("mesh: too few segments")
	// ErrMeshTooLarge is returned when a mesh would need indices beyond the
	// 16-bit range.
	ErrMeshTooLarge = errors.New("mesh: too many vertices for 16-bit indices")
)

const (
	minSegments = 3
	maxVertices = math.MaxUint16 + 1
)

// Mode is the primitive the indices describe.
type Mode int

const (
	TriangleStrip Mode = iota
	Triangles
	LineStrip
)

func (m Mode) String() string {
	switch m {
	case TriangleStrip:
		return "triangle-strip"
	case Triangles:
		return "triangles"
	case LineStrip:
		return "line-strip"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Vertex is a homogeneous position with texture coordinates.
type Vertex struct {
	Position mgl64.Vec4
	UV       mgl64.Vec2
}

type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
	Mode     Mode
}

// Floats flattens the vertices as xyzw+uv, six floats each.
func (m Mesh) Floats() []float32 {
	out := make([]float32, 0, len(m.Vertices)*6)
	for _, v := range m.Vertices {
		out = append(out,
			float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2]), float32(v.Position[3]),
			float32(v.UV[0]), float32(v.UV[1]))
	}
	return out
}

// Triangles returns the mesh's triangles as index triples. Strips are
// expanded with alternating winding and degenerate stitch triangles are
// dropped. Line strips have no triangles.
func (m Mesh) Triangles() [][3]uint16 {
	var tris [][3]uint16
	switch m.Mode {
	case Triangles:
		for i := 0; i+2 < len(m.Indices); i += 3 {
			tris = append(tris, [3]uint16{m.Indices[i], m.Indices[i+1], m.Indices[i+2]})
		}
	case TriangleStrip:
		for i := 0; i+2 < len(m.Indices); i++ {
			a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
			if a == b || b == c || a == c {
				continue
			}
			if i%2 == 1 {
				a, b = b, a
			}
			tris = append(tris, [3]uint16{a, b, c})
		}
	}
	return tris
}

// Transform returns a copy of the mesh with every position multiplied by t.
func (m Mesh) Transform(t mgl64.Mat4) Mesh {
	out := Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Indices:  m.Indices,
		Mode:     m.Mode,
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = Vertex{Position: t.Mul4x1(v.Position), UV: v.UV}
	}
	return out
}

// Plane builds a grid of xSegments by ySegments quads centred on the origin,
// sized by extents[0] and extents[1] and lying at z = extents[2].
func Plane(xSegments, ySegments int, extents mgl64.Vec3) (Mesh, error) {
	if xSegments < minSegments || ySegments < minSegments {
		return Mesh{}, fmt.Errorf("plane %dx%d: %w", xSegments, ySegments, ErrTooFewSegments)
	}
	return grid(xSegments, ySegments, extents)
}

// grid builds the plane without the subdivision minimum.
func grid(xSegments, ySegments int, extents mgl64.Vec3) (Mesh, error) {
	if (xSegments+1)*(ySegments+1) > maxVertices {
		return Mesh{}, fmt.Errorf("plane %dx%d: %w", xSegments, ySegments, ErrMeshTooLarge)
	}

	halfX, halfY := extents[0]/2, extents[1]/2
	verts := make([]Vertex, 0, (xSegments+1)*(ySegments+1))
	for i := 0; i <= ySegments; i++ {
		v := float64(i) / float64(ySegments)
		for j := 0; j <= xSegments; j++ {
			u := float64(j) / float64(xSegments)
			verts = append(verts, Vertex{
				Position: mgl64.Vec4{-halfX + extents[0]*u, -halfY + extents[1]*v, extents[2], 1},
				UV:       mgl64.Vec2{u, v},
			})
		}
	}
	return Mesh{Vertices: verts, Indices: gridStrip(xSegments, ySegments), Mode: TriangleStrip}, nil
}

// Quad is the unit plane used for node bodies.
func Quad() Mesh {
	m, err := grid(1, 1, mgl64.Vec3{1, 1, 0})
	if err != nil {
		panic(err)
	}
	return m
}

// Sphere builds a UV sphere of the given radius. segments subdivide
// longitude and rings subdivide latitude, pole to pole.
func Sphere(segments, rings int, radius float64) (Mesh, error) {
	if segments < minSegments || rings < minSegments {
		return Mesh{}, fmt.Errorf("sphere %dx%d: %w", segments, rings, ErrTooFewSegments)
	}
	if (segments+1)*(rings+1) > maxVertices {
		return Mesh{}, fmt.Errorf("sphere %dx%d: %w", segments, rings, ErrMeshTooLarge)
	}

	dLat := math.Pi / float64(rings)
	dLon := 2 * math.Pi / float64(segments)
	verts := make([]Vertex, 0, (segments+1)*(rings+1))
	for i := 0; i <= rings; i++ {
		sinLat, cosLat := math.Sincos(float64(i) * dLat)
		for j := 0; j <= segments; j++ {
			sinLon, cosLon := math.Sincos(float64(j) * dLon)
			verts = append(verts, Vertex{
				Position: mgl64.Vec4{radius * sinLat * cosLon, -radius * cosLat, radius * sinLat * sinLon, 1},
				UV:       mgl64.Vec2{float64(j) / float64(segments), float64(i) / float64(rings)},
			})
		}
	}
	return Mesh{Vertices: verts, Indices: gridStrip(segments, rings), Mode: TriangleStrip}, nil
}

// gridStrip sweeps a (cols+1)x(rows+1) vertex grid row by row as a single
// triangle strip, repeating the last index of one row and the first of the
// next to stitch rows with degenerate triangles.
func gridStrip(cols, rows int) []uint16 {
	width := cols + 1
	indices := make([]uint16, 0, rows*2*width+2*(rows-1))
	for i := 0; i < rows; i++ {
		if i > 0 {
			indices = append(indices, uint16(i*width+cols), uint16(i*width))
		}
		for j := 0; j <= cols; j++ {
			indices = append(indices, uint16(i*width+j), uint16((i+1)*width+j))
		}
	}
	return indices
}

// Polyline builds a line strip through points, with u running along the
// path's length.
func Polyline(points []mgl64.Vec3) (Mesh, error) {
	if len(points) > maxVertices {
		return Mesh{}, fmt.Errorf("polyline of %d points: %w", len(points), ErrMeshTooLarge)
	}
	total := pathLength(points)
	m := Mesh{Mode: LineStrip}
	var travelled float64
	for i, p := range points {
		if i > 0 {
			travelled += p.Sub(points[i-1]).Len()
		}
		u := 0.0
		if total > 0 {
			u = travelled / total
		}
		m.Vertices = append(m.Vertices, Vertex{Position: p.Vec4(1), UV: mgl64.Vec2{u, 0.5}})
		m.Indices = append(m.Indices, uint16(i))
	}
	return m, nil
}

// Ribbon builds a flat band of the given width along points, one quad per
// segment. Each quad is extended by half the width at both ends so that
// right-angle corners are filled. Zero-length segments are skipped.
func Ribbon(points []mgl64.Vec3, width float64) (Mesh, error) {
	half := width / 2
	m := Mesh{Mode: Triangles}
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		d := b.Sub(a)
		length := d.Len()
		if length == 0 {
			continue
		}
		if len(m.Vertices)+4 > maxVertices {
			return Mesh{}, fmt.Errorf("ribbon of %d points: %w", len(points), ErrMeshTooLarge)
		}
		dir := d.Mul(1 / length)
		normal := mgl64.Vec3{-dir[1], dir[0], 0}.Mul(half)
		a, b = a.Sub(dir.Mul(half)), b.Add(dir.Mul(half))

		base := uint16(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			Vertex{Position: a.Sub(normal).Vec4(1), UV: mgl64.Vec2{0, 0}},
			Vertex{Position: a.Add(normal).Vec4(1), UV: mgl64.Vec2{0, 1}},
			Vertex{Position: b.Sub(normal).Vec4(1), UV: mgl64.Vec2{1, 0}},
			Vertex{Position: b.Add(normal).Vec4(1), UV: mgl64.Vec2{1, 1}},
		)
		m.Indices = append(m.Indices, base, base+2, base+1, base+1, base+2, base+3)
	}
	return m, nil
}

func pathLength(points []mgl64.Vec3) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i].Sub(points[i-1]).Len()
	}
	return total
}
