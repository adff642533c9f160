package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/memory"
	"github.com/irfansharif/iconwire/internal/mesh"
	"github.com/irfansharif/iconwire/internal/palette"
	"github.com/irfansharif/iconwire/internal/route"
	"github.com/irfansharif/iconwire/internal/scene"
	"github.com/irfansharif/iconwire/internal/tool"
	"github.com/irfansharif/iconwire/internal/vecmath"
)

const (
	wireWidth         = 0.02
	outlineWidth      = 0.02
	secondaryInset    = 0.25 // fraction of the body the secondary texture leaves uncovered
	selectedHighlight = 0.08
	portRadius        = 0.03
	portSegments      = 8
	buttonSegments    = 3
)

// Overlay element indices.
const (
	overlayPorts = iota
	overlayIndicator
)

// Frame is everything drawn in one frame.
type Frame struct {
	Nodes       []*scene.Node
	Connections []*scene.Connection
	Indicator   *tool.Indicator
	ShowPorts   bool // port markers, while connecting
}

// Element is one drawable's vertices, seven floats each (xyz, rgba).
type Element struct {
	ID       memory.ElementID
	Vertices []float32
}

// Builder turns scene elements into coloured triangles.
type Builder struct {
	Palette    palette.Palette
	Route      route.Options
	ArrowScale mgl64.Vec3

	glyphs glyphs
	quad   mesh.Mesh
	port   mesh.Mesh
	button mesh.Mesh // backdrop behind delete crosses
}

func NewBuilder(p palette.Palette, opts route.Options, arrowScale float64) (*Builder, error) {
	g, err := newGlyphs()
	if err != nil {
		return nil, err
	}
	port, err := mesh.Sphere(portSegments, portSegments, portRadius)
	if err != nil {
		return nil, fmt.Errorf("port marker: %w", err)
	}
	button, err := mesh.Plane(buttonSegments, buttonSegments, mgl64.Vec3{1, 1, 0})
	if err != nil {
		return nil, fmt.Errorf("delete button: %w", err)
	}
	return &Builder{
		Palette:    p,
		Route:      opts,
		ArrowScale: mgl64.Vec3{arrowScale, arrowScale, 1},
		glyphs:     g,
		quad:       mesh.Quad(),
		port:       port,
		button:     button,
	}, nil
}

// Frame builds every element of f in draw order: nodes, then connections so
// wires sit above icons, then overlays.
func (b *Builder) Frame(f Frame) ([]Element, error) {
	elements := make([]Element, 0, len(f.Nodes)+len(f.Connections)+2)
	for _, n := range f.Nodes {
		elements = append(elements, Element{
			ID:       memory.ElementID{Kind: memory.KindNode, Index: n.Index},
			Vertices: b.Node(n),
		})
	}
	for _, c := range f.Connections {
		v, err := b.Connection(c)
		if err != nil {
			return nil, fmt.Errorf("connection %d: %w", c.Index, err)
		}
		elements = append(elements, Element{
			ID:       memory.ElementID{Kind: memory.KindConnection, Index: c.Index},
			Vertices: v,
		})
	}
	if f.ShowPorts {
		if v := b.Ports(f.Nodes); len(v) > 0 {
			elements = append(elements, Element{
				ID:       memory.ElementID{Kind: memory.KindOverlay, Index: overlayPorts},
				Vertices: v,
			})
		}
	}
	if f.Indicator != nil {
		elements = append(elements, Element{
			ID:       memory.ElementID{Kind: memory.KindOverlay, Index: overlayIndicator},
			Vertices: b.Indicator(*f.Indicator),
		})
	}
	return elements, nil
}

// Node draws the icon body, its secondary texture, and when selected, an
// outline and the delete cross.
func (b *Builder) Node(n *scene.Node) []float32 {
	bounds := n.Bounds()
	z := n.Position()[2]

	body := palette.Tinted(b.Palette.Texture(n.Texture), n.Tint)
	if n.Selected() {
		body = palette.Highlighted(body, selectedHighlight)
	}

	var out []float32
	out = appendMesh(out, b.quad.Transform(boxTransform(bounds, z)), body)
	if n.SecondaryTexture != n.Texture {
		inner := shrink(bounds, secondaryInset)
		secondary := palette.Tinted(b.Palette.Texture(n.SecondaryTexture), n.Tint)
		out = appendMesh(out, b.quad.Transform(boxTransform(inner, z)), secondary)
	}
	if n.Selected() {
		out = b.appendOutline(out, bounds, z, b.Palette.Selected)
		out = b.appendCross(out, n.DeleteBounds(), z)
	}
	return out
}

// Connection draws the routed wire with an arrow at its end, plus the two
// delete crosses while hovered.
func (b *Builder) Connection(c *scene.Connection) ([]float32, error) {
	path := c.Path(b.Route)
	ribbon, err := mesh.Ribbon(path.Points, wireWidth)
	if err != nil {
		return nil, err
	}
	out := appendMesh(nil, ribbon, b.Palette.Wire)

	var arrow mgl64.Mat4
	if c.Completed() {
		arrow = geom.ArrowTransform(c.EndSide, c.EndPos(), b.ArrowScale)
	} else {
		n := len(path.Points)
		arrow = geom.CursorArrowTransform(path.Points[n-1], path.Points[n-2], b.ArrowScale)
	}
	out = appendGlyph(out, b.glyphs.arrow, arrow, b.Palette.Wire)

	if c.ShowsDelete() {
		z := c.StartPos()[2]
		for _, d := range c.DeleteBounds() {
			out = b.appendCross(out, d, z)
		}
	}
	return out, nil
}

// Indicator draws the arrow over the port a click would connect to.
func (b *Builder) Indicator(ind tool.Indicator) []float32 {
	return appendGlyph(nil, b.glyphs.arrow, ind.Transform, b.Palette.Indicator)
}

// Ports marks every free port.
func (b *Builder) Ports(nodes []*scene.Node) []float32 {
	var out []float32
	for _, n := range nodes {
		for _, s := range geom.Sides {
			if !n.PortFree(s) {
				continue
			}
			out = appendMesh(out, b.port.Transform(vecmath.Translation(n.Port(s))), b.Palette.Indicator)
		}
	}
	return out
}

func (b *Builder) appendOutline(out []float32, bounds geom.Bounds, z float64, c colorful.Color) []float32 {
	loop := []mgl64.Vec3{
		{bounds.Left, bounds.Bottom, z},
		{bounds.Right, bounds.Bottom, z},
		{bounds.Right, bounds.Top, z},
		{bounds.Left, bounds.Top, z},
		{bounds.Left, bounds.Bottom, z},
	}
	ribbon, err := mesh.Ribbon(loop, outlineWidth)
	if err != nil {
		return out // four segments always fit
	}
	return appendMesh(out, ribbon, c)
}

// appendCross draws a delete button: the cross on a backdrop cut out of
// whatever lies beneath.
func (b *Builder) appendCross(out []float32, bounds geom.Bounds, z float64) []float32 {
	m := boxTransform(bounds, z)
	out = appendMesh(out, b.button.Transform(m), b.Palette.Background)
	return appendGlyph(out, b.glyphs.cross, m, b.Palette.Delete)
}

// boxTransform maps the unit square centred on the origin onto bounds.
func boxTransform(bounds geom.Bounds, z float64) mgl64.Mat4 {
	centre := mgl64.Vec3{(bounds.Left + bounds.Right) / 2, (bounds.Bottom + bounds.Top) / 2, z}
	return vecmath.Compose(
		vecmath.Scaling(mgl64.Vec3{bounds.Width(), bounds.Height(), 1}),
		vecmath.Translation(centre),
	)
}

func shrink(bounds geom.Bounds, fraction float64) geom.Bounds {
	dx, dy := bounds.Width()*fraction/2, bounds.Height()*fraction/2
	return geom.MakeBounds(bounds.Left+dx, bounds.Right-dx, bounds.Bottom+dy, bounds.Top-dy)
}

func appendMesh(out []float32, m mesh.Mesh, c colorful.Color) []float32 {
	rgba := palette.RGBA(c, 1)
	for _, tri := range m.Triangles() {
		for _, idx := range tri {
			p := m.Vertices[idx].Position
			out = append(out, float32(p[0]), float32(p[1]), float32(p[2]), rgba[0], rgba[1], rgba[2], rgba[3])
		}
	}
	return out
}

func appendGlyph(out []float32, g glyph, transform mgl64.Mat4, c colorful.Color) []float32 {
	rgba := palette.RGBA(c, 1)
	for _, tri := range g {
		for _, v := range tri {
			p := transform.Mul4x1(mgl64.Vec4{v[0], v[1], 0, 1})
			out = append(out, float32(p[0]), float32(p[1]), float32(p[2]), rgba[0], rgba[1], rgba[2], rgba[3])
		}
	}
	return out
}
