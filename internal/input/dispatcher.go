// Package input turns raw canvas pointer events into enriched scene events
// and hands them to the active tool.
package input

import (
	"io"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/iconwire/internal/camera"
	"github.com/irfansharif/iconwire/internal/scene"
	"github.com/irfansharif/iconwire/internal/tool"
)

var inputLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("ICONWIRE_DEBUG_INPUT") == "1" {
		inputLogger = log.New(os.Stdout, "[input] ", log.Ltime|log.Lmsgprefix)
	}
}

// Dispatcher owns the active tool and the canonical event enrichment.
type Dispatcher struct {
	scene  *scene.Scene
	camera *camera.Camera
	opts   tool.Options

	width, height int     // canvas size in pixels
	depth         float64 // routing plane the cursor is projected onto

	kind   tool.Kind
	active tool.Tool
}

// NewDispatcher returns a dispatcher with the select tool active.
func NewDispatcher(s *scene.Scene, cam *camera.Camera, width, height int, depth float64, opts tool.Options) *Dispatcher {
	d := &Dispatcher{
		scene:  s,
		camera: cam,
		opts:   opts,
		depth:  depth,
		kind:   tool.Select,
		active: tool.New(tool.Select, opts),
	}
	d.Resize(width, height)
	return d
}

// ActiveTool returns the tool receiving events.
func (d *Dispatcher) ActiveTool() tool.Tool { return d.active }

// Kind returns the kind of the active tool.
func (d *Dispatcher) Kind() tool.Kind { return d.kind }

// SetTool swaps in a fresh tool of the given kind. The outgoing tool's
// cleanup runs first. Selecting the active kind again is a no-op.
func (d *Dispatcher) SetTool(kind tool.Kind) {
	if kind == d.kind {
		return
	}
	if c, ok := d.active.(tool.Cleaner); ok {
		c.OnToolChange(d.scene)
	}
	inputLogger.Printf("tool %s -> %s", d.kind, kind)
	d.kind = kind
	d.active = tool.New(kind, d.opts)
}

// Overlay returns the active tool's indicator, if it has one showing.
func (d *Dispatcher) Overlay() (tool.Indicator, bool) {
	if o, ok := d.active.(tool.Overlay); ok {
		return o.Indicator()
	}
	return tool.Indicator{}, false
}

// Resize records the canvas size and updates the camera's aspect.
func (d *Dispatcher) Resize(width, height int) {
	d.width, d.height = width, height
	d.camera.SetAspect(width, height)
}

// Project maps a canvas pixel onto the routing plane.
func (d *Dispatcher) Project(x, y float64) mgl64.Vec3 {
	return camera.Project(mgl64.Vec2{x, y}, mgl64.Vec2{float64(d.width), float64(d.height)}, d.camera, d.depth)
}

func (d *Dispatcher) MouseDown(x, y float64) {
	if ev, ok := d.event(scene.MouseDown, x, y); ok {
		d.active.OnMouseDown(ev)
	}
}

func (d *Dispatcher) MouseUp(x, y float64) {
	if ev, ok := d.event(scene.MouseUp, x, y); ok {
		d.active.OnMouseUp(ev)
	}
}

func (d *Dispatcher) MouseMove(x, y float64) {
	if ev, ok := d.event(scene.MouseMove, x, y); ok {
		d.active.OnMouseMove(ev)
	}
}

func (d *Dispatcher) MouseOver(x, y float64) {
	h, ok := d.active.(tool.Hoverer)
	if !ok {
		return
	}
	if ev, ok := d.event(scene.MouseOver, x, y); ok {
		h.OnMouseOver(ev)
	}
}

func (d *Dispatcher) MouseOut(x, y float64) {
	h, ok := d.active.(tool.Hoverer)
	if !ok {
		return
	}
	if ev, ok := d.event(scene.MouseOut, x, y); ok {
		h.OnMouseOut(ev)
	}
}

// event enriches a raw pointer event. Events on a zero-sized canvas (a
// minimized window) cannot be projected and are dropped.
func (d *Dispatcher) event(kind scene.EventKind, x, y float64) (*scene.PointerEvent, bool) {
	if d.width <= 0 || d.height <= 0 {
		inputLogger.Printf("dropping %s event on %dx%d canvas", kind, d.width, d.height)
		return nil, false
	}
	return &scene.PointerEvent{
		Kind:               kind,
		Screen:             mgl64.Vec2{x, y},
		World:              d.Project(x, y),
		Nodes:              d.scene.Nodes(),
		Connections:        d.scene.Connections(),
		NodesCreated:       d.scene.NodesCreated(),
		ConnectionsCreated: d.scene.ConnectionsCreated(),
		Camera:             d.camera,
		Scene:              d.scene,
	}, true
}
