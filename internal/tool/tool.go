// Package tool implements the editor's interaction modes. Each tool receives
// enriched pointer events from the input dispatcher and changes the scene
// only through the event's Mutator.
package tool

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/palette"
	"github.com/irfansharif/iconwire/internal/scene"
)

var toolLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("ICONWIRE_DEBUG_TOOL") == "1" {
		toolLogger = log.New(os.Stdout, "[tool] ", log.Ltime|log.Lmsgprefix)
	}
}

// Tool handles the three pointer events every mode must react to.
type Tool interface {
	OnMouseDown(ev *scene.PointerEvent)
	OnMouseUp(ev *scene.PointerEvent)
	OnMouseMove(ev *scene.PointerEvent)
}

// Cleaner is implemented by tools holding gesture state. OnToolChange runs
// right before the tool is swapped out and must leave nothing half-done.
type Cleaner interface {
	OnToolChange(m scene.Mutator)
}

// Hoverer is implemented by tools that react to the pointer entering or
// leaving the canvas.
type Hoverer interface {
	OnMouseOver(ev *scene.PointerEvent)
	OnMouseOut(ev *scene.PointerEvent)
}

// Overlay is implemented by tools that draw transient glyphs on top of the
// scene.
type Overlay interface {
	Indicator() (Indicator, bool)
}

// Kind enumerates the tools.
type Kind int

const (
	Select Kind = iota
	Add
	Connect
)

// Kinds lists every tool in toolbar order.
var Kinds = [...]Kind{Select, Add, Connect}

func (k Kind) String() string {
	switch k {
	case Select:
		return "select"
	case Add:
		return "add"
	case Connect:
		return "connect"
	default:
		return fmt.Sprintf("tool(%d)", int(k))
	}
}

// ParseKind maps a tool name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

// Options tunes the tools.
type Options struct {
	ProximityScale float64           // node bounds scale within which ports are considered
	DistanceLimit  float64           // maximum cursor-to-port distance
	ArrowScale     float64           // size of the port indicator glyph
	Texture        palette.TextureID // texture of newly placed nodes
	Extents        geom.Extents      // extents of newly placed nodes
}

// DefaultOptions returns the tool tuning the editor ships with.
func DefaultOptions() Options {
	return Options{
		ProximityScale: 1.5,
		DistanceLimit:  0.5,
		ArrowScale:     0.1,
		Texture:        palette.TextureDefault,
		Extents:        scene.DefaultExtents,
	}
}

// New returns a fresh tool of the given kind.
func New(kind Kind, opts Options) Tool {
	switch kind {
	case Add:
		return &AddTool{texture: opts.Texture, extents: opts.Extents}
	case Connect:
		return &ConnectTool{opts: opts}
	default:
		return &SelectTool{}
	}
}
