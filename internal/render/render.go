// Package render draws the canvas. Each frame the scene is turned into
// per-element triangle lists in world space; only elements whose geometry
// changed are re-uploaded, and the camera's view-projection is applied in the
// vertex shader.
package render

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/irfansharif/iconwire/internal/camera"
	"github.com/irfansharif/iconwire/internal/memory"
	"github.com/irfansharif/iconwire/internal/vecmath"
)

// transformSetter is the part of the shader program the renderer drives.
type transformSetter interface {
	SetTransform(matrix [16]float32)
}

type Renderer struct {
	builder       *Builder
	memController *memory.Controller
	program       transformSetter

	uploaded map[memory.ElementID][]float32
	order    []memory.ElementID
	stats    Stats
}

// Stats tracks rendering performance metrics.
type Stats struct {
	Elements          int
	Uploads           int     // elements re-uploaded by the last Prepare
	LastPrepareTimeMs float64 // time spent in the last Prepare, in milliseconds
	LastDrawTimeUs    float64 // time spent in the last Draw, in microseconds
}

// NewRenderer builds the element program; it requires a current GL context.
func NewRenderer(memController *memory.Controller, builder *Builder) (*Renderer, error) {
	program, err := NewElementProgram()
	if err != nil {
		return nil, err
	}
	return newRenderer(memController, builder, program), nil
}

func newRenderer(memController *memory.Controller, builder *Builder, program transformSetter) *Renderer {
	return &Renderer{
		builder:       builder,
		memController: memController,
		program:       program,
		uploaded:      make(map[memory.ElementID][]float32),
	}
}

// Prepare builds the frame's geometry, uploads what changed and releases
// the slots of elements that are gone.
func (r *Renderer) Prepare(f Frame) error {
	start := time.Now()

	elements, err := r.builder.Frame(f)
	if err != nil {
		return err
	}

	live := make(map[memory.ElementID]bool, len(elements))
	r.order = r.order[:0]
	uploads := 0
	for _, e := range elements {
		if len(e.Vertices) == 0 {
			continue
		}
		live[e.ID] = true
		r.order = append(r.order, e.ID)
		if prev, ok := r.uploaded[e.ID]; ok && slices.Equal(prev, e.Vertices) && r.memController.Has(e.ID) {
			continue
		}
		if err := r.memController.EnsureSlot(e.ID, e.Vertices); err != nil {
			return fmt.Errorf("uploading %s: %w", e.ID, err)
		}
		r.uploaded[e.ID] = e.Vertices
		uploads++
	}

	r.memController.Retain(live)
	for id := range r.uploaded {
		if !live[id] {
			delete(r.uploaded, id)
		}
	}

	r.stats.Elements = len(r.order)
	r.stats.Uploads = uploads
	r.stats.LastPrepareTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	return nil
}

// Draw draws the prepared frame through cam.
func (r *Renderer) Draw(cam *camera.Camera) {
	start := time.Now()
	r.program.SetTransform(vecmath.Float32s(cam.ViewProjection()))
	r.memController.Draw(r.order)
	r.stats.LastDrawTimeUs = float64(time.Since(start).Microseconds())
}

// Order is the element draw order of the last prepared frame.
func (r *Renderer) Order() []memory.ElementID { return r.order }

// Stats returns the current performance statistics.
func (r *Renderer) Stats() Stats { return r.stats }
