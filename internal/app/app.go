package app

import (
	"fmt"

	"github.com/irfansharif/iconwire/internal/camera"
	"github.com/irfansharif/iconwire/internal/config"
	"github.com/irfansharif/iconwire/internal/input"
	"github.com/irfansharif/iconwire/internal/memory"
	"github.com/irfansharif/iconwire/internal/palette"
	"github.com/irfansharif/iconwire/internal/render"
	"github.com/irfansharif/iconwire/internal/scene"
	"github.com/irfansharif/iconwire/internal/tool"
)

const (
	compactionInterval = 60  // frames between compaction attempts
	validationInterval = 100 // frames between integrity checks
)

// frameRenderer is what the app needs from render.Renderer.
type frameRenderer interface {
	Prepare(f render.Frame) error
	Draw(cam *camera.Camera)
	Stats() render.Stats
}

// App encapsulates the editor state shared by the host's callbacks and its
// frame loop.
type App struct {
	Scene            *scene.Scene
	Camera           *camera.Camera
	Dispatcher       *input.Dispatcher
	View             *View
	Palette          palette.Palette
	Renderer         frameRenderer
	MemoryController *memory.Controller
}

// NewApp creates the editor for a width x height canvas, drawing through
// OpenGL. It requires a current GL context.
func NewApp(cfg *config.Config, pal palette.Palette, width, height int) (*App, error) {
	builder, err := render.NewBuilder(pal, cfg.RouteOptions(), cfg.Connect.ArrowScale)
	if err != nil {
		return nil, err
	}
	memController := memory.NewController(memory.NewGLBackend())
	renderer, err := render.NewRenderer(memController, builder)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, pal, width, height, memController, renderer)
}

func newApp(
	cfg *config.Config, pal palette.Palette, width, height int,
	memController *memory.Controller, renderer frameRenderer,
) (*App, error) {
	opts, err := cfg.ToolOptions()
	if err != nil {
		return nil, err
	}
	initial, err := cfg.InitialTool()
	if err != nil {
		return nil, err
	}
	s := scene.New()
	cam := cfg.NewCamera()
	app := &App{
		Scene:            s,
		Camera:           cam,
		Dispatcher:       input.NewDispatcher(s, cam, width, height, cfg.Canvas.Depth, opts),
		View:             NewView(width, height),
		Palette:          pal,
		Renderer:         renderer,
		MemoryController: memController,
	}
	app.SetTool(initial)
	return app, nil
}

// SetTool switches the active tool.
func (app *App) SetTool(kind tool.Kind) {
	app.Dispatcher.SetTool(kind)
	app.View.Tool = app.Dispatcher.Kind()
}

// Resize tracks a new framebuffer size.
func (app *App) Resize(width, height int) {
	app.View.SetViewport(width, height)
	app.Dispatcher.Resize(width, height)
}

// Frame captures what should be drawn right now.
func (app *App) Frame() render.Frame {
	f := render.Frame{
		Nodes:       app.Scene.Nodes(),
		Connections: app.Scene.Connections(),
		ShowPorts:   app.Dispatcher.Kind() == tool.Connect,
	}
	if ind, ok := app.Dispatcher.Overlay(); ok {
		f.Indicator = &ind
	}
	return f
}

// PrepareRenderer uploads the current frame's geometry.
func (app *App) PrepareRenderer() error {
	if err := app.Renderer.Prepare(app.Frame()); err != nil {
		return fmt.Errorf("preparing frame: %w", err)
	}
	return nil
}

// Draw draws the prepared frame.
func (app *App) Draw() {
	if app.View.Minimized() {
		return
	}
	app.Renderer.Draw(app.Camera)
}

// Maintain runs the periodic housekeeping for the given frame: compacting
// sparse GPU batches and checking scene and slot integrity.
func (app *App) Maintain(frame int) error {
	if frame%compactionInterval == 0 {
		if err := app.MemoryController.TryCompaction(); err != nil {
			return fmt.Errorf("compaction: %w", err)
		}
	}
	if frame%validationInterval == 0 {
		if err := app.Scene.Validate(); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
		if err := app.MemoryController.ValidateIntegrity(); err != nil {
			return fmt.Errorf("memory: %w", err)
		}
	}
	return nil
}

// Cleanup releases GPU resources.
func (app *App) Cleanup() {
	app.MemoryController.Cleanup()
}
