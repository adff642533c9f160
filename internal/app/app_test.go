package app

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/iconwire/internal/camera"
	"github.com/irfansharif/iconwire/internal/config"
	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/memory"
	"github.com/irfansharif/iconwire/internal/palette"
	"github.com/irfansharif/iconwire/internal/render"
	"github.com/irfansharif/iconwire/internal/scene"
	"github.com/irfansharif/iconwire/internal/tool"
)

type fakeBackend struct {
	next    uint32
	buffers map[uint32][]float32
}

func (f *fakeBackend) CreateBuffer(floats int) (uint32, error) {
	if f.buffers == nil {
		f.buffers = make(map[uint32][]float32)
	}
	f.next++
	f.buffers[f.next] = make([]float32, floats)
	return f.next, nil
}
func (f *fakeBackend) Upload(b uint32, off int, data []float32) { copy(f.buffers[b][off:], data) }
func (f *fakeBackend) Read(b uint32, off int, data []float32)   { copy(data, f.buffers[b][off:]) }
func (f *fakeBackend) DeleteBuffer(b uint32)                    { delete(f.buffers, b) }
func (f *fakeBackend) Draw(uint32, []int32, []int32)            {}

type fakeRenderer struct {
	frames []render.Frame
	draws  int
}

func (r *fakeRenderer) Prepare(f render.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}
func (r *fakeRenderer) Draw(*camera.Camera) { r.draws++ }
func (r *fakeRenderer) Stats() render.Stats { return render.Stats{} }

// 800x600 at the default depth shows an 8x6 world-unit area, so 100px is
// one unit.
func newTestApp(t *testing.T) (*App, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{}
	app, err := newApp(config.Default(), palette.Default(), 800, 600, memory.NewController(&fakeBackend{}), r)
	require.NoError(t, err)
	return app, r
}

func pixel(x, y float64) (float64, float64) { return 400 + 100*x, 300 - 100*y }

func TestToolForKey(t *testing.T) {
	for _, tc := range []struct {
		key  rune
		kind tool.Kind
		ok   bool
	}{
		{'1', tool.Select, true},
		{'s', tool.Select, true},
		{'2', tool.Add, true},
		{'A', tool.Add, true},
		{'3', tool.Connect, true},
		{'c', tool.Connect, true},
		{'4', 0, false},
		{'x', 0, false},
	} {
		kind, ok := ToolForKey(tc.key)
		assert.Equal(t, tc.ok, ok, string(tc.key))
		assert.Equal(t, tc.kind, kind, string(tc.key))
	}
}

func TestToolbar(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Equal(t, "[1:select] 2:add 3:connect", app.View.Toolbar())

	app.SetTool(tool.Connect)
	assert.Equal(t, tool.Connect, app.Dispatcher.Kind())
	assert.Equal(t, "1:select 2:add [3:connect]", app.View.Toolbar())
}

func TestInitialTool(t *testing.T) {
	cfg := config.Default()
	cfg.Tool.Initial = "add"
	app, err := newApp(cfg, palette.Default(), 800, 600, memory.NewController(&fakeBackend{}), &fakeRenderer{})
	require.NoError(t, err)
	assert.Equal(t, tool.Add, app.Dispatcher.Kind())
	assert.Equal(t, "1:select [2:add] 3:connect", app.View.Toolbar())

	cfg.Tool.Initial = "lasso"
	_, err = newApp(cfg, palette.Default(), 800, 600, memory.NewController(&fakeBackend{}), &fakeRenderer{})
	assert.Error(t, err)
}

func TestFrame(t *testing.T) {
	app, _ := newTestApp(t)
	f := app.Frame()
	assert.Empty(t, f.Nodes)
	assert.False(t, f.ShowPorts)
	assert.Nil(t, f.Indicator)

	app.SetTool(tool.Add)
	for _, x := range []float64{0, 3} {
		app.Dispatcher.MouseDown(pixel(x, 0))
		app.Dispatcher.MouseUp(pixel(x, 0))
	}
	require.Len(t, app.Scene.Nodes(), 2)
	b := app.Scene.Nodes()[1]

	app.SetTool(tool.Connect)
	f = app.Frame()
	assert.Len(t, f.Nodes, 2)
	assert.True(t, f.ShowPorts)
	assert.Nil(t, f.Indicator)

	app.Dispatcher.MouseMove(pixel(2.45, 0))
	f = app.Frame()
	require.NotNil(t, f.Indicator)
	assert.Same(t, b, f.Indicator.Node)
	assert.Equal(t, geom.Left, f.Indicator.Side)

	// Switching away drops the indicator along with the port markers.
	app.SetTool(tool.Select)
	f = app.Frame()
	assert.Nil(t, f.Indicator)
	assert.False(t, f.ShowPorts)
}

func TestPrepareAndDraw(t *testing.T) {
	app, r := newTestApp(t)
	require.NoError(t, app.PrepareRenderer())
	app.Draw()
	assert.Len(t, r.frames, 1)
	assert.Equal(t, 1, r.draws)

	app.Resize(0, 0)
	assert.True(t, app.View.Minimized())
	assert.InDelta(t, 4.0/3.0, app.Camera.Aspect, 1e-12, "minimizing keeps the aspect")
	app.Draw()
	assert.Equal(t, 1, r.draws)

	app.Resize(1000, 500)
	assert.InDelta(t, 2.0, app.Camera.Aspect, 1e-12)
	app.Draw()
	assert.Equal(t, 2, r.draws)
}

func TestMaintain(t *testing.T) {
	app, _ := newTestApp(t)
	a := scene.NewNode(0, mgl64.Vec3{0, 0, 2}, palette.TextureDefault)
	require.NoError(t, app.Scene.AddNode(a))
	require.NoError(t, app.MemoryController.EnsureSlot(
		memory.ElementID{Kind: memory.KindNode, Index: a.Index}, make([]float32, 6*memory.FloatsPerVertex)))

	for frame := 0; frame <= 200; frame++ {
		require.NoError(t, app.Maintain(frame))
	}

	// A port holding a connection the scene does not know about.
	a.SideConnections[geom.Top] = scene.NewConnection(7, a, geom.Top)
	assert.NoError(t, app.Maintain(1), "not a validation frame")
	assert.Error(t, app.Maintain(validationInterval))
}
