// Package config holds the editor's tunables: built-in defaults, optionally
// overridden by a TOML file and a few environment variables.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/irfansharif/iconwire/internal/camera"
	"github.com/irfansharif/iconwire/internal/geom"
	"github.com/irfansharif/iconwire/internal/palette"
	"github.com/irfansharif/iconwire/internal/route"
	"github.com/irfansharif/iconwire/internal/tool"
)

// EnvPath names the config file when no -config flag is given.
const EnvPath = "ICONWIRE_CONFIG"

// Config holds the editor configuration.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Camera  CameraConfig  `toml:"camera"`
	Canvas  CanvasConfig  `toml:"canvas"`
	Routing RoutingConfig `toml:"routing"`
	Connect ConnectConfig `toml:"connect"`
	Node    NodeConfig    `toml:"node"`
	Tool    ToolConfig    `toml:"tool"`
	Colors  ColorsConfig  `toml:"colors"`
}

// WindowConfig sizes the host window.
type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// CameraConfig shapes the perspective projection.
type CameraConfig struct {
	FOV  float64 `toml:"fov"` // degrees
	Near float64 `toml:"near"`
	Far  float64 `toml:"far"`
}

// CanvasConfig places the plane nodes and wires live on.
type CanvasConfig struct {
	Depth float64 `toml:"depth"`
}

// RoutingConfig tunes the wire router.
type RoutingConfig struct {
	MinLineDist     float64 `toml:"min_line_dist"`
	SideOffsetCoeff float64 `toml:"side_offset_coeff"`
}

// ConnectConfig tunes port picking for the connect tool.
type ConnectConfig struct {
	ProximityScale float64 `toml:"proximity_scale"`
	DistanceLimit  float64 `toml:"distance_limit"`
	ArrowScale     float64 `toml:"arrow_scale"`
}

// NodeConfig describes newly placed nodes.
type NodeConfig struct {
	Texture    string  `toml:"texture"`
	HalfWidth  float64 `toml:"half_width"`
	HalfHeight float64 `toml:"half_height"`
}

// ToolConfig picks the tool active at startup: select, add or connect.
type ToolConfig struct {
	Initial string `toml:"initial"`
}

// ColorsConfig holds "#rrggbb" colours. Empty entries, and textures not
// named in Textures, keep the built-in palette.
type ColorsConfig struct {
	Background string            `toml:"background"`
	Wire       string            `toml:"wire"`
	Indicator  string            `toml:"indicator"`
	Delete     string            `toml:"delete"`
	Selected   string            `toml:"selected"`
	Textures   map[string]string `toml:"textures"`
}

// Default returns the default configuration.
func Default() *Config {
	cam := camera.Default(1)
	ro := route.DefaultOptions()
	to := tool.DefaultOptions()
	return &Config{
		Window:  WindowConfig{Width: 1280, Height: 960, Title: "Iconwire"},
		Camera:  CameraConfig{FOV: cam.FOV, Near: cam.Near, Far: cam.Far},
		Canvas:  CanvasConfig{Depth: 2},
		Routing: RoutingConfig{MinLineDist: ro.MinLineDist, SideOffsetCoeff: ro.SideOffsetCoeff},
		Connect: ConnectConfig{
			ProximityScale: to.ProximityScale,
			DistanceLimit:  to.DistanceLimit,
			ArrowScale:     to.ArrowScale,
		},
		Node: NodeConfig{
			Texture:    to.Texture.String(),
			HalfWidth:  to.Extents[0][1],
			HalfHeight: to.Extents[1][1],
		},
		Tool: ToolConfig{Initial: tool.Select.String()},
	}
}

// Path returns the config file to load: the flag value if set, otherwise
// $ICONWIRE_CONFIG. Empty means defaults only.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvPath)
}

// Load returns the defaults overlaid with the TOML file at path, then with
// the environment. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the window size from ICONWIRE_WIDTH and
// ICONWIRE_HEIGHT.
func (c *Config) ApplyEnv() error {
	for _, e := range []struct {
		name string
		dst  *int
	}{
		{"ICONWIRE_WIDTH", &c.Window.Width},
		{"ICONWIRE_HEIGHT", &c.Window.Height},
	} {
		s := os.Getenv(e.name)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s value '%s': %w", e.name, s, err)
		}
		*e.dst = v
	}
	return nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errors = append(errors, fmt.Sprintf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if err := c.NewCamera().Validate(); err != nil {
		errors = append(errors, err.Error())
	}
	if c.Canvas.Depth <= 0 {
		errors = append(errors, fmt.Sprintf("canvas depth must be in front of the camera, got %v", c.Canvas.Depth))
	}
	if c.Routing.MinLineDist <= 0 || c.Routing.SideOffsetCoeff < 0 {
		errors = append(errors, fmt.Sprintf("routing distances must be positive, got min_line_dist=%v side_offset_coeff=%v",
			c.Routing.MinLineDist, c.Routing.SideOffsetCoeff))
	}
	if c.Connect.ProximityScale < 1 || c.Connect.DistanceLimit <= 0 || c.Connect.ArrowScale <= 0 {
		errors = append(errors, fmt.Sprintf("connect tuning out of range: proximity_scale=%v distance_limit=%v arrow_scale=%v",
			c.Connect.ProximityScale, c.Connect.DistanceLimit, c.Connect.ArrowScale))
	}
	if c.Node.HalfWidth <= 0 || c.Node.HalfHeight <= 0 {
		errors = append(errors, fmt.Sprintf("node extents must be positive, got %vx%v", c.Node.HalfWidth, c.Node.HalfHeight))
	}
	if _, err := palette.ParseTexture(c.Node.Texture); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := c.InitialTool(); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := c.Palette(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errors, "; "))
	}
	return nil
}

// NewCamera returns the configured camera, with the aspect of the
// configured window until the host resizes it.
func (c *Config) NewCamera() *camera.Camera {
	cam := camera.Default(1)
	cam.SetAspect(c.Window.Width, c.Window.Height)
	cam.FOV, cam.Near, cam.Far = c.Camera.FOV, c.Camera.Near, c.Camera.Far
	return cam
}

// RouteOptions returns the router tuning.
func (c *Config) RouteOptions() route.Options {
	return route.Options{MinLineDist: c.Routing.MinLineDist, SideOffsetCoeff: c.Routing.SideOffsetCoeff}
}

// ToolOptions returns the tool tuning.
func (c *Config) ToolOptions() (tool.Options, error) {
	texture, err := palette.ParseTexture(c.Node.Texture)
	if err != nil {
		return tool.Options{}, err
	}
	return tool.Options{
		ProximityScale: c.Connect.ProximityScale,
		DistanceLimit:  c.Connect.DistanceLimit,
		ArrowScale:     c.Connect.ArrowScale,
		Texture:        texture,
		Extents:        geom.MakeExtents(-c.Node.HalfWidth, c.Node.HalfWidth, -c.Node.HalfHeight, c.Node.HalfHeight),
	}, nil
}

// InitialTool returns the tool to start with.
func (c *Config) InitialTool() (tool.Kind, error) {
	return tool.ParseKind(c.Tool.Initial)
}

// Palette returns the default palette with the configured colours applied.
func (c *Config) Palette() (palette.Palette, error) {
	return c.PaletteFrom(palette.Default())
}

// PaletteFrom applies the configured colours over base.
func (c *Config) PaletteFrom(p palette.Palette) (palette.Palette, error) {
	for _, f := range []struct {
		hex string
		dst *colorful.Color
	}{
		{c.Colors.Background, &p.Background},
		{c.Colors.Wire, &p.Wire},
		{c.Colors.Indicator, &p.Indicator},
		{c.Colors.Delete, &p.Delete},
		{c.Colors.Selected, &p.Selected},
	} {
		if f.hex == "" {
			continue
		}
		col, err := palette.ParseHex(f.hex)
		if err != nil {
			return palette.Palette{}, err
		}
		*f.dst = col
	}

	names := make([]string, 0, len(c.Colors.Textures))
	for name := range c.Colors.Textures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id, err := palette.ParseTexture(name)
		if err != nil {
			return palette.Palette{}, err
		}
		col, err := palette.ParseHex(c.Colors.Textures[name])
		if err != nil {
			return palette.Palette{}, fmt.Errorf("texture %s: %w", name, err)
		}
		p.Textures[id] = col
	}
	return p, nil
}
