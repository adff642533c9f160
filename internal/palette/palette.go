// Package palette provides the editor's colours. Icon textures are opaque IDs
// to the core; the renderer resolves them to colours through a Palette, which
// is either configured or generated from a seed using HSV sampling.
package palette

import (
	"fmt"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// TextureID names an icon texture. The zero value is the default icon.
type TextureID int

const (
	TextureDefault TextureID = iota
	TextureServer
	TextureDatabase
	TextureQueue
	TextureClient
	numTextures
)

var textureNames = [numTextures]string{"default", "server", "database", "queue", "client"}

func (t TextureID) String() string {
	if t < 0 || t >= numTextures {
		return fmt.Sprintf("texture(%d)", int(t))
	}
	return textureNames[t]
}

// ParseTexture maps a texture name back to its ID.
func ParseTexture(name string) (TextureID, error) {
	for i, n := range textureNames {
		if n == name {
			return TextureID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown texture %q", name)
}

// Palette holds the colours of every drawable element.
type Palette struct {
	Background colorful.Color
	Wire       colorful.Color
	Indicator  colorful.Color
	Delete     colorful.Color
	Selected   colorful.Color // outline of the clicked node
	Textures   [numTextures]colorful.Color
}

// Default returns the built-in palette.
func Default() Palette {
	p := Palette{
		Background: colorful.Color{R: 0.96, G: 0.96, B: 0.95},
		Wire:       colorful.Color{R: 0.15, G: 0.15, B: 0.18},
		Indicator:  colorful.Color{R: 0.13, G: 0.55, B: 0.95},
		Delete:     colorful.Color{R: 0.86, G: 0.2, B: 0.2},
		Selected:   colorful.Color{R: 0.13, G: 0.55, B: 0.95},
	}
	p.Textures = [numTextures]colorful.Color{
		colorful.Hsv(210, 0.35, 0.85),
		colorful.Hsv(150, 0.45, 0.75),
		colorful.Hsv(30, 0.55, 0.9),
		colorful.Hsv(280, 0.35, 0.8),
		colorful.Hsv(50, 0.5, 0.95),
	}
	return p
}

// RandomTextures returns a palette whose texture colours are sampled in HSV
// space from r; the remaining colours are the defaults.
func RandomTextures(r *rand.Rand) Palette {
	// Hue over the full wheel, saturation and brightness kept mid-range so
	// the wire colour stays readable on top.
	hsb := func(h, s, b float64) colorful.Color {
		return colorful.Hsv(h*3.6, clamp(s/100.0, 0, 1), clamp(b/100.0, 0, 1))
	}

	p := Default()
	for i := range p.Textures {
		p.Textures[i] = hsb(r.Float64()*100, r.Float64()*50+25, r.Float64()*30+60)
	}
	return p
}

// Texture returns the colour of the given texture, falling back to the
// default texture for unknown IDs.
func (p Palette) Texture(t TextureID) colorful.Color {
	if t < 0 || t >= numTextures {
		return p.Textures[TextureDefault]
	}
	return p.Textures[t]
}

// Tinted multiplies c by tint channel-wise. A nil tint leaves c unchanged.
func Tinted(c colorful.Color, tint *colorful.Color) colorful.Color {
	if tint == nil {
		return c
	}
	return colorful.Color{R: c.R * tint.R, G: c.G * tint.G, B: c.B * tint.B}.Clamped()
}

// Highlighted shifts the brightness of c by amount (in [-1, 1]) in HSV space.
func Highlighted(c colorful.Color, amount float64) colorful.Color {
	h, s, v := c.Hsv()
	return colorful.Hsv(h, s, clamp(v+amount, 0, 1))
}

// ParseHex parses a "#rrggbb" colour.
func ParseHex(s string) (colorful.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("parsing colour %q: %w", s, err)
	}
	return c, nil
}

// RGBA returns c as shader-ready floats with the given alpha.
func RGBA(c colorful.Color, alpha float32) [4]float32 {
	c = c.Clamped()
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), alpha}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
