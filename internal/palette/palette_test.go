package palette

import (
	"math/rand"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureNames(t *testing.T) {
	for id := TextureDefault; id < numTextures; id++ {
		got, err := ParseTexture(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	_, err := ParseTexture("teapot")
	assert.Error(t, err)
	assert.Equal(t, "texture(42)", TextureID(42).String())
}

func TestTextureFallback(t *testing.T) {
	p := Default()
	assert.Equal(t, p.Textures[TextureDefault], p.Texture(TextureID(-1)))
	assert.Equal(t, p.Textures[TextureDefault], p.Texture(numTextures))
	assert.Equal(t, p.Textures[TextureQueue], p.Texture(TextureQueue))
}

func TestRandomTexturesDeterministic(t *testing.T) {
	a := RandomTextures(rand.New(rand.NewSource(7)))
	b := RandomTextures(rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
	for _, c := range a.Textures {
		assert.True(t, c.IsValid())
	}
}

func TestTinted(t *testing.T) {
	c := colorful.Color{R: 0.5, G: 1, B: 0.25}
	assert.Equal(t, c, Tinted(c, nil))

	half := colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	got := Tinted(c, &half)
	assert.InDelta(t, 0.25, got.R, 1e-12)
	assert.InDelta(t, 0.5, got.G, 1e-12)
	assert.InDelta(t, 0.125, got.B, 1e-12)
}

func TestHighlighted(t *testing.T) {
	c := colorful.Hsv(120, 0.5, 0.5)
	_, _, v := Highlighted(c, 0.2).Hsv()
	assert.InDelta(t, 0.7, v, 1e-9)
	_, _, v = Highlighted(c, 2).Hsv()
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, [4]float32{1, 0, 0, 0.5}, RGBA(c, 0.5))

	_, err = ParseHex("red")
	assert.Error(t, err)
}
