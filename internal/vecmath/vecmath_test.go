package vecmath

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestTranslationRoundTrip(t *testing.T) {
	p := mgl64.Vec3{1.5, -2, 3}
	assert.Equal(t, p, TranslationOf(Translation(p)))

	moved := WithTranslation(Scaling(mgl64.Vec3{2, 2, 2}), mgl64.Vec3{4, 5, 6})
	assert.Equal(t, mgl64.Vec3{4, 5, 6}, TranslationOf(moved))
	assert.Equal(t, 2.0, moved.At(0, 0))
}

func TestComposeAppliesInOrder(t *testing.T) {
	// Rotate the unit X vector by 90 degrees, scale by 2, then translate.
	m := Compose(
		Rotation(90, ZAxis),
		Scaling(mgl64.Vec3{2, 2, 2}),
		Translation(mgl64.Vec3{10, 0, 0}),
	)
	got := m.Mul4x1(mgl64.Vec4{1, 0, 0, 1}).Vec3()
	assert.True(t, got.ApproxEqualThreshold(mgl64.Vec3{10, 2, 0}, 1e-9), "got %v", got)
}

func TestRotationDegenerateAxis(t *testing.T) {
	assert.Equal(t, mgl64.Ident4(), Rotation(45, mgl64.Vec3{}))
}

func TestClampAndSign(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3.0, -1, 1))
	assert.Equal(t, -1.0, Clamp(-3.0, -1, 1))
	assert.Equal(t, 4, Clamp(4, 0, 10))

	assert.Equal(t, 1.0, Sign(0.1))
	assert.Equal(t, -1.0, Sign(-7))
	assert.Equal(t, 0.0, Sign(0))
}

func TestFloat32s(t *testing.T) {
	f := Float32s(Translation(mgl64.Vec3{1, 2, 3}))
	assert.Equal(t, float32(1), f[12])
	assert.Equal(t, float32(2), f[13])
	assert.Equal(t, float32(3), f[14])
	assert.Equal(t, float32(1), f[15])
}
