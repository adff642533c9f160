package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	cam := Default(2) // 2:1
	canvas := mgl64.Vec2{1600, 800}

	tests := []struct {
		name   string
		screen mgl64.Vec2
		want   mgl64.Vec3
	}{
		// Depth 2 is three units from the camera: half-height 3, half-width 6.
		{"centre", mgl64.Vec2{800, 400}, mgl64.Vec3{0, 0, 2}},
		{"top-left", mgl64.Vec2{0, 0}, mgl64.Vec3{-6, 3, 2}},
		{"bottom-right", mgl64.Vec2{1600, 800}, mgl64.Vec3{6, -3, 2}},
		{"right-middle", mgl64.Vec2{1200, 400}, mgl64.Vec3{3, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.screen, canvas, cam, 2)
			assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-9), "got %v, want %v", got, tt.want)
		})
	}
}

func TestHalfExtentsMatchProjectCorners(t *testing.T) {
	cam := Default(16.0 / 9.0)
	hw, hh := cam.HalfExtentsAt(2)
	corner := Project(mgl64.Vec2{1600, 0}, mgl64.Vec2{1600, 900}, cam, 2)
	assert.InDelta(t, hw, corner[0], 1e-9)
	assert.InDelta(t, hh, corner[1], 1e-9)
}

func TestViewProjectionAgreesWithProject(t *testing.T) {
	cam := Default(16.0 / 9.0)
	canvas := mgl64.Vec2{1600, 900}
	world := Project(mgl64.Vec2{1200, 225}, canvas, cam, 2)

	clip := cam.ViewProjection().Mul4x1(world.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip[3])

	// Pixel (1200, 225) sits at NDC (0.5, 0.5).
	assert.InDelta(t, 0.5, ndc[0], 1e-6)
	assert.InDelta(t, 0.5, ndc[1], 1e-6)
}

func TestSetAspectAndValidate(t *testing.T) {
	cam := Default(1)
	cam.SetAspect(1600, 900)
	assert.InDelta(t, 16.0/9.0, cam.Aspect, 1e-12)

	cam.SetAspect(0, 900)
	assert.InDelta(t, 16.0/9.0, cam.Aspect, 1e-12)

	require.NoError(t, cam.Validate())
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, cam.Forward())

	bad := *cam
	bad.FOV = 0
	assert.Error(t, bad.Validate())
	bad = *cam
	bad.Target = bad.Position
	assert.Error(t, bad.Validate())
}
