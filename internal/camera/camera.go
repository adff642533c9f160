// Package camera holds the canvas camera and the viewport projector that maps
// pointer positions onto the routing plane.
package camera

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera describes a perspective camera looking at the canvas plane.
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	Near     float64
	Far      float64
	FOV      float64 // vertical field of view, in degrees
	Aspect   float64 // width / height
}

// Default returns the camera the editor starts with: one unit behind the
// origin, looking down +Z with a 90 degree field of view.
func Default(aspect float64) *Camera {
	return &Camera{
		Position: mgl64.Vec3{0, 0, -1},
		Target:   mgl64.Vec3{0, 0, 1},
		Up:       mgl64.Vec3{0, 1, 0},
		Near:     0.01,
		Far:      1000,
		FOV:      90,
		Aspect:   aspect,
	}
}

// Validate reports whether the camera can produce a usable projection.
func (c *Camera) Validate() error {
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("camera field of view must be in (0, 180) degrees, got %v", c.FOV)
	}
	if c.Aspect <= 0 {
		return fmt.Errorf("camera aspect must be positive, got %v", c.Aspect)
	}
	if c.Near <= 0 || c.Far <= c.Near {
		return fmt.Errorf("camera depth range is invalid: near=%v far=%v", c.Near, c.Far)
	}
	if c.Target.Sub(c.Position).Len() == 0 {
		return fmt.Errorf("camera target coincides with its position %v", c.Position)
	}
	return nil
}

// SetAspect updates the aspect ratio after a viewport resize.
func (c *Camera) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return // minimized; keep the last usable aspect
	}
	c.Aspect = float64(width) / float64(height)
}

// Forward returns the unit direction the camera looks in.
func (c *Camera) Forward() mgl64.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// View returns the view matrix. The X axis is mirrored so that world +X is
// screen-right, matching Project.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.Scale3D(-1, 1, 1).Mul4(mgl64.LookAtV(c.Position, c.Target, c.Up))
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}

// HalfExtentsAt returns the half width and half height of the visible area on
// the plane at depth z.
func (c *Camera) HalfExtentsAt(z float64) (halfWidth, halfHeight float64) {
	distance := z - c.Position[2]
	halfHeight = math.Tan(mgl64.DegToRad(c.FOV)/2) * distance
	halfWidth = halfHeight * c.Aspect
	return halfWidth, halfHeight
}

// Project maps a screen coordinate (pixels, origin top-left) onto the plane
// at the given depth, in world space.
func Project(screen, canvasSize mgl64.Vec2, c *Camera, depth float64) mgl64.Vec3 {
	// Normalized view coordinates, centred, with Y pointing up.
	view := mgl64.Vec3{
		-0.5 + screen[0]/canvasSize[0],
		0.5 - screen[1]/canvasSize[1],
		1,
	}

	distance := depth - c.Position[2]
	height := 2 * math.Tan(mgl64.DegToRad(c.FOV)/2) * distance
	width := height * c.Aspect

	return c.Position.Add(mgl64.Vec3{
		width * view[0],
		height * view[1],
		distance * view[2],
	})
}
