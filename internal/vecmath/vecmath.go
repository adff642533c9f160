// Package vecmath collects the small amount of vector and matrix algebra the
// editor needs on top of mgl64: translation/rotation/scale construction,
// composition in application order, and position extraction from a world
// transform.
package vecmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// ZAxis is the rotation axis for everything drawn on the canvas plane.
var ZAxis = mgl64.Vec3{0, 0, 1}

// Translation returns a matrix translating by p.
func Translation(p mgl64.Vec3) mgl64.Mat4 { return mgl64.Translate3D(p[0], p[1], p[2]) }

// Scaling returns a matrix scaling by s along each axis.
func Scaling(s mgl64.Vec3) mgl64.Mat4 { return mgl64.Scale3D(s[0], s[1], s[2]) }

// Rotation returns a matrix rotating by deg degrees about axis.
func Rotation(deg float64, axis mgl64.Vec3) mgl64.Mat4 {
	if axis.Len() == 0 {
		return mgl64.Ident4()
	}
	return mgl64.HomogRotate3D(mgl64.DegToRad(deg), axis.Normalize())
}

// Compose multiplies the given transforms so that the first one is applied
// first: Compose(R, S, T) rotates, then scales, then translates.
func Compose(ms ...mgl64.Mat4) mgl64.Mat4 {
	out := mgl64.Ident4()
	for _, m := range ms {
		out = m.Mul4(out)
	}
	return out
}

// TranslationOf extracts the position stored in a world transform's
// translation column.
func TranslationOf(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// WithTranslation returns m with its translation column replaced by p.
func WithTranslation(m mgl64.Mat4, p mgl64.Vec3) mgl64.Mat4 {
	m.SetCol(3, p.Vec4(1))
	return m
}

// Float32s narrows a matrix for upload as a GL uniform.
func Float32s(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sign returns -1, 0 or 1 according to the sign of v.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
