// Package collision keeps dragged nodes from overlapping their neighbours or
// leaving the visible part of the canvas.
//
// A candidate position is checked against every other body in turn. The first
// overlap found is resolved by snapping the candidate flush against that
// neighbour along whichever axis needs the smaller push, after which the scan
// restarts with the resolved neighbour ignored. Once no pairwise overlap
// remains (or the pass cap is reached), the result is clamped to the camera
// frustum at the node's depth. Place falls back to snapping flush against
// each neighbour in turn when that still leaves an overlap.
package collision

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/iconwire/internal/camera"
	"github.com/irfansharif/iconwire/internal/geom"
)

// maxPasses caps the restart loop. Cyclic push chains are possible with many
// tightly packed neighbours; past the cap the result is best-effort.
const maxPasses = 32

// epsilon absorbs floating point residue left by snapping, so that nodes
// snapped flush against each other are not reported as overlapping.
const epsilon = 1e-9

// Body is anything a moving node can collide with.
type Body interface {
	ID() int
	Bounds() geom.Bounds
}

// Resolve returns the offset to add to candidate so that a node with the
// given index and extents overlaps none of others (itself excluded by index)
// and stays within the camera frustum. A nil camera skips the frustum clamp.
func Resolve[B Body](candidate mgl64.Vec3, index int, extents geom.Extents, others []B, cam *camera.Camera) mgl64.Vec3 {
	pos := candidate
	resolved := make(map[int]struct{})

	for pass := 0; pass < maxPasses; pass++ {
		hit := false
		for _, other := range others {
			id := other.ID()
			if id == index {
				continue
			}
			if _, ok := resolved[id]; ok {
				continue
			}

			bounds := geom.BoundsFor(pos, extents, 1)
			otherBounds := other.Bounds()
			if !overlaps(bounds, otherBounds) {
				continue
			}

			pos = snap(pos, extents, otherBounds, pushSide(bounds, otherBounds))
			resolved[id] = struct{}{}
			hit = true
			break // resolving one neighbour may have changed every other test
		}
		if !hit {
			break
		}
	}

	if cam != nil {
		pos = clampToFrustum(pos, extents, cam)
	}
	return pos.Sub(candidate)
}

// Place returns the position nearest candidate at which a node with the
// given index and extents overlaps none of others and lies within the camera
// frustum, and false if it found none. The resolved candidate is tried
// first. When a push chain leaves it overlapping, every position flush
// against a side of a neighbour is tried instead.
func Place[B Body](candidate mgl64.Vec3, index int, extents geom.Extents, others []B, cam *camera.Camera) (mgl64.Vec3, bool) {
	fits := func(p mgl64.Vec3) bool {
		if Overlaps(p, index, extents, others) {
			return false
		}
		return cam == nil || InFrustum(geom.BoundsFor(p, extents, 1), p[2], cam)
	}

	pos := candidate.Add(Resolve(candidate, index, extents, others, cam))
	if fits(pos) {
		return pos, true
	}

	var (
		best     mgl64.Vec3
		bestDist float64
		found    bool
	)
	for _, other := range others {
		if other.ID() == index {
			continue
		}
		otherBounds := other.Bounds()
		for _, side := range geom.Sides {
			p := snap(candidate, extents, otherBounds, side)
			if cam != nil {
				p = clampToFrustum(p, extents, cam)
			}
			if !fits(p) {
				continue
			}
			if d := p.Sub(candidate).Len(); !found || d < bestDist {
				best, bestDist, found = p, d, true
			}
		}
	}
	return best, found
}

// Overlaps reports whether a node with the given index and extents placed at
// position would overlap any of others.
func Overlaps[B Body](position mgl64.Vec3, index int, extents geom.Extents, others []B) bool {
	bounds := geom.BoundsFor(position, extents, 1)
	for _, other := range others {
		if other.ID() == index {
			continue
		}
		if overlaps(bounds, other.Bounds()) {
			return true
		}
	}
	return false
}

// InFrustum reports whether the bounds fit inside the camera's visible area at
// depth z.
func InFrustum(b geom.Bounds, z float64, cam *camera.Camera) bool {
	halfWidth, halfHeight := cam.HalfExtentsAt(z)
	cx, cy := cam.Position[0], cam.Position[1]
	return b.Left >= cx-halfWidth-epsilon && b.Right <= cx+halfWidth+epsilon &&
		b.Bottom >= cy-halfHeight-epsilon && b.Top <= cy+halfHeight+epsilon
}

func overlaps(a, b geom.Bounds) bool {
	return a.Left < b.Right-epsilon && a.Right > b.Left+epsilon &&
		a.Bottom < b.Top-epsilon && a.Top > b.Bottom+epsilon
}

// pushSide picks the side of other that the moving bounds get pushed out to.
//
// Along each axis the moving box either entered across the neighbour's near
// edge (approaching from the left/bottom) or across its far edge (approaching
// from the right/top). When both or neither hold, one box contains the other
// along that axis and the centres decide. The axis needing the smaller push
// wins, with X taking ties.
func pushSide(moving, other geom.Bounds) geom.Side {
	xSide, xPush := axisPush(moving, other, 0)
	ySide, yPush := axisPush(moving, other, 1)
	if xPush <= yPush {
		return xSide
	}
	return ySide
}

// axisPush returns the side to push towards along axis and the magnitude of
// the push.
func axisPush(moving, other geom.Bounds, axis int) (geom.Side, float64) {
	lo, hi := moving.Min(axis), moving.Max(axis)
	otherLo, otherHi := other.Min(axis), other.Max(axis)

	fromLow := hi > otherLo && lo <= otherLo
	fromHigh := lo < otherHi && hi >= otherHi
	if fromLow == fromHigh {
		fromHigh = lo+hi >= otherLo+otherHi
		fromLow = !fromHigh
	}

	lowSide, highSide := geom.Left, geom.Right
	if axis == 1 {
		lowSide, highSide = geom.Bottom, geom.Top
	}
	if fromHigh {
		return highSide, otherHi - lo
	}
	return lowSide, hi - otherLo
}

// snap moves pos along the axis of side so that the node's bounds sit flush
// against that side of other.
func snap(pos mgl64.Vec3, extents geom.Extents, other geom.Bounds, side geom.Side) mgl64.Vec3 {
	switch side {
	case geom.Left:
		pos[0] = other.Left - extents[0][1]
	case geom.Right:
		pos[0] = other.Right - extents[0][0]
	case geom.Bottom:
		pos[1] = other.Bottom - extents[1][1]
	case geom.Top:
		pos[1] = other.Top - extents[1][0]
	}
	return pos
}

// clampToFrustum shifts pos so the node's bounds stay inside the visible
// area at its depth, each axis independently.
func clampToFrustum(pos mgl64.Vec3, extents geom.Extents, cam *camera.Camera) mgl64.Vec3 {
	halfWidth, halfHeight := cam.HalfExtentsAt(pos[2])
	cx, cy := cam.Position[0], cam.Position[1]
	b := geom.BoundsFor(pos, extents, 1)

	if b.Left < cx-halfWidth {
		pos[0] += cx - halfWidth - b.Left
	} else if b.Right > cx+halfWidth {
		pos[0] += cx + halfWidth - b.Right
	}
	if b.Bottom < cy-halfHeight {
		pos[1] += cy - halfHeight - b.Bottom
	} else if b.Top > cy+halfHeight {
		pos[1] += cy + halfHeight - b.Top
	}
	return pos
}
