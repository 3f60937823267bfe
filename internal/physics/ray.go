package physics

import (
	gomath "math"

	"github.com/Faultbox/midgard-motion/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// NewAABB creates an AABB from two corners in any order.
func NewAABB(a, b math.Vec3) AABB {
	return AABB{
		Min: math.Vec3{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: math.Vec3{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

// AABBAround returns the box centred on center with the given half extents.
func AABBAround(center, half math.Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// ContainsXZ reports whether p lies inside the box footprint.
func (b AABB) ContainsXZ(p math.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// slab clips [tmin, tmax] against one axis of the box.
func slab(origin, dir, lo, hi float32, tmin, tmax *float32) bool {
	if dir == 0 {
		return origin >= lo && origin <= hi
	}
	t1 := (lo - origin) / dir
	t2 := (hi - origin) / dir
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > *tmin {
		*tmin = t1
	}
	if t2 < *tmax {
		*tmax = t2
	}
	return true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	if !slab(r.Origin.X, r.Direction.X, box.Min.X, box.Max.X, &tmin, &tmax) ||
		!slab(r.Origin.Y, r.Direction.Y, box.Min.Y, box.Max.Y, &tmin, &tmax) ||
		!slab(r.Origin.Z, r.Direction.Z, box.Min.Z, box.Max.Z, &tmin, &tmax) {
		return 0, false
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}

	// Return entry point, or exit point if starting inside
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// faceNormal returns the outward normal of the box face nearest to p.
func faceNormal(box AABB, p math.Vec3) math.Vec3 {
	best := float32(gomath.MaxFloat32)
	var n math.Vec3
	try := func(d float32, normal math.Vec3) {
		if d < 0 {
			d = -d
		}
		if d < best {
			best = d
			n = normal
		}
	}
	try(p.X-box.Min.X, math.Vec3{X: -1})
	try(box.Max.X-p.X, math.Vec3{X: 1})
	try(p.Y-box.Min.Y, math.Vec3{Y: -1})
	try(box.Max.Y-p.Y, math.Vec3{Y: 1})
	try(p.Z-box.Min.Z, math.Vec3{Z: -1})
	try(box.Max.Z-p.Z, math.Vec3{Z: 1})
	return n
}
