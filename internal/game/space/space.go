// Package space provides the vector math used by the combat simulation.
//
// The simulation lives in a Y-up 3D space; all gameplay distances (targeting,
// spawning, contact) are measured on the horizontal X/Z plane.
package space

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a point or direction in world space. Y is the vertical axis.
type Vec = r3.Vec

// Up is the vertical axis used for ring rotation.
var Up = Vec{Y: 1}

// Planar projects v onto the horizontal plane.
//
// Postcondition: Returns v with Y set to zero.
func Planar(v Vec) Vec {
	return Vec{X: v.X, Z: v.Z}
}

// PlanarDistance returns the distance between a and b on the X/Z plane.
//
// Postcondition: Returns >= 0.
func PlanarDistance(a, b Vec) float64 {
	return r3.Norm(r3.Sub(Planar(a), Planar(b)))
}

// RotateY rotates v about the vertical axis by radians.
//
// Postcondition: the Y component and the planar length of v are preserved.
func RotateY(v Vec, radians float64) Vec {
	if radians == 0 {
		return v
	}
	return r3.NewRotation(radians, Up).Rotate(v)
}

// PlanarAngle returns the heading of v on the X/Z plane in radians, in (-π, π].
// A vector along +Z has heading 0; a vector along +X has heading π/2.
func PlanarAngle(v Vec) float64 {
	return math.Atan2(v.X, v.Z)
}

// WithinRange reports whether p lies inside the axis-aligned square of half
// width r centred on center, measured on the X/Z plane.
//
// Precondition: r >= 0.
func WithinRange(p, center Vec, r float64) bool {
	return math.Abs(p.X-center.X) <= r && math.Abs(p.Z-center.Z) <= r
}

// ClampToRange moves p onto the nearest point inside the square of half width
// r around center. The Y component is untouched.
//
// Postcondition: WithinRange(result, center, r) is true.
func ClampToRange(p, center Vec, r float64) Vec {
	p.X = clampAxis(p.X, center.X, r)
	p.Z = clampAxis(p.Z, center.Z, r)
	return p
}

// clampAxis clamps v into [c-r, c+r], then nudges it toward c until
// |v-c| <= r holds after rounding.
func clampAxis(v, c, r float64) float64 {
	v = math.Max(c-r, math.Min(c+r, v))
	for math.Abs(v-c) > r {
		v = math.Nextafter(v, c)
	}
	return v
}

// MoveToward steps from toward to by at most maxStep.
//
// Precondition: maxStep >= 0.
// Postcondition: the returned point is to when the remaining distance is <= maxStep.
func MoveToward(from, to Vec, maxStep float64) Vec {
	delta := r3.Sub(to, from)
	dist := r3.Norm(delta)
	if dist <= maxStep || dist == 0 {
		return to
	}
	return r3.Add(from, r3.Scale(maxStep/dist, delta))
}

// PlanarUnit returns the unit direction of v on the X/Z plane, or the zero
// vector when v has no planar component.
func PlanarUnit(v Vec) Vec {
	p := Planar(v)
	n := r3.Norm(p)
	if n == 0 {
		return Vec{}
	}
	return r3.Scale(1/n, p)
}

// Add returns a+b.
func Add(a, b Vec) Vec { return r3.Add(a, b) }

// Scale returns v scaled by f.
func Scale(f float64, v Vec) Vec { return r3.Scale(f, v) }
