package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the 2D vector used across the simulation.
type Vec2 = mgl64.Vec2

// V builds a Vec2.
func V(x, y float64) Vec2 { return Vec2{x, y} }

// FromAngle returns the unit vector pointing along angle (radians from +x).
func FromAngle(angle float64) Vec2 {
	s, c := math.Sincos(angle)
	return Vec2{c, s}
}

// Perp rotates v a quarter turn counter-clockwise.
func Perp(v Vec2) Vec2 { return Vec2{-v[1], v[0]} }

// Distance returns the euclidean distance between two points.
func Distance(a, b Vec2) float64 { return math.Hypot(b[0]-a[0], b[1]-a[1]) }

// Normalize returns v scaled to unit length. A zero vector has no
// direction and yields ErrZeroVector.
func Normalize(v Vec2) (Vec2, error) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return Vec2{}, ErrZeroVector
	}
	return v.Mul(1 / l), nil
}

// WrapAngle folds an angle into (-Pi, Pi].
// Non-finite input comes back as NaN.
func WrapAngle(a float64) float64 {
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a = math.Pi
	}
	return a
}
