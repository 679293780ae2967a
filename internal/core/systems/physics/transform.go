package physics

import "github.com/go-gl/mathgl/mgl64"

// Transform places an object in the world: scale, then rotate about the
// origin, then translate.
type Transform struct {
	Translation Vec2
	Rotation    float64
	Scale       Vec2
}

// NewTransform returns a unit scale transform.
func NewTransform(pos Vec2, rotation float64) Transform {
	return Transform{Translation: pos, Rotation: rotation, Scale: Vec2{1, 1}}
}

// Identity is the transform that leaves points unchanged.
func Identity() Transform { return NewTransform(Vec2{}, 0) }

// Matrix returns the homogeneous 3x3 matrix T * R * S.
func (t Transform) Matrix() mgl64.Mat3 {
	return mgl64.Translate2D(t.Translation[0], t.Translation[1]).
		Mul3(mgl64.HomogRotate2D(t.Rotation)).
		Mul3(mgl64.Scale2D(t.Scale[0], t.Scale[1]))
}

// Point maps an object-local point to world space.
func (t Transform) Point(p Vec2) Vec2 {
	return t.Matrix().Mul3x1(p.Vec3(1)).Vec2()
}

// Translate returns a copy moved by d.
func (t Transform) Translate(d Vec2) Transform {
	t.Translation = t.Translation.Add(d)
	return t
}
