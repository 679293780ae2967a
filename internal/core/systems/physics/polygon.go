package physics

import (
	"fmt"
	"math"
)

// MaxPoints is the largest polygon the factories produce (an octagon).
const MaxPoints = 8

// Edge is a directed line segment between two polygon vertices.
type Edge struct {
	A, B Vec2
}

// Length returns the edge length.
func (e Edge) Length() float64 { return Distance(e.A, e.B) }

// Polygon is a small convex polygon held by value.
//
// Only the factory functions can produce one, so every polygon is either a
// rectangle or an octagon wound consistently, which the same-side
// containment test relies on. Polygons are never mutated: Transform returns
// a new value.
type Polygon struct {
	pts [MaxPoints]Vec2
	n   int
}

// New builds a polygon from explicit vertices. The caller guarantees the
// points describe a convex shape in a consistent winding order.
func New(points ...Vec2) (Polygon, error) {
	if len(points) < 3 {
		return Polygon{}, ErrTooFewPoints
	}
	if len(points) > MaxPoints {
		return Polygon{}, ErrTooManyPoints
	}
	var p Polygon
	p.n = copy(p.pts[:], points)
	return p, nil
}

// FromSize returns an axis aligned rectangle of the given size centred on
// the origin.
func FromSize(size Vec2) (Polygon, error) {
	if !(size[0] > 0 && size[1] > 0) {
		return Polygon{}, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	w, h := size[0]/2, size[1]/2
	return New(V(-w, h), V(w, h), V(w, -h), V(-w, -h))
}

// FromSizeRounded returns an octagon of the given size with its corners
// cut. percent is the share of the shorter half dimension kept on each
// side of a corner, so larger values give squarer shapes.
func FromSizeRounded(size Vec2, percent float64) (Polygon, error) {
	if !(size[0] > 0 && size[1] > 0) {
		return Polygon{}, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	if !(percent > 0 && percent < 100) {
		return Polygon{}, fmt.Errorf("%w: %v", ErrInvalidRounding, percent)
	}
	w, h := size[0]/2, size[1]/2
	m := math.Min(w, h)
	c := m - 0.01*m*percent

	return New(
		V(c-w, h),
		V(w-c, h),
		V(w, h-c),
		V(w, c-h),
		V(w-c, -h),
		V(c-w, -h),
		V(-w, c-h),
		V(-w, h-c),
	)
}

// MustFromSize is FromSize for compile-time constant shapes.
func MustFromSize(size Vec2) Polygon {
	p, err := FromSize(size)
	if err != nil {
		panic(err)
	}
	return p
}

// MustFromSizeRounded is FromSizeRounded for compile-time constant shapes.
func MustFromSizeRounded(size Vec2, percent float64) Polygon {
	p, err := FromSizeRounded(size, percent)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of vertices.
func (p Polygon) Len() int { return p.n }

// Valid reports whether p came from a factory (three or more vertices).
func (p Polygon) Valid() bool { return p.n >= 3 }

// Point returns vertex i.
func (p Polygon) Point(i int) Vec2 { return p.pts[i] }

// Points returns a copy of the vertices in winding order.
func (p Polygon) Points() []Vec2 {
	out := make([]Vec2, p.n)
	copy(out, p.pts[:p.n])
	return out
}

// Edges returns every edge, closing the loop from the last vertex back to
// the first.
func (p Polygon) Edges() []Edge {
	out := make([]Edge, p.n)
	for i := 0; i < p.n; i++ {
		out[i] = Edge{A: p.pts[i], B: p.pts[(i+1)%p.n]}
	}
	return out
}

// Center returns the mean of the vertices.
func (p Polygon) Center() Vec2 {
	var sum Vec2
	for i := 0; i < p.n; i++ {
		sum = sum.Add(p.pts[i])
	}
	if p.n == 0 {
		return sum
	}
	return sum.Mul(1 / float64(p.n))
}

// ContainsPoint reports whether pt lies inside p or on its boundary. For
// every run of three vertices pt must sit on the same side of the edge
// formed by the last two as the first one does.
func (p Polygon) ContainsPoint(pt Vec2) bool {
	p.mustBeValid()
	for i := 0; i < p.n; i++ {
		a := p.pts[i]
		b := p.pts[(i+1)%p.n]
		c := p.pts[(i+2)%p.n]
		if !sameSide(pt, a, Edge{A: b, B: c}) {
			return false
		}
	}
	return true
}

// ClosestEdgeToPoint returns the edge with the smallest perpendicular
// distance to pt. Ties go to the first edge in winding order.
func (p Polygon) ClosestEdgeToPoint(pt Vec2) Edge {
	p.mustBeValid()
	best := Edge{A: p.pts[0], B: p.pts[1%p.n]}
	bestDist := distanceToLine(pt, best)
	for i := 1; i < p.n; i++ {
		e := Edge{A: p.pts[i], B: p.pts[(i+1)%p.n]}
		if d := distanceToLine(pt, e); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// IsTouching reports whether any vertex of either polygon lies inside the
// other. Edge-only crossings are not detected.
func (p Polygon) IsTouching(other Polygon) bool {
	for i := 0; i < other.n; i++ {
		if p.ContainsPoint(other.pts[i]) {
			return true
		}
	}
	for i := 0; i < p.n; i++ {
		if other.ContainsPoint(p.pts[i]) {
			return true
		}
	}
	return false
}

// FirstVertexInside returns the first vertex of p, in winding order, that
// lies inside other.
func (p Polygon) FirstVertexInside(other Polygon) (Vec2, bool) {
	for i := 0; i < p.n; i++ {
		if other.ContainsPoint(p.pts[i]) {
			return p.pts[i], true
		}
	}
	return Vec2{}, false
}

// Transform maps every vertex through tf.
func (p Polygon) Transform(tf Transform) Polygon {
	m := tf.Matrix()
	out := Polygon{n: p.n}
	for i := 0; i < p.n; i++ {
		out.pts[i] = m.Mul3x1(p.pts[i].Vec3(1)).Vec2()
	}
	return out
}

func (p Polygon) mustBeValid() {
	if p.n < 3 {
		panic(fmt.Sprintf("physics: degenerate polygon with %d points", p.n))
	}
}

func sameSide(p1, p2 Vec2, line Edge) bool {
	l0 := line.A.Vec3(0)
	dir := line.B.Vec3(0).Sub(l0)

	cp1 := dir.Cross(p1.Vec3(0).Sub(l0))
	cp2 := dir.Cross(p2.Vec3(0).Sub(l0))

	return cp1.Dot(cp2) >= 0
}

// areaOfTriangle returns the unsigned area of a triangle.
func areaOfTriangle(a, b, c Vec2) float64 {
	return math.Abs((a[0]-c[0])*(b[1]-a[1])-(a[0]-b[0])*(c[1]-a[1])) / 2
}

// distanceToLine is the perpendicular distance from pt to the infinite
// line through e. A zero length edge degrades to a point distance.
func distanceToLine(pt Vec2, e Edge) float64 {
	l := e.Length()
	if l == 0 {
		return Distance(pt, e.A)
	}
	return 2 * areaOfTriangle(pt, e.A, e.B) / l
}

// ReflectAgainstLine mirrors v about the line's normal, as a ball bouncing
// off a wall. A zero length line has no normal and returns v unchanged.
func ReflectAgainstLine(v Vec2, line Edge) Vec2 {
	n, err := Normalize(Perp(line.B.Sub(line.A)))
	if err != nil {
		return v
	}
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// ReflectAgainstSegment reflects v off the corner a-b-c using the average
// of both edge normals.
func ReflectAgainstSegment(v, a, b, c Vec2) Vec2 {
	n1, err1 := Normalize(Perp(b.Sub(a)))
	n2, err2 := Normalize(Perp(c.Sub(b)))
	switch {
	case err1 != nil && err2 != nil:
		return v
	case err1 != nil:
		return ReflectAgainstLine(v, Edge{A: b, B: c})
	case err2 != nil:
		return ReflectAgainstLine(v, Edge{A: a, B: b})
	}
	semi, err := Normalize(n1.Add(n2))
	if err != nil {
		return v
	}
	return v.Sub(semi.Mul(2 * v.Dot(semi)))
}
