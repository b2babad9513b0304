package bundle

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is one vertex of a track: a 3D position and an ordered list of
// scalar attributes. Attributes are carried through interpolation and
// averaging element-wise but are not used by the simulation.
type Point struct {
	X, Y, Z    float32
	Attributes []float32
}

// Pt is a convenience function to create a Point without attributes.
func Pt(x, y, z float32) Point {
	return Point{X: x, Y: y, Z: z}
}

// Vec returns the position as a gonum vector.
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// WithPosition returns a copy of p moved to v, keeping its attributes.
func (p Point) WithPosition(v r3.Vec) Point {
	return Point{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z), Attributes: p.Attributes}
}

// Clone returns a deep copy of p.
func (p Point) Clone() Point {
	q := p
	if p.Attributes != nil {
		q.Attributes = append([]float32(nil), p.Attributes...)
	}
	return q
}

// Add returns the element-wise sum of two points.
func (p Point) Add(q Point) (Point, error) {
	if len(p.Attributes) != len(q.Attributes) {
		return Point{}, fmt.Errorf("%w: add %d and %d attributes", ErrAttributeShape, len(p.Attributes), len(q.Attributes))
	}
	r := Point{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
	if len(p.Attributes) > 0 {
		r.Attributes = make([]float32, len(p.Attributes))
		for i := range p.Attributes {
			r.Attributes[i] = p.Attributes[i] + q.Attributes[i]
		}
	}
	return r, nil
}

// Scale returns the point with position and attributes multiplied by s.
func (p Point) Scale(s float32) Point {
	r := Point{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
	if len(p.Attributes) > 0 {
		r.Attributes = make([]float32, len(p.Attributes))
		for i, a := range p.Attributes {
			r.Attributes[i] = a * s
		}
	}
	return r
}

// Lerp performs linear interpolation between two points.
// t=0 returns p, t=1 returns q. Attributes are interpolated too.
func (p Point) Lerp(q Point, t float32) (Point, error) {
	return p.Scale(1 - t).Add(q.Scale(t))
}

// Distance returns the Euclidean distance between the positions.
func (p Point) Distance(q Point) float64 {
	return r3.Norm(r3.Sub(p.Vec(), q.Vec()))
}

// Equal reports whether p and q have identical position and attributes.
func (p Point) Equal(q Point) bool {
	if p.X != q.X || p.Y != q.Y || p.Z != q.Z || len(p.Attributes) != len(q.Attributes) {
		return false
	}
	for i := range p.Attributes {
		if p.Attributes[i] != q.Attributes[i] {
			return false
		}
	}
	return true
}
