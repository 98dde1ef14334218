// Package geom provides the 2D primitives shared by the profile, layout and
// annotation packages.
//
// Coordinates follow drawing conventions: x increases to the right and y
// increases up the page. A counter-clockwise polygon therefore has its
// interior on the left of every edge.
package geom

import "math"

// Eps is the tolerance used for near-zero comparisons. Values are typically
// millimetres, so anything closer than a micrometre is treated as equal.
const Eps = 1e-9

// NearZero reports whether v is within Eps of zero.
func NearZero(v float64) bool { return math.Abs(v) < Eps }

// Near reports whether a and b differ by less than tol.
func Near(a, b, tol float64) bool { return math.Abs(a-b) < tol }

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Len returns the Euclidean length of p as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 { return q.Sub(p).Len() }

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point { return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2} }

// Unit returns p scaled to length 1. The zero vector is returned unchanged.
func (p Point) Unit() Point {
	l := p.Len()
	if NearZero(l) {
		return p
	}
	return p.Scale(1 / l)
}

// RightNormal returns the unit normal on the right-hand side of p.
func (p Point) RightNormal() Point { return Point{p.Y, -p.X}.Unit() }

// Cross returns the z component of the cross product p×q.
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }

// Component returns the X coordinate for AxisX and Y for AxisY.
func (p Point) Component(a Axis) float64 {
	if a == AxisY {
		return p.Y
	}
	return p.X
}

// Axis selects a coordinate direction.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Along returns a vector of length v pointing along a.
func Along(a Axis, v float64) Point {
	if a == AxisY {
		return Point{Y: v}
	}
	return Point{X: v}
}
