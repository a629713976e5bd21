package humanize

import "math"

// Point represents a position or displacement in 2D page coordinates.
type Point struct {
	X, Y float64
}

// Add returns the vector sum of p and other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the vector difference of p and other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Mul returns p scaled by the scalar factor.
func (p Point) Mul(scalar float64) Point {
	return Point{X: p.X * scalar, Y: p.Y * scalar}
}

// Mag calculates the magnitude (length) of the vector.
func (p Point) Mag() float64 {
	// math.Hypot for numerical stability.
	return math.Hypot(p.X, p.Y)
}

// Dist calculates the Euclidean distance between p and other.
func (p Point) Dist(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Normalize returns a unit vector in the same direction as p.
// The zero vector normalizes to itself.
func (p Point) Normalize() Point {
	mag := p.Mag()
	if mag < 1e-9 {
		return Point{}
	}
	return p.Mul(1.0 / mag)
}

// Limit truncates the magnitude of the vector if it exceeds max.
func (p Point) Limit(max float64) Point {
	mag := p.Mag()
	if mag > max && mag > 0 {
		return p.Mul(max / mag)
	}
	return p
}

// Rect is an axis-aligned bounding box in page coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Center returns the geometric center of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether pt lies within the rectangle (inclusive).
func (r Rect) Contains(pt Point) bool {
	return pt.X >= r.X && pt.X <= r.X+r.Width &&
		pt.Y >= r.Y && pt.Y <= r.Y+r.Height
}

// Step is one node of a trajectory: the delay to wait before moving to Pos.
type Step struct {
	Pos   Point
	Delay float64 // milliseconds
}

// Trajectory is an ordered sequence of movement steps. The final step always
// lands exactly on the requested target.
type Trajectory []Step
