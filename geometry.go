package triwarp

import (
	"errors"
	"fmt"
	"math"
)

// DefaultOverlap is the distance, in pixels, by which every triangle edge is
// pushed outward before drawing. Adjoining triangles overlap by this amount,
// which hides the hairline cracks left by anti-aliased clipping along shared
// edges. Values between 0.1 and 1.0 work well: below that range seams come
// back, above it edges visibly smear into their neighbours.
const DefaultOverlap = 0.3

const (
	// detEpsilon is the smallest absolute determinant accepted by SolveAffine.
	detEpsilon = 1e-9
	// flatEpsilon bounds area/perimeter² below which a triangle counts as
	// flat. An equilateral triangle scores about 0.048.
	flatEpsilon = 1e-4
)

// ErrDegenerateGeometry is returned when three points do not span a triangle.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(q.X-p.X, q.Y-p.Y) }

func (p Point) isFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Triangle holds three vertices.
type Triangle [3]Point

// Area returns the signed area; positive when the vertices wind clockwise in
// image coordinates (y pointing down).
func (t Triangle) Area() float64 {
	return ((t[1].X-t[0].X)*(t[2].Y-t[0].Y) - (t[2].X-t[0].X)*(t[1].Y-t[0].Y)) / 2
}

// Contains reports whether p lies strictly inside t.
func (t Triangle) Contains(p Point) bool {
	d1 := cross(t[0], t[1], p)
	d2 := cross(t[1], t[2], p)
	d3 := cross(t[2], t[0], p)
	return (d1 > 0 && d2 > 0 && d3 > 0) || (d1 < 0 && d2 < 0 && d3 < 0)
}

func cross(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// Circle is a circle given by its center and radius.
type Circle struct {
	Center Point
	Radius float64
}

// Incircle returns the inscribed circle of the triangle abc.
//
// The center is the side-length weighted average of the vertices, each vertex
// weighted by the length of the opposite side. The radius is area/semiperimeter
// with the area computed by Heron's formula. Collinear input gives a zero
// radius; three coincident points give a NaN center.
func Incircle(a, b, c Point) Circle {
	la := b.Dist(c)
	lb := c.Dist(a)
	lc := a.Dist(b)
	p := la + lb + lc
	s := p / 2

	// Rounding can push the product slightly below zero for flat triangles.
	area := math.Sqrt(math.Max(0, s*(s-la)*(s-lb)*(s-lc)))

	return Circle{
		Center: Point{
			X: (la*a.X + lb*b.X + lc*c.X) / p,
			Y: (la*a.Y + lb*b.Y + lc*c.Y) / p,
		},
		Radius: area / s,
	}
}

// ExpandTriangle scales the triangle abc about its incenter so that every
// edge moves outward by amount. A negative amount shrinks the triangle.
// Flat and near-flat triangles fail with ErrDegenerateGeometry.
func ExpandTriangle(a, b, c Point, amount float64) (Triangle, error) {
	t := Triangle{a, b, c}
	if p := a.Dist(b) + b.Dist(c) + c.Dist(a); math.Abs(t.Area()) <= flatEpsilon*p*p {
		return Triangle{}, fmt.Errorf("flat triangle %v: %w", t, ErrDegenerateGeometry)
	}
	ic := Incircle(a, b, c)
	if !(ic.Radius > 0) || math.IsInf(ic.Radius, 0) || !ic.Center.isFinite() {
		return Triangle{}, fmt.Errorf("incircle radius %v: %w", ic.Radius, ErrDegenerateGeometry)
	}
	factor := (ic.Radius + amount) / ic.Radius
	if !(factor > 0) {
		return Triangle{}, fmt.Errorf("contraction %v exceeds incircle radius %v: %w", -amount, ic.Radius, ErrDegenerateGeometry)
	}

	extend := func(p Point) Point {
		return Point{
			X: (p.X-ic.Center.X)*factor + ic.Center.X,
			Y: (p.Y-ic.Center.Y)*factor + ic.Center.Y,
		}
	}
	return Triangle{extend(a), extend(b), extend(c)}, nil
}

// MaxExpansion returns the largest amount by which t can be expanded without
// any vertex moving farther than shift. Vertices move by amount/sin(angle/2),
// so sharp corners limit the expansion. Flat triangles give 0.
func (t Triangle) MaxExpansion(shift float64) float64 {
	ic := Incircle(t[0], t[1], t[2])
	if !(ic.Radius > 0) || !ic.Center.isFinite() {
		return 0
	}
	far := Max(t[0].Dist(ic.Center), t[1].Dist(ic.Center), t[2].Dist(ic.Center))
	return shift * ic.Radius / far
}

// Expand is the method form of ExpandTriangle.
func (t Triangle) Expand(amount float64) (Triangle, error) {
	return ExpandTriangle(t[0], t[1], t[2], amount)
}

// SolveAffine3Point solves
//
//	t1 = a*r1 + b*s1 + c
//	t2 = a*r2 + b*s2 + c
//	t3 = a*r3 + b*s3 + c
//
// for a, b and c. If the three (r, s) points are collinear the result
// contains infinities or NaNs.
func SolveAffine3Point(r1, s1, t1, r2, s2, t2, r3, s3, t3 float64) (a, b, c float64) {
	a = ((t2-t3)*(s1-s2) - (t1-t2)*(s2-s3)) / ((r2-r3)*(s1-s2) - (r1-r2)*(s2-s3))
	b = ((t2-t3)*(r1-r2) - (t1-t2)*(r2-r3)) / ((s2-s3)*(r1-r2) - (s1-s2)*(r2-r3))
	c = t1 - r1*a - s1*b
	return a, b, c
}

// Affine is a 2D affine transform:
//
//	x' = X[0]*x + X[1]*y + X[2]
//	y' = Y[0]*x + Y[1]*y + Y[2]
type Affine struct {
	X, Y [3]float64
}

// Identity is the affine transform that leaves every point in place.
var Identity = Affine{X: [3]float64{1, 0, 0}, Y: [3]float64{0, 1, 0}}

// SolveAffine returns the affine transform carrying src onto dst vertex by
// vertex. Collinear source vertices fail with ErrDegenerateGeometry.
func SolveAffine(src, dst Triangle) (Affine, error) {
	var m Affine
	m.X[0], m.X[1], m.X[2] = SolveAffine3Point(
		src[0].X, src[0].Y, dst[0].X,
		src[1].X, src[1].Y, dst[1].X,
		src[2].X, src[2].Y, dst[2].X,
	)
	m.Y[0], m.Y[1], m.Y[2] = SolveAffine3Point(
		src[0].X, src[0].Y, dst[0].Y,
		src[1].X, src[1].Y, dst[1].Y,
		src[2].X, src[2].Y, dst[2].Y,
	)
	if !m.IsFinite() {
		return Affine{}, fmt.Errorf("non-finite affine coefficients: %w", ErrDegenerateGeometry)
	}
	if math.Abs(m.Det()) < detEpsilon {
		return Affine{}, fmt.Errorf("singular affine transform: %w", ErrDegenerateGeometry)
	}
	return m, nil
}

// Apply maps p through the transform.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.X[0]*p.X + m.X[1]*p.Y + m.X[2],
		Y: m.Y[0]*p.X + m.Y[1]*p.Y + m.Y[2],
	}
}

// Det returns the determinant of the linear part.
func (m Affine) Det() float64 {
	return m.X[0]*m.Y[1] - m.X[1]*m.Y[0]
}

// IsFinite reports whether every coefficient is a finite number.
func (m Affine) IsFinite() bool {
	for i := 0; i < 3; i++ {
		for _, v := range [2]float64{m.X[i], m.Y[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
