package triwarp

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrIndexOutOfRange is returned for a control point index outside the mesh.
	ErrIndexOutOfRange = errors.New("control point index out of range")
	// ErrInvalidGrid is returned when a mesh is requested with fewer than one
	// column or row, or with an empty area.
	ErrInvalidGrid = errors.New("invalid grid")
	// ErrInvalidPosition is returned when a control point is moved to a
	// non-finite coordinate.
	ErrInvalidPosition = errors.New("invalid position")
)

// Face is a triangle given by three control point indices.
type Face [3]int

// Mesh owns the control points of a warp grid. Every point has a rest
// position on the undistorted grid and a current, user displaced position.
//
// A Mesh is not safe for concurrent use.
type Mesh struct {
	cols, rows    int
	width, height float64
	rest          []Point
	current       []Point
}

// NewMesh returns a mesh of cols x rows cells covering a width x height area,
// with every point at rest.
func NewMesh(cols, rows int, width, height float64) (*Mesh, error) {
	m := &Mesh{}
	if err := m.Init(cols, rows, width, height); err != nil {
		return nil, err
	}
	return m, nil
}

// Init lays out (cols+1)*(rows+1) control points on a uniform grid. Calling
// Init on a mesh that already has points is a no-op; use Reset to bring the
// points back to rest.
func (m *Mesh) Init(cols, rows int, width, height float64) error {
	if len(m.rest) > 0 {
		return nil
	}
	if cols < 1 || rows < 1 {
		return fmt.Errorf("%dx%d cells: %w", cols, rows, ErrInvalidGrid)
	}
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return fmt.Errorf("%vx%v area: %w", width, height, ErrInvalidGrid)
	}

	m.cols, m.rows = cols, rows
	m.width, m.height = width, height

	n := (cols + 1) * (rows + 1)
	m.rest = make([]Point, 0, n)
	m.current = make([]Point, 0, n)

	dx := width / float64(cols)
	dy := height / float64(rows)
	for row := 0; row <= rows; row++ {
		for col := 0; col <= cols; col++ {
			p := Point{X: float64(col) * dx, Y: float64(row) * dy}
			m.rest = append(m.rest, p)
			m.current = append(m.current, p)
		}
	}
	return nil
}

// Cols returns the number of grid columns.
func (m *Mesh) Cols() int { return m.cols }

// Rows returns the number of grid rows.
func (m *Mesh) Rows() int { return m.rows }

// Size returns the area covered by the mesh at rest.
func (m *Mesh) Size() (width, height float64) { return m.width, m.height }

// Len returns the number of control points.
func (m *Mesh) Len() int { return len(m.rest) }

// Index returns the control point index of the grid corner at (col, row).
func (m *Mesh) Index(col, row int) int {
	return row*(m.cols+1) + col
}

func (m *Mesh) checkIndex(idx int) error {
	if idx < 0 || idx >= len(m.rest) {
		return fmt.Errorf("index %d not in [0, %d): %w", idx, len(m.rest), ErrIndexOutOfRange)
	}
	return nil
}

// Rest returns the rest position of a control point.
func (m *Mesh) Rest(idx int) (Point, error) {
	if err := m.checkIndex(idx); err != nil {
		return Point{}, err
	}
	return m.rest[idx], nil
}

// Current returns the live position of a control point.
func (m *Mesh) Current(idx int) (Point, error) {
	if err := m.checkIndex(idx); err != nil {
		return Point{}, err
	}
	return m.current[idx], nil
}

// MovePoint sets the live position of a control point. The position is
// clamped to the mesh area; the stored position is returned.
func (m *Mesh) MovePoint(idx int, p Point) (Point, error) {
	if err := m.checkIndex(idx); err != nil {
		return Point{}, err
	}
	if !p.isFinite() {
		return Point{}, fmt.Errorf("point %d to (%v, %v): %w", idx, p.X, p.Y, ErrInvalidPosition)
	}
	p.X = clamp(p.X, 0, m.width)
	p.Y = clamp(p.Y, 0, m.height)
	m.current[idx] = p
	return p, nil
}

// Reset moves every control point back to its rest position.
func (m *Mesh) Reset() {
	copy(m.current, m.rest)
}

// HandleAt returns the index of the control point nearest to p, provided it
// lies within radius. Ties go to the lower index.
func (m *Mesh) HandleAt(p Point, radius float64) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for i, c := range m.current {
		if d := c.Dist(p); d <= radius && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// Incident returns the faces that have idx as a vertex.
func (m *Mesh) Incident(idx int) []Face {
	var faces []Face
	for _, f := range Faces(m.cols, m.rows) {
		if f[0] == idx || f[1] == idx || f[2] == idx {
			faces = append(faces, f)
		}
	}
	return faces
}

// Topology is a read-only snapshot of a mesh.
type Topology struct {
	Cols, Rows    int
	Width, Height float64
	Rest          []Point
	Current       []Point
}

// Topology returns a snapshot of the mesh which later moves do not affect.
func (m *Mesh) Topology() Topology {
	return Topology{
		Cols:    m.cols,
		Rows:    m.rows,
		Width:   m.width,
		Height:  m.height,
		Rest:    append([]Point(nil), m.rest...),
		Current: append([]Point(nil), m.current...),
	}
}

// Faces splits every cell of a cols x rows grid into two triangles along the
// top-left to bottom-right diagonal: (topLeft, bottomLeft, bottomRight) and
// (topLeft, bottomRight, topRight). Cells are listed row by row.
//
// The diagonal is the same for every cell; it is not flipped to follow the
// displacement of the points.
func Faces(cols, rows int) []Face {
	if cols < 1 || rows < 1 {
		return nil
	}
	idx := func(col, row int) int { return row*(cols+1) + col }

	faces := make([]Face, 0, cols*rows*2)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			tl := idx(col, row)
			tr := idx(col+1, row)
			bl := idx(col, row+1)
			br := idx(col+1, row+1)
			faces = append(faces, Face{tl, bl, br}, Face{tl, br, tr})
		}
	}
	return faces
}

// Resolve returns the triangle formed by the face vertices in pts.
func (f Face) Resolve(pts []Point) Triangle {
	return Triangle{pts[f[0]], pts[f[1]], pts[f[2]]}
}
