package triwarp

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	// Register decoders beyond the ones imaging pulls in.
	_ "golang.org/x/image/webp"
)

// ErrAlreadyLoaded is returned when a second source image is loaded into a
// session. The grid is fixed once the source is known.
var ErrAlreadyLoaded = errors.New("source image already loaded")

// Session ties a source image, its control point mesh and the canvas it is
// warped onto. The mesh is created when the image is loaded and keeps its
// grid for the rest of the session.
//
// A Session is not safe for concurrent use: every move finishes its re-render
// before returning.
type Session struct {
	cols, rows int
	warper     *Warper

	src  *image.NRGBA
	mesh *Mesh
	dc   *gg.Context
	drag *DragTracker

	last Stats
}

// NewSession returns a session for a cols x rows grid. A nil warper means
// NewWarper().
func NewSession(cols, rows int, warper *Warper) *Session {
	if warper == nil {
		warper = NewWarper()
	}
	return &Session{cols: cols, rows: rows, warper: warper}
}

// Load decodes the source image from r, honouring EXIF orientation, and
// prepares the session for rendering.
func (s *Session) Load(r io.Reader) error {
	if s.src != nil {
		return ErrAlreadyLoaded
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode source image: %w", err)
	}
	return s.LoadImage(img)
}

// LoadImage uses img as the source image. The canvas takes the image size and
// the mesh is laid over it at rest.
func (s *Session) LoadImage(img image.Image) error {
	if s.src != nil {
		return ErrAlreadyLoaded
	}
	if img == nil || img.Bounds().Empty() {
		return ErrImageNotReady
	}
	src := toNRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	mesh, err := NewMesh(s.cols, s.rows, float64(w), float64(h))
	if err != nil {
		return err
	}

	s.src = src
	s.mesh = mesh
	s.dc = gg.NewContext(w, h)
	s.drag = NewDragTracker(mesh, func() error {
		_, err := s.Render()
		return err
	})
	s.drag.metrics = s.warper.Metrics

	s.warper.logger().Debug("source image loaded",
		"width", w, "height", h, "cols", s.cols, "rows", s.rows, "points", mesh.Len())
	return nil
}

// Ready reports whether a source image has been loaded.
func (s *Session) Ready() bool { return s.src != nil }

// Mesh returns the control point mesh, or nil before a source is loaded.
func (s *Session) Mesh() *Mesh { return s.mesh }

// Warper returns the warper used for rendering.
func (s *Session) Warper() *Warper { return s.warper }

// Drag returns the drag tracker bound to the mesh. Every drag move re-renders
// the canvas. It is nil before a source is loaded.
func (s *Session) Drag() *DragTracker { return s.drag }

// Render repaints the whole canvas from the current mesh.
func (s *Session) Render() (Stats, error) {
	if s.src == nil {
		return Stats{}, ErrImageNotReady
	}
	stats, err := s.warper.Warp(s.dc, s.src, s.mesh.Topology())
	if err != nil {
		return stats, err
	}
	s.last = stats
	return stats, nil
}

// LastStats returns the statistics of the latest successful render.
func (s *Session) LastStats() Stats { return s.last }

// MovePoint moves a control point and re-renders.
func (s *Session) MovePoint(idx int, p Point) (Point, error) {
	if s.src == nil {
		return Point{}, ErrImageNotReady
	}
	got, err := s.mesh.MovePoint(idx, p)
	s.warper.Metrics.observeMove(err)
	if err != nil {
		return Point{}, err
	}
	if _, err := s.Render(); err != nil {
		return got, err
	}
	return got, nil
}

// Reset brings every control point back to rest and re-renders.
func (s *Session) Reset() error {
	if s.src == nil {
		return ErrImageNotReady
	}
	s.mesh.Reset()
	_, err := s.Render()
	return err
}

// Image returns the canvas contents, or nil before a source is loaded.
func (s *Session) Image() image.Image {
	if s.dc == nil {
		return nil
	}
	return s.dc.Image()
}

// Source returns the normalised source image.
func (s *Session) Source() *image.NRGBA { return s.src }

// EncodePNG writes the canvas as PNG.
func (s *Session) EncodePNG(w io.Writer) error {
	if s.dc == nil {
		return ErrImageNotReady
	}
	return s.dc.EncodePNG(w)
}

func (s *Session) logger() *slog.Logger { return s.warper.logger() }
