package triwarp

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/fogleman/gg"
)

// Wireframe modes.
const (
	WITHOUT_WIREFRAME = iota
	WITH_WIREFRAME
	WIREFRAME_ONLY
)

// ErrImageNotReady is returned when a warp is requested before a source image
// has been decoded.
var ErrImageNotReady = errors.New("source image not ready")

var (
	defaultStrokeColor   = color.NRGBA{R: 0, G: 0, B: 0, A: 80}
	defaultHandleColor   = color.NRGBA{R: 220, G: 40, B: 40, A: 200}
	defaultIncircleColor = color.NRGBA{R: 255, G: 0, B: 0, A: 102}
)

const (
	// maxVertexShift caps, in pixels, how far the overlap may push a vertex.
	// Sharp corners get a smaller overlap instead of a long spike.
	maxVertexShift = 4.0
	// windowPadding keeps the bilinear kernel inside the cropped source.
	windowPadding = 2
)

// Warper draws a source image through a deformed control point mesh.
// The zero value draws with no overlap and no overlays; NewWarper returns
// one with the default overlap.
type Warper struct {
	// Overlap is the outward expansion applied to every source and
	// destination triangle. See DefaultOverlap.
	Overlap float64

	Wireframe     int
	LineWidth     float64
	StrokeColor   color.Color
	ShowHandles   bool
	HandleRadius  float64
	HandleColor   color.Color
	ShowIncircles bool

	Logger  *slog.Logger
	Metrics *Metrics
}

// NewWarper returns a Warper using DefaultOverlap.
func NewWarper() *Warper {
	return &Warper{
		Overlap:      DefaultOverlap,
		LineWidth:    1,
		HandleRadius: 4,
	}
}

func (w *Warper) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// Warp clears dc and repaints it with src drawn through every face of topo.
// Rest positions are read in src pixel space, scaled when the image and the
// mesh area differ in size; current positions are canvas coordinates.
//
// A face whose triangles are degenerate is left unpainted and counted in
// Stats.Skipped. It never aborts the pass. Any clip set on dc beforehand is
// cleared.
func (w *Warper) Warp(dc *gg.Context, src image.Image, topo Topology) (Stats, error) {
	if src == nil || src.Bounds().Empty() {
		return Stats{}, ErrImageNotReady
	}
	if topo.Cols < 1 || topo.Rows < 1 || len(topo.Rest) != (topo.Cols+1)*(topo.Rows+1) || len(topo.Current) != len(topo.Rest) {
		return Stats{}, fmt.Errorf("topology %dx%d with %d points: %w", topo.Cols, topo.Rows, len(topo.Rest), ErrInvalidGrid)
	}

	start := time.Now()
	log := w.logger()

	dc.Push()
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()
	dc.Pop()

	b := src.Bounds()
	sx := float64(b.Dx()) / topo.Width
	sy := float64(b.Dy()) / topo.Height

	faces := Faces(topo.Cols, topo.Rows)
	stats := Stats{Faces: len(faces)}

	if w.Wireframe != WIREFRAME_ONLY {
		for _, f := range faces {
			s := f.Resolve(topo.Rest)
			for i := range s {
				s[i] = Point{X: s[i].X * sx, Y: s[i].Y * sy}
			}
			d := f.Resolve(topo.Current)

			if err := w.drawTriangle(dc, src, s, d); err != nil {
				stats.Skipped++
				log.Debug("skipping face", "face", f, "error", err)
				continue
			}
			stats.Drawn++
		}
	}

	w.drawOverlay(dc, faces, topo.Current)

	stats.Elapsed = time.Since(start)
	w.Metrics.observeRender(stats)
	if stats.Skipped > 0 {
		log.Warn("degenerate faces left unpainted", "skipped", stats.Skipped, "faces", stats.Faces)
	}
	return stats, nil
}

// drawTriangle draws the part of src inside the source triangle s onto the
// destination triangle d. The canvas transform and clip are restored on
// return.
func (w *Warper) drawTriangle(dc *gg.Context, src image.Image, s, d Triangle) error {
	overlap := w.Overlap
	if overlap > 0 {
		overlap = Min(overlap, s.MaxExpansion(maxVertexShift), d.MaxExpansion(maxVertexShift))
	}
	sx, err := s.Expand(overlap)
	if err != nil {
		return fmt.Errorf("source triangle: %w", err)
	}
	dx, err := d.Expand(overlap)
	if err != nil {
		return fmt.Errorf("destination triangle: %w", err)
	}
	m, err := SolveAffine(sx, dx)
	if err != nil {
		return err
	}

	dc.Push()
	// Pop restores the matrix but keeps the clip mask.
	defer func() {
		dc.ResetClip()
		dc.Pop()
	}()

	dc.ClearPath()
	dc.MoveTo(dx[0].X, dx[0].Y)
	dc.LineTo(dx[1].X, dx[1].Y)
	dc.LineTo(dx[2].X, dx[2].Y)
	dc.ClosePath()
	dc.Clip()

	if err := m.applyTo(dc); err != nil {
		return err
	}
	b := src.Bounds()
	dc.DrawImage(sourceWindow(src, sx), -b.Min.X, -b.Min.Y)
	return nil
}

// sourceWindow returns the part of src covered by the source triangle t,
// given relative to the image origin, padded for the resampling kernel.
// The window keeps the coordinates of src.
func sourceWindow(src image.Image, t Triangle) image.Image {
	sub, ok := src.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return src
	}
	b := src.Bounds()
	r := image.Rect(
		int(math.Floor(Min(t[0].X, t[1].X, t[2].X)))-windowPadding,
		int(math.Floor(Min(t[0].Y, t[1].Y, t[2].Y)))-windowPadding,
		int(math.Ceil(Max(t[0].X, t[1].X, t[2].X)))+windowPadding,
		int(math.Ceil(Max(t[0].Y, t[1].Y, t[2].Y)))+windowPadding,
	).Add(b.Min).Intersect(b)
	return sub.SubImage(r)
}

// applyTo multiplies the current transform of dc by m. The linear part is
// decomposed as rotation * shear * scale (a QR factorisation) because gg only
// exposes elementary transforms.
func (m Affine) applyTo(dc *gg.Context) error {
	ax, bx := m.X[0], m.X[1]
	ay, by := m.Y[0], m.Y[1]

	u11 := math.Hypot(ax, ay)
	if u11 == 0 {
		return fmt.Errorf("zero first column: %w", ErrDegenerateGeometry)
	}
	c, s := ax/u11, ay/u11
	u12 := c*bx + s*by
	u22 := c*by - s*bx
	if u22 == 0 {
		return fmt.Errorf("rank deficient transform: %w", ErrDegenerateGeometry)
	}

	dc.Translate(m.X[2], m.Y[2])
	dc.Rotate(math.Atan2(ay, ax))
	dc.Shear(u12/u22, 0)
	dc.Scale(u11, u22)
	return nil
}

// drawOverlay strokes the mesh edges, handles and incircles requested by w.
func (w *Warper) drawOverlay(dc *gg.Context, faces []Face, pts []Point) {
	lineWidth := w.LineWidth
	if lineWidth <= 0 {
		lineWidth = 1
	}

	if w.Wireframe == WITH_WIREFRAME || w.Wireframe == WIREFRAME_ONLY {
		strokeColor := w.StrokeColor
		if strokeColor == nil {
			strokeColor = defaultStrokeColor
		}
		dc.Push()
		dc.ClearPath()
		dc.SetStrokeStyle(gg.NewSolidPattern(strokeColor))
		dc.SetLineWidth(lineWidth)
		for _, f := range faces {
			t := f.Resolve(pts)
			dc.NewSubPath()
			dc.MoveTo(t[0].X, t[0].Y)
			dc.LineTo(t[1].X, t[1].Y)
			dc.LineTo(t[2].X, t[2].Y)
			dc.ClosePath()
		}
		dc.Stroke()
		dc.Pop()
	}

	if w.ShowIncircles {
		dc.Push()
		dc.ClearPath()
		dc.SetStrokeStyle(gg.NewSolidPattern(defaultIncircleColor))
		dc.SetLineWidth(2)
		for _, f := range faces {
			t := f.Resolve(pts)
			ic := Incircle(t[0], t[1], t[2])
			if !(ic.Radius > 0) || !ic.Center.isFinite() {
				continue
			}
			dc.NewSubPath()
			dc.DrawCircle(ic.Center.X, ic.Center.Y, ic.Radius)
		}
		dc.Stroke()
		dc.Pop()
	}

	if w.ShowHandles {
		handleColor := w.HandleColor
		if handleColor == nil {
			handleColor = defaultHandleColor
		}
		radius := w.HandleRadius
		if radius <= 0 {
			radius = 4
		}
		dc.Push()
		dc.ClearPath()
		dc.SetFillStyle(gg.NewSolidPattern(handleColor))
		for _, p := range pts {
			dc.NewSubPath()
			dc.DrawCircle(p.X, p.Y, radius)
		}
		dc.Fill()

		// Handles are labelled with the index scripts refer to them by.
		dc.SetColor(handleColor)
		for i, p := range pts {
			dc.DrawStringAnchored(strconv.Itoa(i), p.X+radius+1, p.Y-radius-1, 0, 0)
		}
		dc.Pop()
	}
}
