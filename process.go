package triwarp

import (
	"image"
	"io"
	"log/slog"
)

// Processor : type with processing options
type Processor struct {
	Cols          int
	Rows          int
	Overlap       float64
	Wireframe     int
	LineWidth     float64
	ShowHandles   bool
	HandleRadius  float64
	ShowIncircles bool

	Logger  *slog.Logger
	Metrics *Metrics

	// Frame, when set, receives the canvas after every replayed script event.
	Frame func(i int, ev Event, img image.Image) error
}

// NewSession returns an empty session configured with the processor options.
func (p *Processor) NewSession() *Session {
	w := &Warper{
		Overlap:       p.Overlap,
		Wireframe:     p.Wireframe,
		LineWidth:     p.LineWidth,
		ShowHandles:   p.ShowHandles,
		HandleRadius:  p.HandleRadius,
		ShowIncircles: p.ShowIncircles,
		Logger:        p.Logger,
		Metrics:       p.Metrics,
	}
	return NewSession(p.Cols, p.Rows, w)
}

// Process : Warp the source image through the mesh deformed by script and
// write the final frame as PNG to output. A nil script renders the mesh at
// rest.
func (p *Processor) Process(file io.Reader, script *Script, output io.Writer) (*Session, Stats, error) {
	s := p.NewSession()
	if err := s.Load(file); err != nil {
		return nil, Stats{}, err
	}
	if _, err := s.Render(); err != nil {
		return nil, Stats{}, err
	}

	if script != nil {
		var frame func(int, Event) error
		if p.Frame != nil {
			frame = func(i int, ev Event) error {
				return p.Frame(i, ev, s.Image())
			}
		}
		if err := script.Replay(s, frame); err != nil {
			return s, s.LastStats(), err
		}
	}

	if err := s.EncodePNG(output); err != nil {
		return s, s.LastStats(), err
	}
	return s, s.LastStats(), nil
}
