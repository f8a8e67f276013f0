package triwarp

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownEvent is returned for a script event with an unsupported type.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrMissingPoint is returned for a press or set event without a point.
	ErrMissingPoint = errors.New("event needs a point")
)

// Event types understood by a Script.
const (
	EventPress   = "press"
	EventMove    = "move"
	EventRelease = "release"
	EventSet     = "set"
	EventReset   = "reset"
)

// Event is one step of a scripted interaction. Press, move and release go
// through the drag tracker; set moves a point directly; reset returns every
// point to rest. Point names the control point for press and set.
type Event struct {
	Type  string  `yaml:"type"`
	Point *int    `yaml:"point,omitempty"`
	X     float64 `yaml:"x,omitempty"`
	Y     float64 `yaml:"y,omitempty"`
}

func (e Event) at() Point { return Point{X: e.X, Y: e.Y} }

// index returns the targeted control point.
func (e Event) index() (int, error) {
	if e.Point == nil {
		return 0, ErrMissingPoint
	}
	return *e.Point, nil
}

// Script is a sequence of input events that stands in for a pointer.
//
//	events:
//	  - {type: press, point: 4, x: 50, y: 50}
//	  - {type: move, x: 70, y: 30}
//	  - {type: release}
type Script struct {
	Events []Event `yaml:"events"`
}

// ParseScript decodes a YAML script and checks its event types. Press and set
// events must name a point.
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("decode script: %w", err)
	}
	for i, ev := range s.Events {
		switch ev.Type {
		case EventPress, EventSet:
			if ev.Point == nil {
				return nil, fmt.Errorf("event %d %q: %w", i, ev.Type, ErrMissingPoint)
			}
		case EventMove, EventRelease, EventReset:
		default:
			return nil, fmt.Errorf("event %d %q: %w", i, ev.Type, ErrUnknownEvent)
		}
	}
	return &s, nil
}

// Replay feeds every event to the session. Moves re-render the canvas; frame,
// if not nil, is called after each event once the canvas is up to date.
// Replay stops at the first failing event.
func (sc *Script) Replay(s *Session, frame func(i int, ev Event) error) error {
	if !s.Ready() {
		return ErrImageNotReady
	}
	drag := s.Drag()
	log := s.logger()

	for i, ev := range sc.Events {
		var err error
		switch ev.Type {
		case EventPress:
			var idx int
			if idx, err = ev.index(); err == nil {
				err = drag.Press(idx, ev.at())
			}
		case EventMove:
			err = drag.Move(ev.at())
		case EventRelease:
			drag.Release()
		case EventSet:
			var idx int
			if idx, err = ev.index(); err == nil {
				_, err = s.MovePoint(idx, ev.at())
			}
		case EventReset:
			err = s.Reset()
		default:
			err = ErrUnknownEvent
		}
		if err != nil {
			return fmt.Errorf("event %d (%s): %w", i, ev.Type, err)
		}
		log.Debug("replayed event", "index", i, "type", ev.Type, "state", drag.State())

		if frame != nil {
			if err := frame(i, ev); err != nil {
				return err
			}
		}
	}
	return nil
}
