package triwarp

// DragState is the state of a DragTracker.
type DragState int

const (
	// Idle means no handle is grabbed.
	Idle DragState = iota
	// Dragging means a handle follows the pointer.
	Dragging
)

func (s DragState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

// DragTracker turns pointer presses, moves and releases into control point
// moves. Any input source able to report pointer positions can drive it.
type DragTracker struct {
	mesh     *Mesh
	onChange func() error
	metrics  *Metrics

	state  DragState
	handle int
	offset Point
}

// NewDragTracker returns an idle tracker moving the points of mesh. onChange,
// if not nil, runs synchronously after every successful move, typically to
// re-render the warp.
func NewDragTracker(mesh *Mesh, onChange func() error) *DragTracker {
	return &DragTracker{mesh: mesh, onChange: onChange, handle: -1}
}

// State returns the current tracker state.
func (d *DragTracker) State() DragState { return d.state }

// Handle returns the grabbed control point index, or -1 when idle.
func (d *DragTracker) Handle() int {
	if d.state != Dragging {
		return -1
	}
	return d.handle
}

// Press grabs a handle. The offset between the pointer and the handle is kept
// for the whole drag so the point does not jump under the cursor. Pressing
// while already dragging switches to the new handle.
func (d *DragTracker) Press(handle int, at Point) error {
	cur, err := d.mesh.Current(handle)
	if err != nil {
		return err
	}
	d.state = Dragging
	d.handle = handle
	d.offset = at.Sub(cur)
	return nil
}

// PressAt grabs the handle nearest to at within radius, if any.
func (d *DragTracker) PressAt(at Point, radius float64) (int, bool) {
	idx, ok := d.mesh.HandleAt(at, radius)
	if !ok {
		return -1, false
	}
	if err := d.Press(idx, at); err != nil {
		return -1, false
	}
	return idx, true
}

// Move drags the grabbed handle so that it keeps its offset to at, then calls
// the change callback. It does nothing when idle.
func (d *DragTracker) Move(at Point) error {
	if d.state != Dragging {
		return nil
	}
	_, err := d.mesh.MovePoint(d.handle, at.Sub(d.offset))
	d.metrics.observeMove(err)
	if err != nil {
		return err
	}
	if d.onChange != nil {
		return d.onChange()
	}
	return nil
}

// Release drops the grabbed handle.
func (d *DragTracker) Release() {
	d.state = Idle
	d.handle = -1
	d.offset = Point{}
}
