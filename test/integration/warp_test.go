package integration_test

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/esimov/triwarp"
)

// warpWorld holds the state shared by the steps of one scenario.
type warpWorld struct {
	src     *image.NRGBA
	session *triwarp.Session
	before  image.Image
	stats   triwarp.Stats
	moveErr error
	frames  int
}

func (w *warpWorld) aGradientImage(width, height int) error {
	w.src = image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			w.src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 2), G: uint8(y * 2), B: 100, A: 255})
		}
	}
	return nil
}

func (w *warpWorld) aMeshOverTheImage(cols, rows int) error {
	w.session = triwarp.NewSession(cols, rows, nil)
	return w.session.LoadImage(w.src)
}

func (w *warpWorld) theMeshHasControlPoints(n int) error {
	if got := w.session.Mesh().Len(); got != n {
		return fmt.Errorf("expected %d control points, got %d", n, got)
	}
	return nil
}

func (w *warpWorld) controlPointIsAt(idx int, x, y float64) error {
	p, err := w.session.Mesh().Current(idx)
	if err != nil {
		return err
	}
	if p != triwarp.Pt(x, y) {
		return fmt.Errorf("control point %d is at %v, expected (%v, %v)", idx, p, x, y)
	}
	return nil
}

func (w *warpWorld) everyControlPointIsAtRest() error {
	topo := w.session.Mesh().Topology()
	for i := range topo.Rest {
		if topo.Rest[i] != topo.Current[i] {
			return fmt.Errorf("control point %d is at %v, rest is %v", i, topo.Current[i], topo.Rest[i])
		}
	}
	return nil
}

func (w *warpWorld) theImageIsRendered() error {
	stats, err := w.session.Render()
	w.stats = stats
	return err
}

func (w *warpWorld) trianglesAreDrawn(n int) error {
	if w.stats.Drawn != n {
		return fmt.Errorf("expected %d drawn triangles, got %d", n, w.stats.Drawn)
	}
	return nil
}

func (w *warpWorld) trianglesAreSkipped(n int) error {
	if w.stats.Skipped != n {
		return fmt.Errorf("expected %d skipped triangles, got %d", n, w.stats.Skipped)
	}
	return nil
}

func (w *warpWorld) theOutputMatchesTheSource(tolerance int) error {
	out := w.session.Image()
	b := w.src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			got := nrgbaAt(out, x, y)
			if got.A < 200 {
				return fmt.Errorf("pixel (%d,%d) is not covered: alpha %d", x, y, got.A)
			}
			if d := channelDiff(got, w.src.NRGBAAt(x, y)); d > tolerance {
				return fmt.Errorf("pixel (%d,%d) differs by %d", x, y, d)
			}
		}
	}
	return nil
}

func (w *warpWorld) controlPointIsDragged(idx int, fromX, fromY, toX, toY float64) error {
	w.before = imaging.Clone(w.session.Image())

	drag := w.session.Drag()
	if err := drag.Press(idx, triwarp.Pt(fromX, fromY)); err != nil {
		return err
	}
	// Intermediate pointer positions, as a real drag would report them.
	const steps = 4
	for i := 1; i <= steps; i++ {
		t := float64(i) / steps
		if err := drag.Move(triwarp.Pt(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)); err != nil {
			return err
		}
	}
	drag.Release()
	w.stats = w.session.LastStats()
	return nil
}

func (w *warpWorld) controlPointIsMoved(idx int, x, y float64) error {
	_, w.moveErr = w.session.MovePoint(idx, triwarp.Pt(x, y))
	return nil
}

func (w *warpWorld) theMoveFailsWith(msg string) error {
	if w.moveErr == nil {
		return fmt.Errorf("expected the move to fail with %q", msg)
	}
	if !strings.Contains(w.moveErr.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %v", msg, w.moveErr)
	}
	return nil
}

func (w *warpWorld) theTriangleIsUnchanged(a, b, c int) error {
	if w.before == nil {
		return fmt.Errorf("no frame was captured before the drag")
	}
	tri := triwarp.Face{a, b, c}.Resolve(w.session.Mesh().Topology().Current)
	inner, err := tri.Expand(-2)
	if err != nil {
		return err
	}
	after := w.session.Image()
	bounds := after.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !inner.Contains(triwarp.Pt(float64(x)+0.5, float64(y)+0.5)) {
				continue
			}
			if nrgbaAt(w.before, x, y) != nrgbaAt(after, x, y) {
				return fmt.Errorf("pixel (%d,%d) of triangle %d,%d,%d changed", x, y, a, b, c)
			}
		}
	}
	return nil
}

func (w *warpWorld) theTrianglesAroundPointHaveChanged(n, idx int) error {
	if w.before == nil {
		return fmt.Errorf("no frame was captured before the drag")
	}
	faces := w.session.Mesh().Incident(idx)
	if len(faces) != n {
		return fmt.Errorf("expected %d triangles around point %d, got %d", n, idx, len(faces))
	}
	topo := w.session.Mesh().Topology()
	after := w.session.Image()
	for _, f := range faces {
		t := f.Resolve(topo.Current)
		x := int((t[0].X + t[1].X + t[2].X) / 3)
		y := int((t[0].Y + t[1].Y + t[2].Y) / 3)
		if channelDiff(nrgbaAt(w.before, x, y), nrgbaAt(after, x, y)) <= 5 {
			return fmt.Errorf("triangle %v did not change at (%d,%d)", f, x, y)
		}
	}
	return nil
}

func (w *warpWorld) theMeshIsReset() error {
	return w.session.Reset()
}

func (w *warpWorld) theScriptIsReplayed(doc *godog.DocString) error {
	script, err := triwarp.ParseScript(strings.NewReader(doc.Content))
	if err != nil {
		return err
	}
	return script.Replay(w.session, func(int, triwarp.Event) error {
		w.frames++
		return nil
	})
}

func (w *warpWorld) framesAreRecorded(n int) error {
	if w.frames != n {
		return fmt.Errorf("expected %d frames, got %d", n, w.frames)
	}
	return nil
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func channelDiff(a, b color.NRGBA) int {
	d := 0
	for _, v := range [3][2]uint8{{a.R, b.R}, {a.G, b.G}, {a.B, b.B}} {
		n := int(v[0]) - int(v[1])
		if n < 0 {
			n = -n
		}
		if n > d {
			d = n
		}
	}
	return d
}

// InitializeScenario registers the warp steps on a fresh world.
func InitializeScenario(sc *godog.ScenarioContext) {
	w := &warpWorld{}

	const num = `(-?\d+(?:\.\d+)?)`

	sc.Step(`^a (\d+)x(\d+) gradient image$`, w.aGradientImage)
	sc.Step(`^a (\d+)x(\d+) mesh over the image$`, w.aMeshOverTheImage)
	sc.Step(`^the mesh has (\d+) control points$`, w.theMeshHasControlPoints)
	sc.Step(`^control point (\d+) is at `+num+`,`+num+`$`, w.controlPointIsAt)
	sc.Step(`^every control point is at its rest position$`, w.everyControlPointIsAtRest)
	sc.Step(`^the image is rendered$`, w.theImageIsRendered)
	sc.Step(`^(\d+) triangles? (?:is|are) drawn$`, w.trianglesAreDrawn)
	sc.Step(`^(\d+) triangles? (?:is|are) skipped$`, w.trianglesAreSkipped)
	sc.Step(`^the output matches the source image within (\d+)$`, w.theOutputMatchesTheSource)
	sc.Step(`^control point (\d+) is dragged from `+num+`,`+num+` to `+num+`,`+num+`$`, w.controlPointIsDragged)
	sc.Step(`^control point (\d+) is moved to `+num+`,`+num+`$`, w.controlPointIsMoved)
	sc.Step(`^the move fails with "([^"]*)"$`, w.theMoveFailsWith)
	sc.Step(`^the triangle (\d+),(\d+),(\d+) is unchanged$`, w.theTriangleIsUnchanged)
	sc.Step(`^the (\d+) triangles around point (\d+) have changed$`, w.theTrianglesAroundPointHaveChanged)
	sc.Step(`^the mesh is reset$`, w.theMeshIsReset)
	sc.Step(`^the script is replayed:$`, w.theScriptIsReplayed)
	sc.Step(`^(\d+) frames are recorded$`, w.framesAreRecorded)
}

// TestFeatures runs the Godog test suite.
func TestFeatures(t *testing.T) {
	entries, err := os.ReadDir("features")
	if err != nil {
		t.Fatalf("failed to read features directory: %v", err)
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}
	tags := os.Getenv("GODOG_TAGS")

	found := false
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".feature") {
			continue
		}
		found = true
		featurePath := filepath.Join("features", e.Name())

		t.Run(e.Name(), func(t *testing.T) {
			suite := godog.TestSuite{
				ScenarioInitializer: InitializeScenario,
				Options: &godog.Options{
					Format:   format,
					Tags:     tags,
					Paths:    []string{featurePath},
					TestingT: t,
				},
			}
			if suite.Run() != 0 {
				t.Fatalf("non-zero status returned for %s", featurePath)
			}
		})
	}

	if !found {
		t.Fatalf("no .feature files found in features/")
	}
}
