package cmd

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeGradient(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.White)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, "input.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "triwarp", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "render")
}

func TestRootCommandHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "render")
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeGradient(t, dir, 60, 40)
	output := filepath.Join(dir, "out.png")

	script := filepath.Join(dir, "drag.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`events:
  - {type: press, point: 4, x: 30, y: 20}
  - {type: move, x: 40, y: 10}
  - {type: release}
`), 0o644))

	out, err := execute(t, "render", input, "-o", output, "--script", script,
		"--cols", "2", "--rows", "2", "--frames", filepath.Join(dir, "frames"), "--metrics")
	require.NoError(t, err)

	assert.Contains(t, out, "Saved as: out.png")
	assert.Contains(t, out, "9 control points")
	assert.Contains(t, out, "triwarp_renders_total")

	res, err := imaging.Open(output)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 40), res.Bounds())

	frames, err := filepath.Glob(filepath.Join(dir, "frames", "frame_*.png"))
	require.NoError(t, err)
	assert.Len(t, frames, 3)
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeGradient(t, dir, 20, 20)

	out, err := execute(t, "render", input)
	assert.ErrorContains(t, err, "no output file")
	assert.NotContains(t, out, "Error:", "errors are reported by main")

	_, err = execute(t, "render", filepath.Join(dir, "missing.png"), "-o", filepath.Join(dir, "o.png"))
	assert.ErrorContains(t, err, "unable to open source file")

	_, err = execute(t, "render", input, "-o", filepath.Join(dir, "o.png"), "--cols", "0")
	assert.ErrorContains(t, err, "mesh.cols must be at least 1")
}
