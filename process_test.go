package triwarp

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Process(t *testing.T) {
	sc, err := ParseScript(strings.NewReader(dragScript))
	require.NoError(t, err)

	var frames []int
	p := &Processor{
		Cols:    2,
		Rows:    2,
		Overlap: DefaultOverlap,
		Frame: func(i int, ev Event, img image.Image) error {
			frames = append(frames, i)
			assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
			return nil
		},
	}

	var out bytes.Buffer
	s, stats, err := p.Process(bytes.NewReader(encodedGradient(t, 100, 100)), sc, &out)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, frames)
	assert.Equal(t, 8, stats.Drawn)
	assert.Zero(t, stats.Skipped)

	cur, _ := s.Mesh().Current(4)
	assert.Equal(t, Pt(70, 30), cur)

	img, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
}

func TestProcessor_ProcessWithoutScript(t *testing.T) {
	p := &Processor{Cols: 4, Rows: 4, Overlap: DefaultOverlap}

	var out bytes.Buffer
	_, stats, err := p.Process(bytes.NewReader(encodedGradient(t, 80, 80)), nil, &out)
	require.NoError(t, err)
	assert.Equal(t, 32, stats.Faces)
	assert.Equal(t, 32, stats.Drawn)

	img, err := png.Decode(&out)
	require.NoError(t, err)
	src := gradient(80, 80)
	assert.LessOrEqual(t, channelDiff(nrgbaAt(img, 37, 51), src.NRGBAAt(37, 51)), 3)
}

func TestProcessor_ProcessErrors(t *testing.T) {
	p := &Processor{Cols: 2, Rows: 2}
	_, _, err := p.Process(strings.NewReader("garbage"), nil, &bytes.Buffer{})
	require.Error(t, err)

	sc := &Script{Events: []Event{{Type: EventSet, Point: handle(42)}}}
	s, _, err := p.Process(bytes.NewReader(encodedGradient(t, 20, 20)), sc, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.NotNil(t, s)
}
