package triwarp

import (
	"fmt"
	"testing"

	"github.com/fogleman/gg"
)

func BenchmarkWarp(b *testing.B) {
	for _, size := range []int{256, 512} {
		b.Run(fmt.Sprintf("%dx%d", size, size), func(b *testing.B) {
			benchmarkWarp(b, size)
		})
	}
}

func benchmarkWarp(b *testing.B, size int) {
	src := gradient(size, size)
	m, err := NewMesh(6, 6, float64(size), float64(size))
	if err != nil {
		b.Fatalf("Failed creating mesh: %v", err)
	}
	s := float64(size) / 256
	if _, err := m.MovePoint(m.Index(3, 3), Pt(150*s, 110*s)); err != nil {
		b.Fatalf("Failed moving control point: %v", err)
	}
	topo := m.Topology()
	w := NewWarper()
	dc := gg.NewContext(size, size)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := w.Warp(dc, src, topo); err != nil {
			b.Fatalf("Failed warping benchmark image: %v", err)
		}
	}
}
