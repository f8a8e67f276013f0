package triwarp

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/exp/constraints"
)

// toNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
// Images already in that form are returned as is.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if b.Min.X == 0 && b.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	return imaging.Clone(img)
}

// Min returns the smallest value of the arguments.
func Min[T constraints.Ordered](values ...T) T {
	var acc T = values[0]

	for _, v := range values {
		if v < acc {
			acc = v
		}
	}
	return acc
}

// Max returns the biggest value of the arguments.
func Max[T constraints.Ordered](values ...T) T {
	var acc T = values[0]

	for _, v := range values {
		if v > acc {
			acc = v
		}
	}
	return acc
}

// clamp limits v to the [lo, hi] interval.
func clamp[T constraints.Ordered](v, lo, hi T) T {
	return Max(lo, Min(v, hi))
}
