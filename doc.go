/*
Package triwarp is an image processing library which deforms images by dragging the vertices of a triangular mesh laid over them.

The image is covered by a regular grid of control points. Every grid cell is split into two triangles,
and each triangle of the source image is drawn onto its displaced counterpart through the affine
transform that maps one onto the other. Triangles are expanded by a fraction of a pixel before drawing
so that neighbouring triangles overlap and no hairline seams show.

The package provides a command line utility supporting various customization options.
Check the supported commands by typing:

	$ triwarp --help

Example to warp an image by dragging the center point of a 2x2 mesh:

	package main

	import (
		"fmt"
		"os"

		"github.com/esimov/triwarp"
	)

	func main() {
		s := triwarp.NewSession(2, 2, triwarp.NewWarper())
		if err := s.LoadImage(srcImg); err != nil {
			fmt.Printf("Error loading image: %s", err.Error())
		}
		drag := s.Drag()
		drag.Press(4, triwarp.Pt(50, 50))
		drag.Move(triwarp.Pt(70, 30))
		drag.Release()

		f, _ := os.Create("output.png")
		defer f.Close()
		s.EncodePNG(f)
	}

Example to replay a scripted interaction and save the result:

	p := &triwarp.Processor{Cols: 6, Rows: 6, Overlap: triwarp.DefaultOverlap}
	script, err := triwarp.ParseScript(scriptFile)
	if err != nil {
		return err
	}
	_, stats, err := p.Process(imageFile, script, outputFile)

*/
package triwarp
