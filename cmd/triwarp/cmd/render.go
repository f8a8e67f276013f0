package cmd

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/esimov/triwarp"
	"github.com/esimov/triwarp/utils"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newRenderCommand(a *app) *cobra.Command {
	var (
		output     string
		scriptPath string
	)

	renderCmd := &cobra.Command{
		Use:   "render <image>",
		Short: "Warp an image through the control point mesh",
		Long: `Load an image from a file or an http(s) URL, lay the control point mesh over
it, replay an optional interaction script and save the final frame as PNG.

A script is a YAML list of pointer events:

  events:
    - {type: press, point: 4, x: 50, y: 50}
    - {type: move, x: 70, y: 30}
    - {type: release}
    - {type: set, point: 0, x: 10, y: 10}
    - {type: reset}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("no output file provided, use --output")
			}
			return a.render(cmd, args[0], scriptPath, output)
		},
	}

	flags := renderCmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "destination PNG file")
	flags.StringVarP(&scriptPath, "script", "s", "", "YAML interaction script to replay")
	flags.Int("cols", 6, "number of grid columns")
	flags.Int("rows", 6, "number of grid rows")
	flags.Float64("overlap", triwarp.DefaultOverlap, "triangle edge expansion in pixels (0.1 - 1.0)")
	flags.Int("wireframe", 0, "wireframe mode: 0 image only, 1 image and mesh, 2 mesh only")
	flags.Float64("line-width", 1, "wireframe line width")
	flags.Bool("handles", false, "draw the control point handles")
	flags.Float64("handle-radius", 4, "handle radius in pixels")
	flags.Bool("incircles", false, "draw the incircle of every triangle")
	flags.String("frames", "", "directory receiving one PNG per script event")
	flags.Bool("metrics", false, "print render metrics when done")

	v := a.loader.GetViper()
	for key, name := range map[string]string{
		"mesh.cols":             "cols",
		"mesh.rows":             "rows",
		"mesh.overlap":          "overlap",
		"render.wireframe":      "wireframe",
		"render.line_width":     "line-width",
		"render.show_handles":   "handles",
		"render.handle_radius":  "handle-radius",
		"render.show_incircles": "incircles",
		"output.frames_dir":     "frames",
		"output.metrics":        "metrics",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	return renderCmd
}

func (a *app) render(cmd *cobra.Command, source, scriptPath, output string) error {
	cfg := a.cfg
	out := cmd.OutOrStdout()

	in, cleanup, err := openSource(cmd, source)
	if err != nil {
		return err
	}
	defer cleanup()

	var script *triwarp.Script
	if scriptPath != "" {
		f, err := os.Open(scriptPath)
		if err != nil {
			return fmt.Errorf("unable to open script: %w", err)
		}
		script, err = triwarp.ParseScript(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	p := &triwarp.Processor{
		Cols:          cfg.Mesh.Cols,
		Rows:          cfg.Mesh.Rows,
		Overlap:       cfg.Mesh.Overlap,
		Wireframe:     cfg.Render.Wireframe,
		LineWidth:     cfg.Render.LineWidth,
		ShowHandles:   cfg.Render.ShowHandles,
		HandleRadius:  cfg.Render.HandleRadius,
		ShowIncircles: cfg.Render.ShowIncircles,
		Logger:        a.logger,
		Metrics:       triwarp.NewMetrics(reg),
	}

	var bar *progressbar.ProgressBar
	if cfg.Output.FramesDir != "" && script != nil {
		if err := os.MkdirAll(cfg.Output.FramesDir, 0o755); err != nil {
			return fmt.Errorf("unable to create frames directory: %w", err)
		}
		n := int64(len(script.Events))
		if utils.IsTerminal(os.Stderr) {
			bar = progressbar.Default(n, "rendering frames")
		} else {
			bar = progressbar.DefaultSilent(n)
		}
		p.Frame = func(i int, ev triwarp.Event, img image.Image) error {
			name := filepath.Join(cfg.Output.FramesDir, fmt.Sprintf("frame_%04d.png", i))
			if err := imaging.Save(img, name); err != nil {
				return fmt.Errorf("unable to save frame %d: %w", i, err)
			}
			return bar.Add(1)
		}
	}

	dst, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer dst.Close()

	var spinner *utils.Spinner
	if bar == nil && utils.IsTerminal(os.Stderr) {
		spinner = utils.NewSpinner(os.Stderr)
		spinner.Start("Warping image...")
	}
	start := time.Now()
	session, stats, err := p.Process(in, script, dst)
	if spinner != nil {
		spinner.Stop()
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("error warping image %s: %w", source, err)
	}

	mesh := session.Mesh()
	fmt.Fprintf(out, "Generated in: %s\n", utils.FormatTime(time.Since(start)))
	fmt.Fprintf(out, "Mesh of %dx%d cells, %d control points, %d triangles drawn, %d skipped\n",
		mesh.Cols(), mesh.Rows(), mesh.Len(), stats.Drawn, stats.Skipped)
	fmt.Fprintf(out, "Saved as: %s\n", filepath.Base(output))

	if cfg.Output.Metrics {
		return printMetrics(out, reg)
	}
	return nil
}

// openSource opens a local image or downloads a remote one.
func openSource(cmd *cobra.Command, source string) (io.Reader, func(), error) {
	if utils.IsURL(source) {
		f, err := utils.DownloadImage(cmd.Context(), source)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {
			f.Close()
			os.Remove(f.Name())
		}, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open source file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// printMetrics writes the counters and histograms gathered in reg.
func printMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("unable to gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + labelString(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s_count %d\n", name, h.GetSampleCount())
				fmt.Fprintf(w, "%s_sum %g\n", name, h.GetSampleSum())
			}
		}
	}
	return nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	s := "{"
	for i, l := range labels {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return s + "}"
}
