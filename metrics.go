package triwarp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects render and interaction counters. A nil *Metrics records
// nothing.
type Metrics struct {
	renders        prometheus.Counter
	faces          *prometheus.CounterVec
	renderDuration prometheus.Histogram
	moves          *prometheus.CounterVec
}

// NewMetrics registers the warp collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		renders: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "triwarp_renders_total",
				Help: "Total number of full warp passes",
			},
		),
		faces: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triwarp_faces_total",
				Help: "Total number of mesh faces processed",
			},
			[]string{"status"}, // status: drawn, skipped
		),
		renderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "triwarp_render_duration_seconds",
				Help:    "Warp pass duration in seconds",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		moves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triwarp_point_moves_total",
				Help: "Total number of control point moves",
			},
			[]string{"result"}, // result: ok, rejected
		),
	}
}

func (m *Metrics) observeRender(stats Stats) {
	if m == nil {
		return
	}
	m.renders.Inc()
	m.faces.WithLabelValues("drawn").Add(float64(stats.Drawn))
	m.faces.WithLabelValues("skipped").Add(float64(stats.Skipped))
	m.renderDuration.Observe(stats.Elapsed.Seconds())
}

func (m *Metrics) observeMove(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.moves.WithLabelValues("rejected").Inc()
		return
	}
	m.moves.WithLabelValues("ok").Inc()
}

// Stats summarises one warp pass.
type Stats struct {
	Faces   int
	Drawn   int
	Skipped int
	Elapsed time.Duration
}
