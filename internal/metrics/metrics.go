package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rando/internal/models"
	"rando/internal/scene"
)

// Metrics turns build transitions into Prometheus series. It is a
// scene.Observer.
type Metrics struct {
	BuildsTotal    *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	StageFailures  *prometheus.CounterVec
	BuildsInFlight prometheus.Gauge
}

// New registers the scene metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BuildsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rando",
			Subsystem: "scene",
			Name:      "builds_total",
			Help:      "Finished scene builds by variant and outcome",
		}, []string{"variant", "outcome"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rando",
			Subsystem: "scene",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each build stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rando",
			Subsystem: "scene",
			Name:      "stage_failures_total",
			Help:      "Build failures by stage and error kind",
		}, []string{"stage", "kind"}),

		BuildsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "rando",
			Subsystem: "scene",
			Name:      "builds_in_flight",
			Help:      "Builds that left idle and have not finished",
		}),
	}
}

func (m *Metrics) Observe(_ context.Context, e scene.Event) {
	if e.Failed() {
		if e.From != scene.Idle {
			m.StageDuration.WithLabelValues(e.Stage).Observe(e.Elapsed.Seconds())
			m.BuildsInFlight.Dec()
		}
		m.StageFailures.WithLabelValues(e.Stage, models.ErrorKind(e.Err)).Inc()
		m.BuildsTotal.WithLabelValues(e.Version, "failed").Inc()
		return
	}

	switch {
	case e.From == scene.Idle:
		m.BuildsInFlight.Inc()
	case e.To == scene.Ready:
		m.StageDuration.WithLabelValues(stageOf(e.From)).Observe(e.Elapsed.Seconds())
		m.BuildsInFlight.Dec()
		m.BuildsTotal.WithLabelValues(e.Version, "ready").Inc()
	default:
		m.StageDuration.WithLabelValues(stageOf(e.From)).Observe(e.Elapsed.Seconds())
	}
}

// stageOf names the stage that runs while a build is in s.
func stageOf(s scene.State) string {
	switch s {
	case scene.FetchingDem:
		return scene.StageDem
	case scene.FetchingTrek:
		return scene.StageTrek
	case scene.FetchingPoi:
		return scene.StagePoi
	}
	return s.String()
}

// Handler serves the Prometheus metrics of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
