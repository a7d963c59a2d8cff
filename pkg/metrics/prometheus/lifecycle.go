// Package prometheus provides the Prometheus implementations of the metric
// interfaces declared by pkg/lifecycle. Importing it (usually blank) wires
// the constructors into pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/lifeline/pkg/lifecycle"
	"github.com/marmos91/lifeline/pkg/metrics"
)

func init() {
	metrics.RegisterLifecycleMetricsConstructor(newLifecycleMetrics)
}

// lifecycleMetrics is the Prometheus implementation of lifecycle.Metrics.
type lifecycleMetrics struct {
	stepDuration  *prometheus.HistogramVec
	stepFailures  *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	phaseOutcomes *prometheus.CounterVec
}

// newLifecycleMetrics creates a new Prometheus-backed lifecycle.Metrics
// instance registered on the process-wide registry.
func newLifecycleMetrics() lifecycle.Metrics {
	reg := metrics.GetRegistry()

	return &lifecycleMetrics{
		stepDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "lifeline_step_duration_seconds",
				Help: "Duration of individual lifecycle steps by phase",
				Buckets: []float64{
					0.001, // 1ms - trivial steps
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1,     // 1s
					5,     // 5s - slow external dependencies
					10,    // 10s
					30,    // 30s
				},
			},
			[]string{"phase", "step"},
		),
		stepFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeline_step_failures_total",
				Help: "Total number of failed lifecycle steps by phase",
			},
			[]string{"phase", "step"},
		),
		phaseDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lifeline_phase_duration_seconds",
				Help:    "Duration of whole lifecycle phases",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"phase"},
		),
		phaseOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeline_phase_outcomes_total",
				Help: "Phase completions by outcome (ok or error)",
			},
			[]string{"phase", "outcome"},
		),
	}
}

func (m *lifecycleMetrics) ObserveStep(phase, step string, duration time.Duration, err error) {
	m.stepDuration.WithLabelValues(phase, step).Observe(duration.Seconds())
	if err != nil {
		m.stepFailures.WithLabelValues(phase, step).Inc()
	}
}

func (m *lifecycleMetrics) ObservePhase(phase string, duration time.Duration, err error) {
	m.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.phaseOutcomes.WithLabelValues(phase, outcome).Inc()
}
