package lifecycle

import "time"

// Phase names used in logs, metrics and spans.
const (
	PhaseInit     = "init"
	PhaseTeardown = "teardown"
)

// Metrics receives step and phase observations. Implementations must be
// purely observational; a nil Metrics disables collection with zero overhead.
//
// The Prometheus-backed implementation lives in pkg/metrics/prometheus.
type Metrics interface {
	// ObserveStep records one step execution.
	ObserveStep(phase, step string, duration time.Duration, err error)

	// ObservePhase records a whole phase run.
	ObservePhase(phase string, duration time.Duration, err error)
}
