package metrics

import (
	"github.com/marmos91/lifeline/pkg/lifecycle"
)

// NewLifecycleMetrics creates a Prometheus-backed lifecycle.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called); a nil
// sink disables collection with zero overhead.
//
// The caller must blank-import pkg/metrics/prometheus so the constructor is
// registered:
//
//	import _ "github.com/marmos91/lifeline/pkg/metrics/prometheus"
func NewLifecycleMetrics() lifecycle.Metrics {
	if !IsEnabled() || newPrometheusLifecycleMetrics == nil {
		return nil
	}
	return newPrometheusLifecycleMetrics()
}

// newPrometheusLifecycleMetrics is implemented in pkg/metrics/prometheus.
// The indirection keeps the heavyweight client code out of binaries that
// never enable metrics.
var newPrometheusLifecycleMetrics func() lifecycle.Metrics

// RegisterLifecycleMetricsConstructor registers the Prometheus lifecycle
// metrics constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterLifecycleMetricsConstructor(constructor func() lifecycle.Metrics) {
	newPrometheusLifecycleMetrics = constructor
}
