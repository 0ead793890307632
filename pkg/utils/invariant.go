// Package utils carries the ambient kit shared by every cache package: logging setup,
// invariant raising, build info, and test helpers.
//
// Invariants are conditions that must hold unless there is a bug in this codebase.
// Think of what you'd `panic()` on, except that violating one in production should not
// take the process down: a log error is recorded and a monitoring counter is bumped so
// an alert can fire instead. The caller still owns handling the erroneous case (early
// return, fall back to a safe default, and so on).
//
// Do not raise invariants for conditions driven by external factors; a failed disk read
// is an error, not an invariant violation. A filename our own hasher could never have
// produced showing up in an internal index would be one.

package utils

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promclient "github.com/prometheus/client_model/go"
)

var invariantsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "invariants_total",
	Help: "The total number of invariant violations",
}, []string{
	"module", // The module in which this invariant occurred.
	"type",   // The type of the invariant that occurred.
})

// RaiseInvariant records an invariant violation: it increments the monitoring counter and
// logs an error. In test mode it panics so the offending test fails loudly.
func RaiseInvariant(module, invariantType, msg string, args ...any) {
	invariantsMetric.WithLabelValues(module, invariantType).Inc()
	slog.With("invariant", invariantType, "module", module).Error(msg, args...)
	if IsTestMode {
		panic("invariant violated: " + invariantType)
	}
}

// GetMetricValue returns the current value of the invariant counter for the given labels.
func GetMetricValue(module, invariantType string) int {
	var metric = &promclient.Metric{}
	if err := invariantsMetric.WithLabelValues(module, invariantType).Write(metric); err != nil {
		slog.Error(err.Error())
		return 0
	}
	return int(metric.Counter.GetValue())
}
