package diskcache

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promclient "github.com/prometheus/client_model/go"
)

// Operation outcomes used as metric labels.
const (
	outcomeHit   = "hit"
	outcomeMiss  = "miss"
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Removal reasons used as metric labels.
const (
	reasonExpired = "expired"
	reasonEvicted = "evicted"
)

var (
	opsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diskcache_ops_total",
		Help: "The total number of cache operations by kind and outcome.",
	}, []string{
		"op",      // add / get / remove / remove_if_expired / clear / clear_expired.
		"outcome", // hit / miss / ok / error.
	})

	removedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diskcache_removed_entries_total",
		Help: "The total number of entries removed by sweeps, by reason.",
	}, []string{"reason"}) // expired / evicted.

	reclaimedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diskcache_reclaimed_bytes_total",
		Help: "The total number of bytes reclaimed by sweeps, by reason.",
	}, []string{"reason"}) // expired / evicted.

	filterSkipsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diskcache_filter_skips_total",
		Help: "The total number of reads answered as a miss by the bloom filter without touching disk.",
	})
)

// outcomeForErr maps a completion error to the ok/error outcome label.
func outcomeForErr(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}

// getCounterValue reads back a counter for tests.
func getCounterValue(counter prometheus.Counter) int {
	var metric = &promclient.Metric{}
	if err := counter.Write(metric); err != nil {
		slog.Error(err.Error())
		return 0
	}
	return int(metric.Counter.GetValue())
}
