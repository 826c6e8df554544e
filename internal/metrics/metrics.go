// Package metrics counts advisory and storage outcomes with Prometheus
// collectors. A CLI run has no scrape endpoint, so the registry is written to
// a node_exporter textfile when requested.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector is what the service layer records into.
type MetricsCollector interface {
	RecordAdvisory(strategy, outcome string, duration time.Duration)
	RecordEntryMutation(op string)
	RecordStorageError(op string)
}

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFallback = "fallback"
)

type Collector struct {
	advisoryRequests *prometheus.CounterVec
	advisoryLatency  *prometheus.HistogramVec
	entryMutations   *prometheus.CounterVec
	storageErrors    *prometheus.CounterVec
}

// NewCollector registers the caffinity metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		advisoryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caffinity_advisory_requests_total",
			Help: "Advisory requests by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		advisoryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caffinity_advisory_latency_seconds",
			Help:    "Advisory strategy latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
		entryMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caffinity_entry_mutations_total",
			Help: "Entry creates and deletes that reached storage.",
		}, []string{"op"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caffinity_storage_errors_total",
			Help: "Storage failures by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.advisoryRequests,
		c.advisoryLatency,
		c.entryMutations,
		c.storageErrors,
	)
	return c
}

func (c *Collector) RecordAdvisory(strategy, outcome string, duration time.Duration) {
	c.advisoryRequests.WithLabelValues(strategy, outcome).Inc()
	c.advisoryLatency.WithLabelValues(strategy).Observe(duration.Seconds())
}

func (c *Collector) RecordEntryMutation(op string) {
	c.entryMutations.WithLabelValues(op).Inc()
}

func (c *Collector) RecordStorageError(op string) {
	c.storageErrors.WithLabelValues(op).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordAdvisory(string, string, time.Duration) {}
func (Nop) RecordEntryMutation(string)                   {}
func (Nop) RecordStorageError(string)                    {}

// WriteTextfile dumps g in the Prometheus text format to path.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
