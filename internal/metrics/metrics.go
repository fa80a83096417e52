// Package metrics collects Prometheus metrics for commits, upserts and live
// query deliveries, and serves them for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons recorded by RecordDropped.
const (
	ReasonMalformed = "malformed"
	ReasonTombstone = "tombstone"
)

// MetricsCollector is the interface the manager, upsert pipeline and
// notifier record through.
type MetricsCollector interface {
	RecordCommit(duration time.Duration)
	RecordCommitFailure()
	RecordUpserted(count int)
	RecordDropped(reason string)
	RecordDeltas(deltaType string, count int)
	RecordSubscriptionOpened()
	RecordSubscriptionClosed()
}

// Nop discards every observation. It is the default collector.
type Nop struct{}

func (Nop) RecordCommit(time.Duration) {}
func (Nop) RecordCommitFailure() {}
func (Nop) RecordUpserted(int) {}
func (Nop) RecordDropped(string) {}
func (Nop) RecordDeltas(string, int) {}
func (Nop) RecordSubscriptionOpened() {}
func (Nop) RecordSubscriptionClosed() {}

// Collector is the Prometheus implementation of MetricsCollector.
type Collector struct {
	commits       prometheus.Counter
	commitFail    prometheus.Counter
	commitLatency prometheus.Histogram
	upserted      prometheus.Counter
	dropped       *prometheus.CounterVec
	deltas        *prometheus.CounterVec
	subscriptions prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readlater_commits_total",
			Help: "Number of successful write-context commits.",
		}),
		commitFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readlater_commit_failures_total",
			Help: "Number of failed write-context commits.",
		}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "readlater_commit_latency_seconds",
			Help:    "Time spent applying a changeset and merging it into the read context.",
			Buckets: prometheus.DefBuckets,
		}),
		upserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readlater_records_upserted_total",
			Help: "Number of entities returned by upsert batches.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readlater_records_dropped_total",
			Help: "Number of record descriptors removed instead of stored, by reason.",
		}, []string{"reason"}),
		deltas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readlater_deltas_total",
			Help: "Number of deltas delivered to subscriptions, by type.",
		}, []string{"type"}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "readlater_subscriptions",
			Help: "Number of open live-query subscriptions.",
		}),
	}

	reg.MustRegister(
		c.commits,
		c.commitFail,
		c.commitLatency,
		c.upserted,
		c.dropped,
		c.deltas,
		c.subscriptions,
	)

	return c
}

// RecordCommit records a successful commit and how long it took.
func (c *Collector) RecordCommit(duration time.Duration) {
	c.commits.Inc()
	c.commitLatency.Observe(duration.Seconds())
}

// RecordCommitFailure records a commit that left staging intact.
func (c *Collector) RecordCommitFailure() {
	c.commitFail.Inc()
}

// RecordUpserted records the size of an upsert result.
func (c *Collector) RecordUpserted(count int) {
	c.upserted.Add(float64(count))
}

// RecordDropped records one descriptor that was removed instead of stored.
func (c *Collector) RecordDropped(reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

// RecordDeltas records count deltas of one type.
func (c *Collector) RecordDeltas(deltaType string, count int) {
	c.deltas.WithLabelValues(deltaType).Add(float64(count))
}

func (c *Collector) RecordSubscriptionOpened() {
	c.subscriptions.Inc()
}

func (c *Collector) RecordSubscriptionClosed() {
	c.subscriptions.Dec()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns a mux serving /metrics.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
