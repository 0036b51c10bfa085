// Package metrics exposes Prometheus collectors for requests, endpoint queries and discovery.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"evalgo.org/featureinfo/internal/domain"
)

// Collector groups the service metrics. A nil Collector records nothing.
type Collector struct {
	requests      *prometheus.CounterVec
	queries       *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec
	discoveries   *prometheus.CounterVec
	discoveryTime prometheus.Histogram
	storeReads    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureinfo_requests_total",
			Help: "Requests handled, by outcome code.",
		}, []string{"code"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureinfo_endpoint_queries_total",
			Help: "Queries sent to discovered endpoints, by endpoint kind and result.",
		}, []string{"kind", "result"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "featureinfo_endpoint_query_seconds",
			Help:    "Latency of single endpoint queries.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"kind"}),
		discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureinfo_discovery_runs_total",
			Help: "Endpoint discovery passes, by result.",
		}, []string{"result"}),
		discoveryTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "featureinfo_discovery_seconds",
			Help:    "Duration of endpoint discovery passes.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		storeReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureinfo_timeseries_reads_total",
			Help: "Stream reads against the relational store, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(c.requests, c.queries, c.queryLatency, c.discoveries, c.discoveryTime, c.storeReads)
	return c
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRequest counts one handled request
func (c *Collector) ObserveRequest(code domain.Code) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(string(code)).Inc()
}

// ObserveQuery records one endpoint query
func (c *Collector) ObserveQuery(kind domain.Kind, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.queries.WithLabelValues(string(kind), result(err)).Inc()
	c.queryLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// ObserveDiscovery records one discovery pass
func (c *Collector) ObserveDiscovery(err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.discoveries.WithLabelValues(result(err)).Inc()
	c.discoveryTime.Observe(elapsed.Seconds())
}

// ObserveStoreRead records one stream read
func (c *Collector) ObserveStoreRead(err error) {
	if c == nil {
		return
	}
	c.storeReads.WithLabelValues(result(err)).Inc()
}
