// Package metrics collects Prometheus metrics for matching, domain events
// and HTTP responses, and serves them for scraping.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/skillswap-api/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordMatchQuery(candidates int, latency time.Duration)
	RecordEvent(eventType string)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	eventsTotal     *prometheus.CounterVec
	matchQueries    prometheus.Counter
	matchCandidates prometheus.Histogram
	matchLatency    prometheus.Histogram
	httpStatus      *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_events_total",
			Help: "Domain events emitted, by type.",
		}, []string{"type"}),
		matchQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_match_queries_total",
			Help: "Match queries served.",
		}),
		matchCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillswap_match_candidates",
			Help:    "Suggestions returned per match query.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		matchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillswap_match_latency_seconds",
			Help:    "Latency of match queries in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_http_responses_total",
			Help: "HTTP responses, by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.eventsTotal,
		c.matchQueries,
		c.matchCandidates,
		c.matchLatency,
		c.httpStatus,
	)
	return c
}

// RecordMatchQuery records one match query and its result size.
func (c *Collector) RecordMatchQuery(candidates int, latency time.Duration) {
	c.matchQueries.Inc()
	c.matchCandidates.Observe(float64(candidates))
	c.matchLatency.Observe(latency.Seconds())
}

// RecordEvent counts an emitted domain event.
func (c *Collector) RecordEvent(eventType string) {
	c.eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordHTTPStatus counts an HTTP response.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// HandleEvent implements events.EventHandler so the collector can be
// registered on the event emitter.
func (c *Collector) HandleEvent(_ context.Context, event *events.Event) error {
	c.RecordEvent(event.Type)
	return nil
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordMatchQuery(int, time.Duration) {}
func (Noop) RecordEvent(string)                  {}
func (Noop) RecordHTTPStatus(int)                {}
