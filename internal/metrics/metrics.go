// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package metrics exposes Prometheus collectors for collection runs.
//
// Metrics:
//   - repstudy_pages_fetched_total (Counter): pages returned by the search API
//   - repstudy_fetch_requests_total{status} (Counter): GraphQL requests by HTTP status
//   - repstudy_items_processed_total{outcome} (Counter): items dispatched, by success/failure
//   - repstudy_item_duration_seconds (Histogram): per-item processing time
//   - repstudy_rate_limit_remaining (Gauge): last X-RateLimit-Remaining value seen
//   - repstudy_run_termination_total{reason} (Counter): finished runs by termination reason
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/pipeline"
)

// Recorder owns a private registry so that several recorders (one per test,
// for instance) never collide on metric names.
type Recorder struct {
	registry *prometheus.Registry

	PagesFetched    prometheus.Counter
	FetchRequests   *prometheus.CounterVec
	ItemsProcessed  *prometheus.CounterVec
	ItemDuration    prometheus.Histogram
	RateLimitRemain prometheus.Gauge
	Runs            *prometheus.CounterVec
}

var _ github.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "repstudy_pages_fetched_total",
			Help: "Total number of search result pages fetched",
		}),
		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "repstudy_fetch_requests_total",
			Help: "Total number of GraphQL requests by HTTP status",
		}, []string{"status"}),
		ItemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "repstudy_items_processed_total",
			Help: "Total number of repositories dispatched to the processor",
		}, []string{"outcome"}),
		ItemDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "repstudy_item_duration_seconds",
			Help:    "Time spent processing a single repository",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		RateLimitRemain: factory.NewGauge(prometheus.GaugeOpts{
			Name: "repstudy_rate_limit_remaining",
			Help: "Requests remaining in the current GitHub rate limit window",
		}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "repstudy_run_termination_total",
			Help: "Finished runs by termination reason",
		}, []string{"reason"}),
	}
}

// FetchCompleted implements github.Observer. A zero status means the request
// never produced a response.
func (r *Recorder) FetchCompleted(status int) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.FetchRequests.WithLabelValues(label).Inc()
}

// RateLimitRemaining implements github.Observer.
func (r *Recorder) RateLimitRemaining(remaining int) {
	r.RateLimitRemain.Set(float64(remaining))
}

// Hooks returns driver hooks that feed the page and item collectors.
func (r *Recorder) Hooks() pipeline.Hooks[github.Repository] {
	return pipeline.Hooks[github.Repository]{
		PageFetched: func(_ int, _ pipeline.Page[github.Repository]) {
			r.PagesFetched.Inc()
		},
		ItemDone: func(_ int, o pipeline.Outcome[github.Repository]) {
			r.ObserveOutcome(o)
		},
	}
}

// ObserveOutcome records one processed item.
func (r *Recorder) ObserveOutcome(o pipeline.Outcome[github.Repository]) {
	r.ItemsProcessed.WithLabelValues(o.Status.String()).Inc()
	r.ItemDuration.Observe(o.Duration.Seconds())
}

// ObserveRun records the termination reason of a finished run.
func (r *Recorder) ObserveRun(reason pipeline.TerminationReason) {
	r.Runs.WithLabelValues(reason.String()).Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
