// Package metrics exposes Prometheus collectors for the annotator service.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/ingestion"
)

const namespace = "annotator"

// Submission outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeIncomplete = "incomplete"
	OutcomeCompleted  = "already_completed"
	OutcomeFailed     = "failed"
)

// Metrics holds the service collectors. A nil *Metrics is a no-op.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	submissionsTotal *prometheus.CounterVec
	scoresFlushed    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg, or with the
// default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served, by route pattern and status",
		}, []string{"route", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of served requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Requests sent to the Langfuse API, by endpoint and status",
		}, []string{"endpoint", "method", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of Langfuse API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "annotation",
			Name:      "submissions_total",
			Help:      "Score submissions, by outcome",
		}, []string{"outcome"}),
		scoresFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "annotation",
			Name:      "scores_flushed_total",
			Help:      "Score events sent to ingestion, by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.upstreamTotal, m.upstreamLatency, m.submissionsTotal, m.scoresFlushed)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveUpstream(endpoint, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamTotal.WithLabelValues(endpoint, method, label).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFlush records the events of one ingestion flush.
func (m *Metrics) ObserveFlush(r ingestion.FlushResult) {
	if m == nil {
		return
	}
	if r.Err != nil && r.Successes == 0 && r.Errors == 0 {
		m.scoresFlushed.WithLabelValues("failed").Add(float64(r.EventCount))
		return
	}
	m.scoresFlushed.WithLabelValues("accepted").Add(float64(r.Successes))
	m.scoresFlushed.WithLabelValues("rejected").Add(float64(r.Errors))
}

// UpstreamHook returns an HTTP hook that records every upstream call.
func (m *Metrics) UpstreamHook() pkghttp.HTTPHook {
	return pkghttp.HTTPHookFunc{
		After: func(_ context.Context, req *http.Request, resp *http.Response, d time.Duration, _ error) {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			m.ObserveUpstream(Endpoint(req.URL.Path), req.Method, status, d)
		},
	}
}

// Endpoint reduces an upstream path to its resource name so ids never
// become label values.
func Endpoint(path string) string {
	if i := strings.Index(path, "/api/public/"); i >= 0 {
		path = path[i+len("/api/public/"):]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}
	parts := strings.Split(path, "/")
	if parts[0] == "annotation-queues" && len(parts) >= 3 && parts[2] == "items" {
		return "annotation-queue-items"
	}
	return parts[0]
}
