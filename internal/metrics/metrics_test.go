package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/langfuse-annotator/pkg/ingestion"
)

// counter returns the value of the counter name with exactly labels.
func counter(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			if len(m.GetLabel()) != len(labels) {
				continue
			}
			for _, l := range m.GetLabel() {
				if labels[l.GetName()] != l.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("/api/queues", http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveRequest("/api/queues", http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveSubmission(OutcomeSuccess)
	m.ObserveFlush(ingestion.FlushResult{EventCount: 3, Successes: 2, Errors: 1})
	m.ObserveFlush(ingestion.FlushResult{EventCount: 4, Err: errors.New("down")})

	assert.Equal(t, 2.0, counter(t, reg, "annotator_http_requests_total", map[string]string{"route": "/api/queues", "method": "GET", "status": "200"}))
	assert.Equal(t, 1.0, counter(t, reg, "annotator_annotation_submissions_total", map[string]string{"outcome": "success"}))
	assert.Equal(t, 2.0, counter(t, reg, "annotator_annotation_scores_flushed_total", map[string]string{"result": "accepted"}))
	assert.Equal(t, 1.0, counter(t, reg, "annotator_annotation_scores_flushed_total", map[string]string{"result": "rejected"}))
	assert.Equal(t, 4.0, counter(t, reg, "annotator_annotation_scores_flushed_total", map[string]string{"result": "failed"}))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", http.MethodGet, 200, time.Millisecond)
	m.ObserveUpstream("traces", http.MethodGet, 200, time.Millisecond)
	m.ObserveSubmission(OutcomeFailed)
	m.ObserveFlush(ingestion.FlushResult{})

	req := httptest.NewRequest(http.MethodGet, "/api/public/traces/t1", nil)
	m.UpstreamHook().AfterResponse(context.Background(), req, nil, time.Millisecond, errors.New("x"))
}

func TestMetrics_UpstreamHook(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook := New(reg).UpstreamHook()

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: "/api/public/annotation-queues/q1/items"}}
	hook.AfterResponse(context.Background(), req, &http.Response{StatusCode: 200}, time.Millisecond, nil)
	hook.AfterResponse(context.Background(), req, nil, time.Millisecond, errors.New("refused"))

	assert.Equal(t, 1.0, counter(t, reg, "annotator_upstream_requests_total", map[string]string{"endpoint": "annotation-queue-items", "method": "GET", "status": "200"}))
	assert.Equal(t, 1.0, counter(t, reg, "annotator_upstream_requests_total", map[string]string{"endpoint": "annotation-queue-items", "method": "GET", "status": "error"}))
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/public/annotation-queues", "annotation-queues"},
		{"/api/public/annotation-queues/q1", "annotation-queues"},
		{"/api/public/annotation-queues/q1/items/i1", "annotation-queue-items"},
		{"/api/public/traces/t1", "traces"},
		{"/api/public/score-configs/c1", "score-configs"},
		{"/api/public/ingestion", "ingestion"},
		{"/prefix/api/public/sessions/s1", "sessions"},
		{"/", "root"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Endpoint(tt.path), tt.path)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).ObserveSubmission(OutcomeInvalid)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `annotator_annotation_submissions_total{outcome="invalid"} 1`))
}
