package jobmetrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T, registry *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	assert.NoError(t, m.Track("sessions:purge").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("sessions:purge").End(boom), boom)

	body := scrape(t, registry)
	assert.Contains(t, body, `todo_jobs_total{job="sessions:purge",status="success"} 1`)
	assert.Contains(t, body, `todo_jobs_total{job="sessions:purge",status="failure"} 1`)
	assert.Contains(t, body, `todo_jobs_failures_total{job="sessions:purge"} 1`)
}

func TestAddPurgedSessionsIgnoresEmptyRuns(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.AddPurgedSessions(0)
	m.AddPurgedSessions(3)
	assert.Contains(t, scrape(t, registry), "todo_sessions_purged_total 3")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddPurgedSessions(5)
	assert.NoError(t, m.Track("x").End(nil))
}
