package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCountersAreExposed(t *testing.T) {
	m := New()

	m.RunsCreated.Inc()
	m.CSVExports.Inc()
	m.RecordJobResult("Success")
	m.RecordJobResult("Success")
	m.RecordJobResult("")
	m.RecordEvent("run.created", nil)
	m.RecordEvent("run.created", errors.New("channel closed"))
	m.ObserveHTTP(http.MethodGet, "/api/runs/{id}", http.StatusOK, 12*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "shelfsim_runs_created_total 1")
	assert.Contains(t, body, "shelfsim_csv_exports_total 1")
	assert.Contains(t, body, `shelfsim_job_results_total{result="Success"} 2`)
	assert.Contains(t, body, `shelfsim_job_results_total{result="unknown"} 1`)
	assert.Contains(t, body, `shelfsim_events_published_total{routing_key="run.created",status="failure"} 1`)
	assert.Contains(t, body, `shelfsim_http_requests_total{method="GET",route="/api/runs/{id}",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestInstancesDoNotShareState(t *testing.T) {
	a := New()
	b := New()
	a.JobsCreated.Add(3)

	assert.Contains(t, scrape(t, a), "shelfsim_jobs_created_total 3")
	assert.Contains(t, scrape(t, b), "shelfsim_jobs_created_total 0")
}
