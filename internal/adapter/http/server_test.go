package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "weather-station-etl/internal/adapter/http"
	"weather-station-etl/internal/pipeline"
)

type mockStatus struct {
	err     error
	summary *pipeline.RunSummary
}

func (m *mockStatus) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockStatus) LastRun() (pipeline.RunSummary, bool) {
	if m.summary == nil {
		return pipeline.RunSummary{}, false
	}
	return *m.summary, true
}

func newTestServer(status *mockStatus) *httpadapter.Server {
	return httpadapter.NewServer(":0", status, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockStatus{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReportsLastRun(t *testing.T) {
	completed := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	status := &mockStatus{summary: &pipeline.RunSummary{
		CompletedAt:   completed,
		Records:       730,
		StationMonths: 24,
	}}

	rec := get(t, newTestServer(status), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string               `json:"status"`
		LastRun *pipeline.RunSummary `json:"last_run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	require.NotNil(t, body.LastRun)
	assert.Equal(t, 730, body.LastRun.Records)
	assert.Equal(t, 24, body.LastRun.StationMonths)
	assert.True(t, completed.Equal(body.LastRun.CompletedAt))
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	status := &mockStatus{err: fmt.Errorf("pipeline has not completed a run yet")}
	rec := get(t, newTestServer(status), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "pipeline has not completed a run yet", body["error"])
	assert.NotContains(t, rec.Body.String(), "last_run")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockStatus{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
