package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/firesight-detection-service/internal/adapter/http"
	"github.com/couchcryptid/firesight-detection-service/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockResults struct {
	result domain.AnalysisResult
	counts map[string]int
	err    error
}

func (m *mockResults) Analysis(_ context.Context) (domain.AnalysisResult, error) {
	return m.result, m.err
}

func (m *mockResults) ObservationCounts() map[string]int { return m.counts }

func sampleResults() *mockResults {
	return &mockResults{
		result: domain.AnalysisResult{
			RunID:       "run-1",
			GeneratedAt: time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC),
			Alerts: []domain.Alert{
				{ID: "wildfire-a", Type: domain.AlertTypeWildfire, Severity: domain.SeverityHigh, Confidence: 0.9, Timestamp: "2024-06-01T14:30:00Z", Lat: 34.05, Lon: -118.25},
				{ID: "wildfire-b", Type: domain.AlertTypeWildfire, Severity: domain.SeverityMedium, Confidence: 0.7, Timestamp: "2024-06-01T14:35:00Z", Lat: 40, Lon: 10},
			},
			Predictions: []domain.FirePrediction{{AlertID: "wildfire-a", Predictions: []domain.HorizonPrediction{{Hours: 1, SpreadKm: 0.5}}}},
			Resources: domain.ResourcePlan{
				Allocations:        []domain.FireAllocation{{FireID: "wildfire-a", Allocation: &domain.ResourceAllocation{Allocation: domain.Allocation{Engines: 4}}}},
				RemainingResources: domain.ResourcePool{Engines: 6},
			},
		},
		counts: map[string]int{"nasa_firms": 3, "iot_sensor": 2},
	}
}

func newTestServer(readyErr error, results httpadapter.ResultsProvider) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, results, nil, slog.Default())
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("not ready yet"), sampleResults()), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAlertsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/api/v1/alerts")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var alerts []domain.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts, 2)
	assert.Equal(t, "wildfire-a", alerts[0].ID)
}

func TestPredictionsAndResourcesEndpoints(t *testing.T) {
	srv := newTestServer(nil, sampleResults())

	var predictions []domain.FirePrediction
	require.NoError(t, json.Unmarshal(get(t, srv, "/api/v1/predictions").Body.Bytes(), &predictions))
	require.Len(t, predictions, 1)
	assert.Equal(t, "wildfire-a", predictions[0].AlertID)

	var plan domain.ResourcePlan
	require.NoError(t, json.Unmarshal(get(t, srv, "/api/v1/resources").Body.Bytes(), &plan))
	assert.Equal(t, 6, plan.RemainingResources.Engines)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, 4, plan.Allocations[0].Allocation.Allocation.Engines)
}

func TestAnalysisEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/api/v1/analysis")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.JSONEq(t, `"run-1"`, string(body["run_id"]))
	assert.Contains(t, body, "alerts")
	assert.Contains(t, body, "predictions")
	assert.Contains(t, body, "resources")
}

func TestSummaryEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/api/v1/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	var summary httpadapter.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, httpadapter.Summary{
		Timestamp:         "2024-06-01T15:00:00Z",
		TotalObservations: 5,
		CountsBySource:    map[string]int{"nasa_firms": 3, "iot_sensor": 2},
		ThreatLevel:       domain.SeverityHigh,
		AlertCount:        2,
	}, summary)
}

func TestAlertTypesEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/api/v1/alerts/types")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"types":["visual_detection","thermal_anomaly","sensor_alert"],"severities":["low","medium","high"]}`,
		rec.Body.String())
}

func TestIncidentsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/api/v1/incidents")

	require.Equal(t, http.StatusOK, rec.Code)
	var reports []domain.IncidentReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "FS-20240601-1", reports[0].IncidentNumber)
	assert.Equal(t, 4, reports[0].ResourcesAssigned.Engines)
}

func TestAnalysisFailureReturns500(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockResults{err: errors.New("boom")}), "/api/v1/alerts")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnknownMethodRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil, sampleResults()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/alerts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStreamRouteAbsentWithoutHub(t *testing.T) {
	rec := get(t, newTestServer(nil, sampleResults()), "/api/v1/stream")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
