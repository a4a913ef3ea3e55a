package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
)

func writeFixture(t *testing.T, obs []domain.Observation) string {
	t.Helper()
	data, err := json.Marshal(obs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func scenario() []domain.Observation {
	return []domain.Observation{
		{Source: "weather_api", Timestamp: "2024-06-01T13:55:00Z", Lat: 34.05, Lon: -118.25, Data: map[string]any{"temperature": 36.0, "humidity": 12.0, "wind_speed": "20 mph", "wind_direction": "ne"}},
		{Source: "nasa_firms", Timestamp: "2024-06-01T14:00:00Z", Lat: 34.05, Lon: -118.25, Data: map[string]any{"thermal": 80.0}},
		{Source: "iot_sensor", Timestamp: "2024-06-01T14:05:00Z", Lat: 34.051, Lon: -118.251, Data: map[string]any{"temperature": 48.0, "humidity": 15.0}},
	}
}

func TestRun_Offline(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{in: writeFixture(t, scenario())}, &out)
	require.NoError(t, err)

	var result domain.AnalysisResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, domain.SeverityHigh, result.Alerts[0].Severity)
	require.NotNil(t, result.Alerts[0].Details.Weather)
	assert.Equal(t, "NE", result.Alerts[0].Details.Weather.WindDirection)
	require.Len(t, result.Predictions, 1)
	assert.Equal(t, "NE", result.Predictions[0].Factors.WindDirection)
	require.Len(t, result.Resources.Allocations, 1)
}

func TestRun_Incidents(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{in: writeFixture(t, scenario()), incidents: true}, &out)
	require.NoError(t, err)

	var reports []domain.IncidentReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "Wildfire #1", reports[0].IncidentName)
	assert.True(t, reports[0].ThreatSummary.EvacuationsInPlace)
}

func TestRun_MissingFixture(t *testing.T) {
	err := run(context.Background(), options{in: filepath.Join(t.TempDir(), "missing.json")}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixture")
}

func TestRun_InvalidFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600))

	err := run(context.Background(), options{in: path}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse fixture")
}
