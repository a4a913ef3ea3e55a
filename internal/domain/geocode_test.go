package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestEnrichAlertWithGeocoding_NilGeocoder(t *testing.T) {
	alert := Alert{ID: "wildfire-1", Lat: 34.05, Lon: -118.25}

	result := EnrichAlertWithGeocoding(context.Background(), alert, nil, discardLogger())

	assert.Nil(t, result.Place)
}

func TestEnrichAlertWithGeocoding_Success(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{
		FormattedAddress: "Los Angeles, California, United States",
		PlaceName:        "Los Angeles",
		Confidence:       0.9,
	}}
	alert := Alert{ID: "wildfire-1", Lat: 34.05, Lon: -118.25}

	result := EnrichAlertWithGeocoding(context.Background(), alert, geo, discardLogger())

	require.NotNil(t, result.Place)
	assert.Equal(t, "Los Angeles", result.Place.Name)
	assert.Equal(t, "Los Angeles, California, United States", result.Place.FormattedAddress)
	assert.Equal(t, 0.9, result.Place.Confidence)
	assert.Equal(t, 1, geo.calls)
	assert.Nil(t, alert.Place, "input alert must not be modified")
}

func TestEnrichAlertWithGeocoding_Error(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("api timeout")}
	alert := Alert{ID: "wildfire-1", Lat: 34.05, Lon: -118.25}

	result := EnrichAlertWithGeocoding(context.Background(), alert, geo, discardLogger())

	assert.Nil(t, result.Place)
	assert.Equal(t, alert, result)
}

func TestEnrichAlertWithGeocoding_NoPlace(t *testing.T) {
	geo := &mockGeocoder{}
	alert := Alert{ID: "wildfire-1", Lat: 0.5, Lon: -150}

	result := EnrichAlertWithGeocoding(context.Background(), alert, geo, discardLogger())

	assert.Nil(t, result.Place)
	assert.Equal(t, 1, geo.calls)
}
