package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIncidentReports(t *testing.T) {
	alerts := []Alert{
		{ID: "wildfire-a", Severity: SeverityHigh, Confidence: 0.95, Timestamp: "2024-06-01T14:30:00Z", Lat: 34.05, Lon: -118.25},
		{
			ID: "wildfire-b", Severity: SeverityMedium, Confidence: 0.7, Timestamp: "2024-06-01T15:00:00Z", Lat: 40.0, Lon: 10.0,
			Details: AlertDetails{Weather: &Weather{Temperature: 31, Humidity: 18, WindSpeed: 12.5, WindDirection: "SW"}},
		},
	}
	predictions := []FirePrediction{{
		AlertID:     "wildfire-a",
		Predictions: []HorizonPrediction{{Hours: 1, SpreadKm: 0.5}, {Hours: 6, SpreadKm: 2.0}},
	}}
	plan := ResourcePlan{Allocations: []FireAllocation{{
		FireID:     "wildfire-a",
		Allocation: &ResourceAllocation{Allocation: Allocation{Engines: 10, Firefighters: 100, Aircraft: 2}},
	}}}

	reports := BuildIncidentReports(alerts, predictions, plan)

	require.Len(t, reports, 2)

	first := reports[0]
	assert.Equal(t, "Wildfire #1", first.IncidentName)
	assert.Equal(t, "FS-20240601-1", first.IncidentNumber)
	assert.Equal(t, "2024-06-01", first.ReportDate)
	assert.Equal(t, "14:30", first.ReportTime)
	assert.Equal(t, "Lat: 34.050000, Lon: -118.250000", first.IncidentLocation.Description)
	// π·2² km² in acres, urban density
	assert.Equal(t, 3105, first.IncidentSize.Acres)
	assert.Equal(t, 1884, first.ThreatSummary.StructuresThreatened)
	assert.True(t, first.ThreatSummary.EvacuationsInPlace)
	assert.Equal(t, []Infrastructure{{Type: "Communications", Name: "Cell Tower", Status: "Threatened"}}, first.ThreatSummary.CriticalInfrastructure)
	assert.Equal(t, IncidentWeather{WindSpeed: "Unknown", WindDirection: "Unknown"}, first.Weather)
	assert.Equal(t, ResourcesAssigned{Engines: 10, Helicopters: 2, Crews: 20, PersonnelCount: 100}, first.ResourcesAssigned)
	assert.Equal(t, []string{"Wildfire detected at 14:30 with 95% confidence"}, first.SignificantEvents)

	second := reports[1]
	assert.Equal(t, "FS-20240601-2", second.IncidentNumber)
	assert.Zero(t, second.IncidentSize.Acres)
	// rural density over the default 1 km radius
	assert.Equal(t, 31, second.ThreatSummary.StructuresThreatened)
	assert.False(t, second.ThreatSummary.EvacuationsInPlace)
	assert.Empty(t, second.ThreatSummary.CriticalInfrastructure)
	assert.Equal(t, IncidentWeather{Temperature: 31, Humidity: 18, WindSpeed: "12.5 mph", WindDirection: "SW"}, second.Weather)
	assert.Equal(t, ResourcesAssigned{}, second.ResourcesAssigned)
}

func TestCriticalInfrastructure(t *testing.T) {
	got := CriticalInfrastructure(34.25, -118.5, 0.5)

	var names []string
	for _, i := range got {
		names = append(names, i.Name)
	}
	assert.Equal(t, []string{"High Voltage Transmission", "Reservoir"}, names)
}
