package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	boostPerType = 0.05
	maxBoost     = 0.15
	boostedCap   = 0.95
)

// gridKey identifies a cell by its integer multiples of the grid size.
type gridKey struct {
	lat int64
	lon int64
}

func cellOf(lat, lon, gridSize float64) gridKey {
	return gridKey{
		lat: int64(math.RoundToEven(lat / gridSize)),
		lon: int64(math.RoundToEven(lon / gridSize)),
	}
}

// Correlate groups detections by grid cell and produces one alert per occupied
// cell, ordered by (lat, lon). The latest weather observation in the batch, if
// any, is attached to every alert.
func Correlate(detections []Detection, observations []Observation, settings CorrelationSettings) []Alert {
	gridSize := settings.GridSize
	if gridSize <= 0 {
		gridSize = DefaultSettings().Correlation.GridSize
	}

	cells := make(map[gridKey][]Detection)
	for _, det := range detections {
		key := cellOf(det.Lat, det.Lon, gridSize)
		cells[key] = append(cells[key], det)
	}

	keys := make([]gridKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lat != keys[j].lat {
			return keys[i].lat < keys[j].lat
		}
		return keys[i].lon < keys[j].lon
	})

	var weather *Weather
	if obs, ok := LatestWeather(observations); ok {
		w := WeatherFromObservation(obs, alertWeatherDefaults)
		weather = &w
	}

	alerts := make([]Alert, 0, len(keys))
	for _, key := range keys {
		alerts = append(alerts, buildAlert(key, cells[key], gridSize, weather))
	}
	return alerts
}

func buildAlert(key gridKey, members []Detection, gridSize float64, weather *Weather) Alert {
	sorted := append([]Detection(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return detectionInstant(sorted[i]).Before(detectionInstant(sorted[j]))
	})

	types := map[string]struct{}{}
	sources := map[string]struct{}{}
	severity := SeverityLow
	confidence := 0.0
	for _, det := range sorted {
		types[det.Type] = struct{}{}
		sources[det.Source] = struct{}{}
		if det.Severity.rank() > severity.rank() {
			severity = det.Severity
		}
		confidence = math.Max(confidence, det.Confidence)
	}

	if len(types) > 1 {
		boost := math.Min(maxBoost, boostPerType*float64(len(types)))
		confidence = math.Min(boostedCap, confidence+boost)
	}

	lat := float64(key.lat) * gridSize
	lon := float64(key.lon) * gridSize
	latest := sorted[len(sorted)-1].Timestamp

	alert := Alert{
		ID:         generateAlertID(lat, lon, latest),
		Type:       AlertTypeWildfire,
		Severity:   severity,
		Confidence: confidence,
		Timestamp:  latest,
		Lat:        lat,
		Lon:        lon,
		Details: AlertDetails{
			DetectionTypes:   sortedSet(types),
			DetectionSources: sortedSet(sources),
			DetectionCount:   len(sorted),
			Detections:       sorted,
		},
	}
	if weather != nil {
		w := *weather
		alert.Details.Weather = &w
	}
	return alert
}

// detectionInstant falls back to parsing the timestamp for detections built
// outside the fuser.
func detectionInstant(det Detection) time.Time {
	if !det.ObservedAt.IsZero() {
		return det.ObservedAt
	}
	t, _ := ParseTimestamp(det.Timestamp)
	return t
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// generateAlertID produces a deterministic ID from the cell and latest timestamp,
// so replaying the same observations yields the same alert IDs.
func generateAlertID(lat, lon float64, timestamp string) string {
	input := fmt.Sprintf("%.4f|%.4f|%s", lat, lon, timestamp)
	hash := sha256.Sum256([]byte(input))
	return "wildfire-" + hex.EncodeToString(hash[:8])
}

// ThreatLevel summarizes a batch of alerts: the highest severity present, or
// low when there are none.
func ThreatLevel(alerts []Alert) Severity {
	level := SeverityLow
	for _, a := range alerts {
		if a.Severity.rank() > level.rank() {
			level = a.Severity
		}
	}
	return level
}
