package domain

import (
	"math"
	"time"
)

const (
	kmToDegrees  = 0.009
	minSpreadKmh = 0.1
	maxSpreadKmh = 2.0
)

var compassDegrees = map[string]float64{
	"N": 0, "NE": 45, "E": 90, "SE": 135,
	"S": 180, "SW": 225, "W": 270, "NW": 315,
}

// WindBearing maps a compass point to degrees. Unknown directions read as north.
func WindBearing(direction string) float64 {
	return compassDegrees[direction]
}

// SpreadRate is the base spread rate in km/h for the given weather.
func SpreadRate(w Weather) float64 {
	rate := 0.4*(w.Temperature/40) + 0.3*((100-w.Humidity)/100) + 0.3*(w.WindSpeed/30)
	return clamp(rate, minSpreadKmh, maxSpreadKmh)
}

// anisotropy scales spread by the clockwise offset of a bearing from the wind
// direction, offset in [0, 360).
func anisotropy(offset float64) float64 {
	switch {
	case offset <= 90:
		return 1.0
	case offset >= 270:
		return 0.2
	default:
		return 0.6
	}
}

// horizonConfidence decreases with the horizon and never drops below 0.3.
func horizonConfidence(hours int) float64 {
	return math.Max(0.3, 1.0-float64(hours)/10)
}

// PredictSpread projects the fire perimeter around an ignition point for each
// configured horizon. It accepts any point; eligibility is the caller's concern.
func PredictSpread(ignition Point, weather Weather, settings SpreadSettings) SpreadPrediction {
	horizons := settings.Horizons
	if len(horizons) == 0 {
		horizons = DefaultSettings().Spread.Horizons
	}
	step := settings.AngularStep
	if step <= 0 || step > 360 {
		step = DefaultSettings().Spread.AngularStep
	}

	rate := SpreadRate(weather)
	wind := WindBearing(weather.WindDirection)
	lonScale := 1 / math.Cos(ignition.Lat*math.Pi/180)
	now := clock.Now()

	predictions := make([]HorizonPrediction, 0, len(horizons))
	for _, hours := range horizons {
		spreadKm := rate * float64(hours)

		perimeter := make([]Point, 0, 360/step+1)
		for deg := 0; deg < 360; deg += step {
			angle := float64(deg)
			offset := math.Mod(angle-wind+360, 360)
			distance := spreadKm * anisotropy(offset)
			rad := angle * math.Pi / 180
			perimeter = append(perimeter, Point{
				Lat: ignition.Lat + distance*kmToDegrees*math.Cos(rad),
				Lon: ignition.Lon + distance*kmToDegrees*math.Sin(rad)*lonScale,
			})
		}

		predictions = append(predictions, HorizonPrediction{
			Hours:      hours,
			Timestamp:  now.Add(time.Duration(hours) * time.Hour).UTC().Format(time.RFC3339),
			Perimeter:  perimeter,
			SpreadKm:   spreadKm,
			Confidence: horizonConfidence(hours),
		})
	}

	return SpreadPrediction{
		IgnitionPoint: ignition,
		Predictions:   predictions,
		Factors:       weather,
	}
}

// EligibleForPrediction reports whether an alert should receive a spread
// prediction: high severity at or above the minimum confidence.
func EligibleForPrediction(a Alert, settings SpreadSettings) bool {
	return a.Severity == SeverityHigh && a.Confidence >= settings.MinPredictionConfidence
}

// PredictFires runs the spread predictor for every eligible alert, in alert order.
func PredictFires(alerts []Alert, weather Weather, settings SpreadSettings) []FirePrediction {
	var out []FirePrediction
	for _, a := range alerts {
		if !EligibleForPrediction(a, settings) {
			continue
		}
		sp := PredictSpread(Point{Lat: a.Lat, Lon: a.Lon}, weather, settings)
		out = append(out, FirePrediction{
			AlertID:       a.ID,
			IgnitionPoint: sp.IgnitionPoint,
			Predictions:   sp.Predictions,
			Factors:       sp.Factors,
		})
	}
	return out
}
