package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitWeather = Weather{Temperature: 40, Humidity: 0, WindSpeed: 30, WindDirection: "N"}

func TestSpreadRate(t *testing.T) {
	assert.InDelta(t, 1.0, SpreadRate(unitWeather), 1e-9)
	assert.InDelta(t, 0.1, SpreadRate(Weather{Temperature: 0, Humidity: 100, WindSpeed: 0}), 1e-9)
	assert.InDelta(t, 2.0, SpreadRate(Weather{Temperature: 100, Humidity: 0, WindSpeed: 100}), 1e-9)
	// 0.4*25/40 + 0.3*0.7 + 0.3*5/30
	assert.InDelta(t, 0.51, SpreadRate(Weather{Temperature: 25, Humidity: 30, WindSpeed: 5}), 1e-9)
}

func TestWindBearing(t *testing.T) {
	assert.Equal(t, 0.0, WindBearing("N"))
	assert.Equal(t, 135.0, WindBearing("SE"))
	assert.Equal(t, 315.0, WindBearing("NW"))
	assert.Equal(t, 0.0, WindBearing("NNE"))
}

func TestPredictSpread_Horizons(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	pred := PredictSpread(Point{Lat: 34.05, Lon: -118.25}, unitWeather, DefaultSettings().Spread)

	assert.Equal(t, Point{Lat: 34.05, Lon: -118.25}, pred.IgnitionPoint)
	assert.Equal(t, unitWeather, pred.Factors)
	require.Len(t, pred.Predictions, 3)

	wantHours := []int{1, 3, 6}
	wantConf := []float64{0.9, 0.7, 0.4}
	for i, h := range pred.Predictions {
		assert.Equal(t, wantHours[i], h.Hours)
		assert.InDelta(t, float64(wantHours[i]), h.SpreadKm, 1e-9)
		assert.InDelta(t, wantConf[i], h.Confidence, 1e-9)
		assert.Len(t, h.Perimeter, 36)
		assert.Equal(t, fixed.Add(time.Duration(wantHours[i])*time.Hour).Format(time.RFC3339), h.Timestamp)
	}
}

func TestPredictSpread_Monotonic(t *testing.T) {
	for _, w := range []Weather{
		unitWeather,
		{Temperature: 10, Humidity: 90, WindSpeed: 2, WindDirection: "E"},
		{Temperature: 45, Humidity: 5, WindSpeed: 60, WindDirection: "SW"},
	} {
		pred := PredictSpread(Point{Lat: 10, Lon: 10}, w, DefaultSettings().Spread)
		for i := 1; i < len(pred.Predictions); i++ {
			assert.GreaterOrEqual(t, pred.Predictions[i].SpreadKm, pred.Predictions[i-1].SpreadKm)
			assert.Less(t, pred.Predictions[i].Confidence, pred.Predictions[i-1].Confidence)
		}
	}
}

func TestPredictSpread_Anisotropy(t *testing.T) {
	t.Run("north wind at the equator", func(t *testing.T) {
		pred := PredictSpread(Point{}, unitWeather, DefaultSettings().Spread)
		p := pred.Predictions[0].Perimeter

		// 0° offset 0: downwind, full spread.
		assert.InDelta(t, 0.009, p[0].Lat, 1e-9)
		assert.InDelta(t, 0.0, p[0].Lon, 1e-9)
		// 90° offset 90: still the downwind lobe.
		assert.InDelta(t, 0.009, p[9].Lon, 1e-9)
		// 180° offset 180: crosswind.
		assert.InDelta(t, -0.6*0.009, p[18].Lat, 1e-9)
		// 270° offset 270: upwind.
		assert.InDelta(t, -0.2*0.009, p[27].Lon, 1e-9)
	})

	t.Run("east wind", func(t *testing.T) {
		w := unitWeather
		w.WindDirection = "E"
		pred := PredictSpread(Point{}, w, DefaultSettings().Spread)
		p := pred.Predictions[0].Perimeter

		// 0° is 270° clockwise from the wind bearing.
		assert.InDelta(t, 0.2*0.009, p[0].Lat, 1e-9)
		assert.InDelta(t, 0.009, p[9].Lon, 1e-9)
	})

	t.Run("longitude scaled by latitude", func(t *testing.T) {
		pred := PredictSpread(Point{Lat: 60, Lon: 0}, unitWeather, DefaultSettings().Spread)

		assert.InDelta(t, 0.018, pred.Predictions[0].Perimeter[9].Lon, 1e-9)
	})
}

func TestPredictSpread_CustomSettings(t *testing.T) {
	pred := PredictSpread(Point{}, unitWeather, SpreadSettings{Horizons: []int{2}, AngularStep: 45})

	require.Len(t, pred.Predictions, 1)
	assert.Equal(t, 2, pred.Predictions[0].Hours)
	assert.Len(t, pred.Predictions[0].Perimeter, 8)
}

func TestPredictionWeather(t *testing.T) {
	t.Run("no weather", func(t *testing.T) {
		assert.Equal(t, Weather{Temperature: 30, Humidity: 30, WindSpeed: 10, WindDirection: "N"}, PredictionWeather(nil))
	})

	t.Run("latest with missing fields", func(t *testing.T) {
		fused, _ := FuseStreams(discardLogger(), []Observation{
			obsAt("weather_api", "2024-06-01T12:00:00Z", 0, 0, map[string]any{"temperature": 41.0}),
			obsAt("hrrr_forecast", "2024-06-01T13:00:00Z", 0, 0, map[string]any{"wind_speed": "22 mph", "wind_direction": "NE"}),
		})

		assert.Equal(t, Weather{Temperature: 25, Humidity: 30, WindSpeed: 22, WindDirection: "NE"}, PredictionWeather(fused))
	})
}

func TestPredictFires_Eligibility(t *testing.T) {
	alerts := []Alert{
		{ID: "a", Severity: SeverityHigh, Confidence: 0.7, Lat: 1, Lon: 1},
		{ID: "b", Severity: SeverityHigh, Confidence: 0.69, Lat: 2, Lon: 2},
		{ID: "c", Severity: SeverityMedium, Confidence: 0.95, Lat: 3, Lon: 3},
		{ID: "d", Severity: SeverityHigh, Confidence: 0.95, Lat: 4, Lon: 4},
	}

	fires := PredictFires(alerts, unitWeather, DefaultSettings().Spread)

	require.Len(t, fires, 2)
	assert.Equal(t, "a", fires[0].AlertID)
	assert.Equal(t, Point{Lat: 1, Lon: 1}, fires[0].IgnitionPoint)
	assert.Equal(t, "d", fires[1].AlertID)
	assert.Len(t, fires[1].Predictions, 3)
}
