package domain

import "strings"

var (
	// alertWeatherDefaults fill fields missing from the snapshot attached to alerts.
	alertWeatherDefaults = Weather{Temperature: 0, Humidity: 0, WindSpeed: 0, WindDirection: "N"}

	// predictorWeatherDefaults fill fields missing from a present weather snapshot
	// handed to the spread predictor.
	predictorWeatherDefaults = Weather{Temperature: 25, Humidity: 30, WindSpeed: 5, WindDirection: "N"}

	// noWeatherFallback is used for prediction when the batch has no weather at all.
	noWeatherFallback = Weather{Temperature: 30, Humidity: 30, WindSpeed: 10, WindDirection: "N"}
)

// LatestWeather returns the most recent weather observation. When several share
// the latest instant, the one appearing last wins.
func LatestWeather(observations []Observation) (Observation, bool) {
	var (
		latest Observation
		found  bool
	)
	for _, obs := range observations {
		if ModalityOf(obs.Source) != ModalityWeather {
			continue
		}
		at := obs.ObservedAt
		if at.IsZero() {
			at, _ = ParseTimestamp(obs.Timestamp)
		}
		if found && at.Before(latest.ObservedAt) {
			continue
		}
		latest = obs
		latest.ObservedAt = at
		found = true
	}
	return latest, found
}

// WeatherFromObservation reads a weather snapshot from an observation's data,
// taking missing fields from defaults. wind_speed may be a string like "15 mph".
func WeatherFromObservation(obs Observation, defaults Weather) Weather {
	return Weather{
		Temperature:   numberField(obs.Data, "temperature", defaults.Temperature),
		Humidity:      numberField(obs.Data, "humidity", defaults.Humidity),
		WindSpeed:     numberField(obs.Data, "wind_speed", defaults.WindSpeed),
		WindDirection: strings.ToUpper(stringField(obs.Data, "wind_direction", defaults.WindDirection)),
	}
}

// PredictionWeather selects the weather used for spread prediction in a batch.
func PredictionWeather(observations []Observation) Weather {
	if obs, ok := LatestWeather(observations); ok {
		return WeatherFromObservation(obs, predictorWeatherDefaults)
	}
	return noWeatherFallback
}
