// Command genmock writes a deterministic demo scenario: a day of ground sensor,
// weather, satellite, and camera observations around one sensor site, with a
// fire igniting halfway through. The output is a JSON array of observations
// accepted by cmd/replay and by the service's source topic.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/demo_scenario.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
)

var (
	startTime = time.Date(2025, time.May, 11, 0, 0, 0, 0, time.UTC)
	site      = domain.Point{Lat: 38.5816, Lon: -121.4944}
)

const (
	ignitionOffset   = 12 * time.Hour
	ignitionDuration = 15 * time.Minute
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/demo_scenario.json", "output path for the observation fixture")
	minutes := flag.Int("minutes", 1440, "length of the scenario in minutes, one sensor reading per minute")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *minutes <= 0 {
		return fmt.Errorf("-minutes must be positive, got %d", *minutes)
	}

	obs := generate(rand.New(rand.NewPCG(*seed, *seed)), *minutes)
	if err := writeJSON(*out, obs); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}

	counts := map[string]int{}
	for _, o := range obs {
		counts[o.Source]++
	}
	log.Printf("wrote %d observations to %s: %v", len(obs), *out, counts)
	return nil
}

func generate(rng *rand.Rand, minutes int) []domain.Observation {
	ignitionStart := startTime.Add(ignitionOffset)
	ignitionEnd := ignitionStart.Add(ignitionDuration)

	var obs []domain.Observation
	for i := range minutes {
		now := startTime.Add(time.Duration(i) * time.Minute)
		burning := !now.Before(ignitionStart) && !now.After(ignitionEnd)
		progress := 0.0
		if burning {
			progress = now.Sub(ignitionStart).Seconds() / ignitionDuration.Seconds()
		}

		obs = append(obs, sensorReading(rng, now, burning, progress))

		if i%30 == 0 {
			obs = append(obs, weatherReading(rng, now, burning))
		}
		if i%10 == 0 || burning {
			obs = append(obs, cameraFrame(now, i, burning && progress > 0.2))
		}
		if burning && i%5 == 0 {
			obs = append(obs, satelliteHotspot(rng, now, progress))
		}
	}
	return obs
}

func sensorReading(rng *rand.Rand, now time.Time, burning bool, progress float64) domain.Observation {
	data := map[string]any{
		"temperature":    round2(uniform(rng, 18, 25)),
		"humidity":       round2(uniform(rng, 35, 55)),
		"co2":            round2(uniform(rng, 400, 600)),
		"smoke_detected": false,
		"flame":          false,
	}
	if burning {
		data["temperature"] = round2(25 + 75*progress)
		data["humidity"] = round2(30 - 20*progress)
		data["co2"] = round2(600 + 500*progress)
		data["smoke_detected"] = true
		data["flame"] = progress > 0.3
	}
	return observation("iot_sensor", now, site.Lat, site.Lon, data)
}

func weatherReading(rng *rand.Rand, now time.Time, burning bool) domain.Observation {
	temp, humidity := uniform(rng, 20, 30), uniform(rng, 25, 45)
	if burning {
		temp, humidity = uniform(rng, 32, 38), uniform(rng, 10, 18)
	}
	return observation("weather_api", now, site.Lat, site.Lon, map[string]any{
		"temperature":    round2(temp),
		"humidity":       round2(humidity),
		"wind_speed":     fmt.Sprintf("%.0f mph", uniform(rng, 8, 25)),
		"wind_direction": "SW",
	})
}

func cameraFrame(now time.Time, minute int, smoke bool) domain.Observation {
	name := fmt.Sprintf("frames/cam01_%04d.jpg", minute)
	if smoke {
		name = fmt.Sprintf("frames/cam01_smoke_%04d.jpg", minute)
	}
	// The camera looks at the site from a ridge slightly north.
	return observation("rtsp_camera", now, site.Lat+0.002, site.Lon, map[string]any{"file": name})
}

func satelliteHotspot(rng *rand.Rand, now time.Time, progress float64) domain.Observation {
	return observation("nasa_firms", now,
		site.Lat+uniform(rng, -0.003, 0.003),
		site.Lon+uniform(rng, -0.003, 0.003),
		map[string]any{"thermal": round2(45 + 45*progress)},
	)
}

func observation(source string, at time.Time, lat, lon float64, data map[string]any) domain.Observation {
	return domain.Observation{
		Source:    source,
		Timestamp: at.Format(time.RFC3339),
		Lat:       lat,
		Lon:       lon,
		Data:      data,
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
