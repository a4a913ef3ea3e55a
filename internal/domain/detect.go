package domain

import "strings"

// Modality groups source tags by the kind of signal they carry.
type Modality string

const (
	ModalityVisual  Modality = "visual"
	ModalityThermal Modality = "thermal"
	ModalitySensor  Modality = "sensor"
	ModalityWeather Modality = "weather"
	ModalityUnknown Modality = "unknown"
)

// ModalityOf maps a connector source tag to its modality.
func ModalityOf(source string) Modality {
	switch strings.ToLower(source) {
	case "camera", "rtsp_camera":
		return ModalityVisual
	case "satellite", "nasa_firms", "goes_hotspot", "viirs_snpp":
		return ModalityThermal
	case "sensor", "iot_sensor":
		return ModalitySensor
	case "weather_api", "hrrr_forecast", "noaa_hrrr":
		return ModalityWeather
	default:
		return ModalityUnknown
	}
}

// Scorer assigns a smoke/fire confidence to an image reference. A real vision
// model plugs in here.
type Scorer interface {
	Score(imageRef string) float64
}

// Classifier is optionally implemented by a Scorer to name the detected class
// ("smoke" or "fire"). Scorers that do not implement it report smoke.
type Classifier interface {
	Classify(imageRef string) string
}

// FilenameScorer stands in for a vision model by inspecting the image name.
type FilenameScorer struct{}

// Score returns 0.85 for references mentioning fire or smoke, else 0.3.
func (FilenameScorer) Score(imageRef string) float64 {
	ref := strings.ToLower(imageRef)
	if strings.Contains(ref, "fire") || strings.Contains(ref, "smoke") {
		return 0.85
	}
	return 0.3
}

// Classify reports fire when the reference mentions it, else smoke.
func (FilenameScorer) Classify(imageRef string) string {
	if strings.Contains(strings.ToLower(imageRef), "fire") {
		return "fire"
	}
	return "smoke"
}

// stand-in bounding box (x1, y1, x2, y2) reported for visual detections.
var defaultDetectionBox = []int{120, 80, 250, 200}

// Detectors turns observations into single-modality detections.
type Detectors struct {
	settings Settings
	scorer   Scorer
}

// NewDetectors creates detectors with the given settings. A nil scorer selects
// FilenameScorer.
func NewDetectors(settings Settings, scorer Scorer) *Detectors {
	if scorer == nil {
		scorer = FilenameScorer{}
	}
	return &Detectors{settings: settings, scorer: scorer}
}

// Detect runs every detector over the fused observations. Detections are
// grouped visual, thermal, sensor; within a group they keep input order.
// Weather and unknown sources produce no detections.
func (d *Detectors) Detect(observations []Observation) []Detection {
	var visual, thermal, sensor []Detection
	for _, obs := range observations {
		switch ModalityOf(obs.Source) {
		case ModalityVisual:
			if det, ok := d.DetectVisual(obs); ok {
				visual = append(visual, det)
			}
		case ModalityThermal:
			if det, ok := d.DetectThermal(obs); ok {
				thermal = append(thermal, det)
			}
		case ModalitySensor:
			if det, ok := d.DetectSensor(obs); ok {
				sensor = append(sensor, det)
			}
		}
	}

	out := make([]Detection, 0, len(visual)+len(thermal)+len(sensor))
	out = append(out, visual...)
	out = append(out, thermal...)
	return append(out, sensor...)
}

// DetectVisual scores a camera frame and reports a detection when the
// confidence strictly exceeds the visual threshold.
func (d *Detectors) DetectVisual(obs Observation) (Detection, bool) {
	ref := imageRef(obs.Data)
	if ref == "" {
		return Detection{}, false
	}

	confidence := clamp(d.scorer.Score(ref), 0, 1)
	if confidence <= d.settings.Visual.ConfidenceThreshold {
		return Detection{}, false
	}

	class := "smoke"
	if c, ok := d.scorer.(Classifier); ok {
		class = c.Classify(ref)
	}

	return Detection{
		Type:       DetectionVisual,
		Source:     obs.Source,
		Class:      class,
		Confidence: confidence,
		Severity:   SeverityLow,
		Timestamp:  obs.Timestamp,
		ObservedAt: obs.ObservedAt,
		Lat:        obs.Lat,
		Lon:        obs.Lon,
		Details: map[string]any{
			"detection_box": append([]int(nil), defaultDetectionBox...),
			"image_file":    ref,
		},
	}, true
}

// DetectThermal flags a thermal point above the anomaly threshold.
func (d *Detectors) DetectThermal(obs Observation) (Detection, bool) {
	cfg := d.settings.Thermal
	value := numberField(obs.Data, "thermal", 0)
	if value <= cfg.AnomalyThreshold || cfg.Confidence < cfg.ConfidenceThreshold {
		return Detection{}, false
	}

	severity := SeverityMedium
	if value > cfg.HighThreshold {
		severity = SeverityHigh
	}

	return Detection{
		Type:       DetectionThermal,
		Source:     obs.Source,
		Confidence: cfg.Confidence,
		Severity:   severity,
		Timestamp:  obs.Timestamp,
		ObservedAt: obs.ObservedAt,
		Lat:        obs.Lat,
		Lon:        obs.Lon,
		Details:    map[string]any{"thermal_value": value},
	}, true
}

// DetectSensor applies the ground sensor rules. Confidence is fixed per
// severity, never derived from magnitude.
func (d *Detectors) DetectSensor(obs Observation) (Detection, bool) {
	cfg := d.settings.Sensor
	temp := numberField(obs.Data, "temperature", 0)
	humidity := numberField(obs.Data, "humidity", 50)
	co2 := numberField(obs.Data, "co2", 0)
	smoke := boolField(obs.Data, "smoke_detected") || boolField(obs.Data, "smoke")

	if temp < cfg.MediumTemperature && humidity >= cfg.LowHumidity && co2 <= cfg.HighCO2 && !smoke {
		return Detection{}, false
	}

	severity, confidence := SeverityMedium, cfg.MediumConfidence
	if temp >= cfg.HighTemperature || co2 > cfg.HighCO2 || smoke {
		severity, confidence = SeverityHigh, cfg.HighConfidence
	}
	if confidence < cfg.ConfidenceThreshold {
		return Detection{}, false
	}

	return Detection{
		Type:       DetectionSensor,
		Source:     obs.Source,
		Confidence: confidence,
		Severity:   severity,
		Timestamp:  obs.Timestamp,
		ObservedAt: obs.ObservedAt,
		Lat:        obs.Lat,
		Lon:        obs.Lon,
		Details: map[string]any{
			"temperature":    temp,
			"humidity":       humidity,
			"co2":            co2,
			"smoke_detected": smoke,
		},
	}, true
}

func imageRef(data map[string]any) string {
	for _, key := range []string{"file", "frame_path", "stream_url"} {
		if ref := stringField(data, key, ""); ref != "" {
			return ref
		}
	}
	return ""
}
