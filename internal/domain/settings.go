package domain

// Settings holds every tunable constant of the detection and decision core.
// Zero values are not meaningful; start from DefaultSettings and override.
type Settings struct {
	Visual      VisualSettings      `yaml:"visual"`
	Thermal     ThermalSettings     `yaml:"thermal"`
	Sensor      SensorSettings      `yaml:"sensor"`
	Correlation CorrelationSettings `yaml:"correlation"`
	Spread      SpreadSettings      `yaml:"spread"`
	Resources   ResourcePool        `yaml:"resources"`
}

// VisualSettings configures the camera detector.
type VisualSettings struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// ThermalSettings configures the satellite thermal detector.
type ThermalSettings struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	AnomalyThreshold    float64 `yaml:"anomaly_threshold"` // thermal index units
	HighThreshold       float64 `yaml:"high_threshold"`
	Confidence          float64 `yaml:"confidence"`
}

// SensorSettings configures the ground sensor detector.
type SensorSettings struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	MediumTemperature   float64 `yaml:"medium_temperature"` // °C, inclusive
	HighTemperature     float64 `yaml:"high_temperature"`   // °C, inclusive
	LowHumidity         float64 `yaml:"low_humidity"`       // %, exclusive
	HighCO2             float64 `yaml:"high_co2"`           // ppm, exclusive
	HighConfidence      float64 `yaml:"high_confidence"`
	MediumConfidence    float64 `yaml:"medium_confidence"`
}

// CorrelationSettings configures the grid correlator.
type CorrelationSettings struct {
	GridSize float64 `yaml:"grid_size"` // degrees
}

// SpreadSettings configures the spread predictor and the prediction gate.
type SpreadSettings struct {
	Horizons                []int   `yaml:"horizons"`
	AngularStep             int     `yaml:"angular_step"` // degrees
	MinPredictionConfidence float64 `yaml:"min_prediction_confidence"`
}

// DefaultSettings returns the reference constants.
func DefaultSettings() Settings {
	return Settings{
		Visual: VisualSettings{ConfidenceThreshold: 0.7},
		Thermal: ThermalSettings{
			ConfidenceThreshold: 0.6,
			AnomalyThreshold:    50,
			HighThreshold:       50,
			Confidence:          0.85,
		},
		Sensor: SensorSettings{
			ConfidenceThreshold: 0.6,
			MediumTemperature:   35,
			HighTemperature:     45,
			LowHumidity:         20,
			HighCO2:             1000,
			HighConfidence:      0.85,
			MediumConfidence:    0.7,
		},
		Correlation: CorrelationSettings{GridSize: 0.01},
		Spread: SpreadSettings{
			Horizons:                []int{1, 3, 6},
			AngularStep:             10,
			MinPredictionConfidence: 0.7,
		},
		Resources: DefaultResourcePool(),
	}
}

// DefaultResourcePool is the inventory assumed when none is supplied.
func DefaultResourcePool() ResourcePool {
	return ResourcePool{
		Firefighters: 100,
		Engines:      10,
		Aircraft:     2,
		WaterTankers: 5,
	}
}
