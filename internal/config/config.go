package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	GRPCAddr         string // empty disables the gRPC health server
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Results API.
	ResultCacheTTL    time.Duration
	ObservationWindow int

	// DatabaseURL enables the Postgres alert archive when set.
	DatabaseURL string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Detection and decision constants, from TUNING_FILE or defaults.
	TuningFile string
	Settings   domain.Settings
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("RESULT_CACHE_TTL", "30s")
	if err != nil {
		return nil, err
	}

	window, err := parsePositiveInt("OBSERVATION_WINDOW", 5000)
	if err != nil {
		return nil, err
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	tuningFile := os.Getenv("TUNING_FILE")
	settings, err := LoadTuning(tuningFile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "wildfire-observations"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "wildfire-alerts"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "firesight-detection"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		GRPCAddr:           os.Getenv("GRPC_ADDR"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ResultCacheTTL:    cacheTTL,
		ObservationWindow: window,
		DatabaseURL:       os.Getenv("DATABASE_URL"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,

		TuningFile: tuningFile,
		Settings:   settings,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// LoadTuning reads detection and decision constants from a YAML file, overlaying
// domain.DefaultSettings. An empty path returns the defaults.
func LoadTuning(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := validateSettings(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return settings, nil
}

func validateSettings(s domain.Settings) error {
	if s.Correlation.GridSize <= 0 {
		return errors.New("correlation.grid_size must be positive")
	}
	if len(s.Spread.Horizons) == 0 {
		return errors.New("spread.horizons must not be empty")
	}
	for _, h := range s.Spread.Horizons {
		if h <= 0 {
			return fmt.Errorf("spread.horizons: invalid horizon %d", h)
		}
	}
	if s.Spread.AngularStep <= 0 || s.Spread.AngularStep > 360 {
		return fmt.Errorf("spread.angular_step must be in (0, 360], got %d", s.Spread.AngularStep)
	}
	for name, v := range map[string]float64{
		"visual.confidence_threshold":  s.Visual.ConfidenceThreshold,
		"thermal.confidence_threshold": s.Thermal.ConfidenceThreshold,
		"thermal.confidence":           s.Thermal.Confidence,
		"sensor.confidence_threshold":  s.Sensor.ConfidenceThreshold,
		"sensor.high_confidence":       s.Sensor.HighConfidence,
		"sensor.medium_confidence":     s.Sensor.MediumConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %g", name, v)
		}
	}
	r := s.Resources
	if r.Firefighters < 0 || r.Engines < 0 || r.Aircraft < 0 || r.WaterTankers < 0 {
		return errors.New("resources must not be negative")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
