package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
)

// Analyzer runs the detection and decision core over a set of observation
// streams: fuse, detect, correlate, predict spread for eligible alerts, and
// plan resources.
type Analyzer struct {
	settings  domain.Settings
	detectors *domain.Detectors
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

// NewAnalyzer creates an Analyzer. A nil scorer selects the filename scorer and
// a nil geocoder disables place enrichment.
func NewAnalyzer(settings domain.Settings, scorer domain.Scorer, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Analyzer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Analyzer{
		settings:  settings,
		detectors: domain.NewDetectors(settings, scorer),
		geocoder:  geocoder,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
	}
}

// Analyze produces alerts, spread predictions and a resource plan for the
// given streams. It never fails: bad records are dropped by the fuser and
// fires that cannot be planned are reported inside the plan.
func (a *Analyzer) Analyze(ctx context.Context, streams ...[]domain.Observation) domain.AnalysisResult {
	fused, dropped := domain.FuseStreams(a.logger, streams...)
	a.metrics.ObservationsDropped.Add(float64(dropped))

	detections := a.detectors.Detect(fused)
	for _, d := range detections {
		a.metrics.Detections.WithLabelValues(d.Type).Inc()
	}

	// Correlated alerts stay untouched; enrichment yields new copies.
	correlated := domain.Correlate(detections, fused, a.settings.Correlation)
	alerts := make([]domain.Alert, 0, len(correlated))
	for _, alert := range correlated {
		enriched := domain.EnrichAlertWithGeocoding(ctx, alert, a.geocoder, a.logger)
		a.metrics.Alerts.WithLabelValues(string(enriched.Severity)).Inc()
		alerts = append(alerts, enriched)
	}

	predictions := domain.PredictFires(alerts, domain.PredictionWeather(fused), a.settings.Spread)
	if predictions == nil {
		predictions = []domain.FirePrediction{}
	}
	a.metrics.Predictions.Add(float64(len(predictions)))

	plan := domain.PlanResources(a.logger, predictions, a.settings.Resources)
	for _, alloc := range plan.Allocations {
		if alloc.Error != "" {
			a.metrics.AllocationFailures.Inc()
		}
	}

	result := domain.AnalysisResult{
		RunID:       uuid.NewString(),
		GeneratedAt: a.clock.Now().UTC(),
		Alerts:      alerts,
		Predictions: predictions,
		Resources:   plan,
	}

	a.logger.Debug("analysis complete",
		"run_id", result.RunID,
		"observations", len(fused),
		"dropped", dropped,
		"detections", len(detections),
		"alerts", len(alerts),
		"predictions", len(predictions),
	)
	return result
}
