package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
)

// Results serves on-demand analysis of the observation window, cached for a
// fixed TTL.
type Results struct {
	analyzer *Analyzer
	window   *ObservationWindow
	cache    *ResultCache
}

// NewResults creates a Results service. The cache uses the analyzer's clock.
func NewResults(analyzer *Analyzer, window *ObservationWindow, ttl time.Duration, metrics *observability.Metrics) *Results {
	return &Results{
		analyzer: analyzer,
		window:   window,
		cache:    NewResultCache(ttl, analyzer.clock, metrics),
	}
}

// Analysis returns the analysis of every observation currently in the window.
// The result is shared by all callers for the TTL, so it is computed without
// the caller's cancellation; a disconnecting client cannot strip enrichment
// from it.
func (r *Results) Analysis(ctx context.Context) (domain.AnalysisResult, error) {
	return r.cache.GetOrCompute(context.WithoutCancel(ctx), func(ctx context.Context) (domain.AnalysisResult, error) {
		return r.analyzer.Analyze(ctx, GroupBySource(r.window.Snapshot())...), nil
	})
}

// ObservationCounts tallies the window by source tag.
func (r *Results) ObservationCounts() map[string]int {
	return r.window.CountsBySource()
}
