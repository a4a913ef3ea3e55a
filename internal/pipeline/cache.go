package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
)

// ResultCache holds the most recent analysis result for a fixed time-to-live so
// rapid repeated API queries do not recompute it.
type ResultCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	clock      clockwork.Clock
	metrics    *observability.Metrics
	result     domain.AnalysisResult
	computedAt time.Time
	valid      bool
}

// NewResultCache creates a cache with the given TTL. A nil clock uses real time.
func NewResultCache(ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *ResultCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResultCache{ttl: ttl, clock: clock, metrics: metrics}
}

// GetOrCompute returns the cached result while it is fresh, otherwise calls
// compute and caches its result. Concurrent callers during a recompute wait for
// it rather than computing in parallel. Errors are not cached.
func (c *ResultCache) GetOrCompute(ctx context.Context, compute func(context.Context) (domain.AnalysisResult, error)) (domain.AnalysisResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.valid && now.Sub(c.computedAt) < c.ttl {
		c.metrics.ResultCache.WithLabelValues("hit").Inc()
		return c.result, nil
	}
	c.metrics.ResultCache.WithLabelValues("miss").Inc()

	result, err := compute(ctx)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	c.result = result
	c.computedAt = now
	c.valid = true
	return result, nil
}
