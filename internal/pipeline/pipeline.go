package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw event into an observation.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Observation, error)
}

// BatchLoader publishes the result of analysing one batch.
type BatchLoader interface {
	LoadBatch(ctx context.Context, result domain.AnalysisResult) error
}

// FanoutLoader publishes to every loader in order. All loaders are attempted;
// their errors are joined.
type FanoutLoader []BatchLoader

func (f FanoutLoader) LoadBatch(ctx context.Context, result domain.AnalysisResult) error {
	_, err := f.loadEach(ctx, result)
	return err
}

// loadEach returns the loaders that rejected the result along with their
// joined errors.
func (f FanoutLoader) loadEach(ctx context.Context, result domain.AnalysisResult) (FanoutLoader, error) {
	var (
		failed FanoutLoader
		errs   []error
	)
	for _, l := range f {
		if err := l.LoadBatch(ctx, result); err != nil {
			failed = append(failed, l)
			errs = append(errs, err)
		}
	}
	return failed, errors.Join(errs...)
}

// Pipeline orchestrates the extract-analyze-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	analyzer    *Analyzer
	loader      BatchLoader
	window      *ObservationWindow
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability. Every decoded
// observation is also appended to window.
func New(e BatchExtractor, t Transformer, a *Analyzer, l BatchLoader, window *ObservationWindow, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		analyzer:    a,
		loader:      l,
		window:      window,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any observations yet")
	}
	return nil
}

// Ready reports whether at least one batch has been analysed and loaded.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-analyze-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ObservationsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	observations, decoded := p.decode(ctx, rawBatch)
	if len(observations) == 0 {
		return true
	}
	p.window.Append(observations...)

	result := p.analyzer.Analyze(ctx, GroupBySource(observations)...)
	if !p.loadWithRetry(ctx, result, backoff, maxBackoff) {
		return false
	}

	for _, raw := range decoded {
		p.commitOffset(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// decode transforms each record, committing and skipping those that fail.
// Returns the observations and the raw events they came from.
func (p *Pipeline) decode(ctx context.Context, rawBatch []domain.RawEvent) ([]domain.Observation, []domain.RawEvent) {
	observations := make([]domain.Observation, 0, len(rawBatch))
	decoded := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		obs, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("decode failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.ObservationsRejected.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		observations = append(observations, obs)
		decoded = append(decoded, raw)
	}
	return observations, decoded
}

// loadWithRetry publishes the result, backing off between failed attempts.
// Only loaders that have not yet accepted the result are retried. Returns
// false if the context ends first.
func (p *Pipeline) loadWithRetry(ctx context.Context, result domain.AnalysisResult, backoff *time.Duration, maxBackoff time.Duration) bool {
	pending, ok := p.loader.(FanoutLoader)
	if !ok {
		pending = FanoutLoader{p.loader}
	}
	for {
		failed, err := pending.loadEach(ctx, result)
		if err == nil {
			*backoff = 200 * time.Millisecond
			return true
		}
		p.logger.Error("load batch failed", "error", err, "run_id", result.RunID,
			"alerts", len(result.Alerts), "failed_sinks", len(failed))
		pending = failed
		if !p.backoffOrStop(ctx, backoff, maxBackoff) {
			return false
		}
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
