package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS wildfire_alerts (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL,
	severity        TEXT NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	observed_at     TIMESTAMPTZ,
	lat             DOUBLE PRECISION NOT NULL,
	lon             DOUBLE PRECISION NOT NULL,
	detection_types TEXT[] NOT NULL,
	place           TEXT,
	payload         JSONB NOT NULL,
	archived_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertAlert = `
INSERT INTO wildfire_alerts (
	id, run_id, severity, confidence, observed_at, lat, lon, detection_types, place, payload
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`

// db is the subset of *pgxpool.Pool the archive needs.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Archive persists every alert once. Re-delivered batches are absorbed by the
// primary key on the deterministic alert ID.
// It implements pipeline.BatchLoader.
type Archive struct {
	db      db
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// NewArchive creates an Archive backed by pool.
func NewArchive(pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics) *Archive {
	return &Archive{db: pool, logger: logger, metrics: metrics}
}

// EnsureSchema creates the alert table if it does not exist.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: create schema: %w", err)
	}
	return nil
}

// LoadBatch inserts the result's alerts in a single round trip.
func (a *Archive) LoadBatch(ctx context.Context, result domain.AnalysisResult) error {
	if len(result.Alerts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, alert := range result.Alerts {
		row, err := alertRow(result.RunID, alert)
		if err != nil {
			return err
		}
		batch.Queue(insertAlert, row...)
	}

	br := a.db.SendBatch(ctx, batch)
	defer br.Close()

	inserted := int64(0)
	for _, alert := range result.Alerts {
		tag, err := br.Exec()
		if err != nil {
			return fmt.Errorf("postgres: archive alert %s: %w", alert.ID, err)
		}
		inserted += tag.RowsAffected()
	}

	a.metrics.AlertsArchived.Add(float64(inserted))
	a.logger.Debug("alerts archived", "run_id", result.RunID, "alerts", len(result.Alerts), "inserted", inserted)
	return nil
}

// alertRow maps an alert to insertAlert's positional arguments.
func alertRow(runID string, alert domain.Alert) ([]any, error) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode alert %s: %w", alert.ID, err)
	}

	var observedAt *time.Time
	if ts, err := domain.ParseTimestamp(alert.Timestamp); err == nil {
		observedAt = &ts
	}

	var place *string
	if alert.Place != nil && alert.Place.FormattedAddress != "" {
		place = &alert.Place.FormattedAddress
	}

	types := alert.Details.DetectionTypes
	if types == nil {
		types = []string{}
	}

	return []any{
		alert.ID,
		runID,
		string(alert.Severity),
		alert.Confidence,
		observedAt,
		alert.Lat,
		alert.Lon,
		types,
		place,
		payload,
	}, nil
}
