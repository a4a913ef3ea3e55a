package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/firesight-detection-service/internal/config"
	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
)

// Message kinds carried in the "kind" header of every produced record.
const (
	KindAlert        = "alert"
	KindPrediction   = "prediction"
	KindResourcePlan = "resource_plan"
)

// Writer produces analysis results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// LoadBatch publishes one message per alert and per prediction, followed by
// the resource plan, in a single WriteMessages call. A result with no alerts
// produces nothing.
func (w *Writer) LoadBatch(ctx context.Context, result domain.AnalysisResult) error {
	if len(result.Alerts) == 0 {
		return nil
	}
	msgs, err := serializeResult(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.metrics.MessagesProduced.Add(float64(len(msgs)))
	w.logger.Debug("analysis published", "run_id", result.RunID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeResult flattens an analysis result into Kafka messages. Alerts and
// predictions are keyed by alert ID so every record for a fire lands on the
// same partition.
func serializeResult(result domain.AnalysisResult) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(result.Alerts)+len(result.Predictions)+1)
	for _, a := range result.Alerts {
		msg, err := serializeToMessage(KindAlert, a.ID, a, result)
		if err != nil {
			return nil, err
		}
		msg.Headers = append(msg.Headers, kafkago.Header{Key: "severity", Value: []byte(a.Severity)})
		msgs = append(msgs, msg)
	}
	for _, p := range result.Predictions {
		msg, err := serializeToMessage(KindPrediction, p.AlertID, p, result)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	msg, err := serializeToMessage(KindResourcePlan, result.RunID, result.Resources, result)
	if err != nil {
		return nil, err
	}
	return append(msgs, msg), nil
}

// serializeToMessage marshals v into a Kafka message tagged with its kind.
func serializeToMessage(kind, key string, v any, result domain.AnalysisResult) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s: %w", kind, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind)},
			{Key: "run_id", Value: []byte(result.RunID)},
			{Key: "generated_at", Value: []byte(result.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
