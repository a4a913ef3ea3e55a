//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
)

// startKafka runs a single-node KRaft broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("firesight-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fireScenario is a weather reading followed by a satellite hot spot and a
// ground sensor in the same grid cell.
func fireScenario() []domain.Observation {
	return []domain.Observation{
		{Source: "weather_api", Timestamp: "2024-06-01T13:55:00Z", Lat: 34.05, Lon: -118.25, Data: map[string]any{"temperature": 36.0, "humidity": 12.0, "wind_speed": "20 mph", "wind_direction": "NE"}},
		{Source: "nasa_firms", Timestamp: "2024-06-01T14:00:00Z", Lat: 34.05, Lon: -118.25, Data: map[string]any{"thermal": 80.0}},
		{Source: "iot_sensor", Timestamp: "2024-06-01T14:05:00Z", Lat: 34.051, Lon: -118.251, Data: map[string]any{"temperature": 48.0, "humidity": 15.0}},
	}
}

func publishObservations(ctx context.Context, t *testing.T, broker, topic string, obs []domain.Observation) {
	t.Helper()

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: topic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(obs))
	for _, o := range obs {
		payload, err := json.Marshal(o)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(o.Source), Value: payload, Time: time.Now()})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}
