// Command replay runs the detection pipeline offline over an observation
// fixture and prints the analysis as JSON. With -brokers it instead publishes
// the fixture to the source topic, pacing records by their timestamps, to
// drive a running service.
//
// Usage:
//
//	go run ./cmd/replay -in data/mock/demo_scenario.json
//	go run ./cmd/replay -in data/mock/demo_scenario.json -brokers localhost:9092 -speed 600
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/firesight-detection-service/internal/config"
	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
	"github.com/couchcryptid/firesight-detection-service/internal/pipeline"
)

type options struct {
	in        string
	tuning    string
	incidents bool
	brokers   string
	topic     string
	speed     float64
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "path to a JSON array of observations")
	flag.StringVar(&opts.tuning, "tuning", "", "optional YAML tuning file")
	flag.BoolVar(&opts.incidents, "incidents", false, "print incident reports instead of the analysis")
	flag.StringVar(&opts.brokers, "brokers", "", "publish to Kafka instead of analysing locally")
	flag.StringVar(&opts.topic, "topic", "wildfire-observations", "source topic used with -brokers")
	flag.Float64Var(&opts.speed, "speed", 600, "fixture minutes replayed per real second with -brokers; 0 disables pacing")
	flag.Parse()

	if opts.in == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	obs, err := readFixture(opts.in)
	if err != nil {
		return err
	}

	if opts.brokers != "" {
		return publish(ctx, obs, opts)
	}

	settings, err := config.LoadTuning(opts.tuning)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	analyzer := pipeline.NewAnalyzer(settings, nil, nil, logger, observability.NewMetricsForTesting(), nil)
	result := analyzer.Analyze(ctx, pipeline.GroupBySource(obs)...)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if opts.incidents {
		return enc.Encode(domain.BuildIncidentReports(result.Alerts, result.Predictions, result.Resources))
	}
	return enc.Encode(result)
}

func readFixture(path string) ([]domain.Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var obs []domain.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return obs, nil
}

// publish writes each observation to the source topic, sleeping between
// records in proportion to the gap between their timestamps.
func publish(ctx context.Context, obs []domain.Observation, opts options) error {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(sharedcfg.ParseBrokers(opts.brokers)...),
		Topic:        opts.topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	defer w.Close()

	var previous time.Time
	for i, o := range obs {
		ts, err := domain.ParseTimestamp(o.Timestamp)
		if err == nil && !previous.IsZero() && opts.speed > 0 {
			gap := time.Duration(float64(ts.Sub(previous)) / (opts.speed * 60))
			if gap > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(gap):
				}
			}
		}
		if err == nil {
			previous = ts
		}

		value, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encode observation %d: %w", i, err)
		}
		if err := w.WriteMessages(ctx, kafkago.Message{Key: []byte(o.Source), Value: value}); err != nil {
			return fmt.Errorf("publish observation %d: %w", i, err)
		}
	}
	fmt.Fprintf(os.Stderr, "published %d observations to %s\n", len(obs), opts.topic)
	return nil
}
