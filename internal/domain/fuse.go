package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
)

var (
	// ErrInvalidTimestamp marks an observation whose timestamp cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrInvalidCoordinates marks an observation outside WGS-84 bounds.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// zonelessLayout covers ISO-8601 instants written without a zone designator,
// which connectors emit from naive local clocks. They are read as UTC.
const zonelessLayout = "2006-01-02T15:04:05"

// ParseObservation deserializes a RawEvent's value into an Observation.
func ParseObservation(raw RawEvent) (Observation, error) {
	var obs Observation
	if err := json.Unmarshal(raw.Value, &obs); err != nil {
		return Observation{}, fmt.Errorf("parse observation: %w", err)
	}
	obs.Source = strings.TrimSpace(obs.Source)
	if obs.Source == "" {
		return Observation{}, errors.New("parse observation: missing source")
	}
	if obs.Data == nil {
		obs.Data = map[string]any{}
	}
	return obs, nil
}

// ParseTimestamp parses an ISO-8601 instant and normalizes it to UTC.
// "Z" and "+00:00" are equivalent; a missing zone is read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(zonelessLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: (%g, %g)", ErrInvalidCoordinates, lat, lon)
	}
	return nil
}

// FuseStreams merges independent observation streams into one sequence ordered
// by instant. The sort is stable: equal instants keep stream-input order.
// Records with an unparseable timestamp or out-of-range coordinates are dropped
// with a warning; the count of dropped records is returned.
func FuseStreams(logger *slog.Logger, streams ...[]Observation) ([]Observation, int) {
	total := 0
	for _, s := range streams {
		total += len(s)
	}

	fused := make([]Observation, 0, total)
	dropped := 0
	for i, stream := range streams {
		for _, obs := range stream {
			ts, err := ParseTimestamp(obs.Timestamp)
			if err == nil {
				err = validateCoordinates(obs.Lat, obs.Lon)
			}
			if err != nil {
				logger.Warn("dropping observation",
					"stream", i,
					"source", obs.Source,
					"timestamp", obs.Timestamp,
					"error", err,
				)
				dropped++
				continue
			}
			obs.ObservedAt = ts
			fused = append(fused, obs)
		}
	}

	sort.SliceStable(fused, func(a, b int) bool {
		return fused[a].ObservedAt.Before(fused[b].ObservedAt)
	})
	return fused, dropped
}
