package pipeline

import (
	"context"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
)

// ObservationTransformer implements Transformer by decoding the unified
// connector record carried in each raw event.
type ObservationTransformer struct{}

// NewTransformer creates an ObservationTransformer.
func NewTransformer() *ObservationTransformer {
	return &ObservationTransformer{}
}

func (t *ObservationTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Observation, error) {
	return domain.ParseObservation(raw)
}
