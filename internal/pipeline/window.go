package pipeline

import (
	"sync"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
)

// ObservationWindow retains the most recent observations consumed by the
// pipeline so the results API can analyse them on demand. When full, the
// oldest observations are evicted first.
type ObservationWindow struct {
	mu       sync.RWMutex
	buf      []domain.Observation
	capacity int
}

// NewObservationWindow creates a window holding at most capacity observations.
func NewObservationWindow(capacity int) *ObservationWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &ObservationWindow{capacity: capacity}
}

// Append adds observations in arrival order.
func (w *ObservationWindow) Append(obs ...domain.Observation) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, obs...)
	if over := len(w.buf) - w.capacity; over > 0 {
		w.buf = append(w.buf[:0:0], w.buf[over:]...)
	}
}

// Snapshot returns a copy of the retained observations in arrival order.
func (w *ObservationWindow) Snapshot() []domain.Observation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.Observation(nil), w.buf...)
}

// Len returns the number of retained observations.
func (w *ObservationWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.buf)
}

// CountsBySource tallies retained observations per source tag.
func (w *ObservationWindow) CountsBySource() map[string]int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	counts := make(map[string]int)
	for _, o := range w.buf {
		counts[o.Source]++
	}
	return counts
}

// GroupBySource splits observations into one stream per source tag, ordered
// by each source's first appearance. Order within a stream is preserved.
func GroupBySource(observations []domain.Observation) [][]domain.Observation {
	index := make(map[string]int)
	var streams [][]domain.Observation
	for _, o := range observations {
		i, ok := index[o.Source]
		if !ok {
			i = len(streams)
			index[o.Source] = i
			streams = append(streams, nil)
		}
		streams[i] = append(streams[i], o)
	}
	return streams
}
