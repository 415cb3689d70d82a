package memory

import (
	"sync"

	"github.com/aretw0/yerf/pkg/domain"
)

// Timings implements ports.ResourceTimings with a list filled by the caller.
type Timings struct {
	mu      sync.RWMutex
	entries []domain.ResourceTiming
}

// NewTimings creates a source holding the given entries.
func NewTimings(entries ...domain.ResourceTiming) *Timings {
	return &Timings{entries: entries}
}

// Add appends entries.
func (t *Timings) Add(entries ...domain.ResourceTiming) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entries...)
}

// Entries returns a copy of the entries in insertion order.
func (t *Timings) Entries() []domain.ResourceTiming {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.ResourceTiming(nil), t.entries...)
}
