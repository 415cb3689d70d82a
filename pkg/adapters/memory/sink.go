package memory

import (
	"context"
	"sync"

	"github.com/aretw0/yerf/pkg/domain"
)

// Sink implements ports.Sink in memory.
// Safe for concurrent use.
type Sink struct {
	mu      sync.RWMutex
	batches []domain.Batch
	failing error
}

// NewSink creates a new in-memory sink.
func NewSink() *Sink {
	return &Sink{}
}

// Send stores a copy of the batch, or returns the failure set with FailWith.
func (s *Sink) Send(ctx context.Context, batch domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return s.failing
	}
	copied := batch
	copied.Entries = append([]domain.Entry(nil), batch.Entries...)
	s.batches = append(s.batches, copied)
	return nil
}

// FailWith makes every following Send return err. A nil err restores delivery.
func (s *Sink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = err
}

// Batches returns the delivered batches, oldest first.
func (s *Sink) Batches() []domain.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Batch(nil), s.batches...)
}

// Entries returns every delivered entry across batches.
func (s *Sink) Entries() []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Entry
	for _, b := range s.batches {
		out = append(out, b.Entries...)
	}
	return out
}
