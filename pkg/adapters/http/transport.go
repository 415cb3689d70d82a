package http

import (
	"net/http"
	"sync"

	"github.com/aretw0/yerf/pkg/clock"
	"github.com/aretw0/yerf/pkg/domain"
)

// TimingTransport is an http.RoundTripper that records a resource timing
// for every request it carries. It implements ports.ResourceTimings, so a
// tracker can backfill samples from the requests a client made.
//
// The duration runs until the response headers arrive.
type TimingTransport struct {
	base  http.RoundTripper
	clock clock.Clock

	mu      sync.Mutex
	entries []domain.ResourceTiming
}

// NewTimingTransport wraps base (http.DefaultTransport when nil) and reads
// instants from c.
func NewTimingTransport(base http.RoundTripper, c clock.Clock) *TimingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &TimingTransport{base: base, clock: c}
}

// RoundTrip implements http.RoundTripper.
func (t *TimingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := t.clock.Now()
	resp, err := t.base.RoundTrip(req)
	end := t.clock.Now()

	t.mu.Lock()
	t.entries = append(t.entries, domain.ResourceTiming{
		Name:      req.URL.String(),
		StartTime: start,
		Duration:  end - start,
	})
	t.mu.Unlock()

	return resp, err
}

// Entries returns the recorded timings in request order.
func (t *TimingTransport) Entries() []domain.ResourceTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.ResourceTiming(nil), t.entries...)
}

// Reset forgets the recorded timings.
func (t *TimingTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}
