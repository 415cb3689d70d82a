package clock

import (
	"sync"
	"time"
)

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

// NewManual returns a manual clock set to start.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to d. Moving backwards is ignored.
func (m *Manual) Set(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > m.now {
		m.now = d
	}
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.now += d
	}
}

func (m *Manual) ToInternal(t time.Time) time.Duration {
	return toInternal(t)
}

// Sequence returns scripted instants, one per call to Now, and then keeps
// returning the last one. Tests use it to pin every start and stop.
type Sequence struct {
	mu    sync.Mutex
	times []time.Duration
	calls int
}

// NewSequence returns a clock that yields the given instants in order.
func NewSequence(times ...time.Duration) *Sequence {
	return &Sequence{times: times}
}

// Millis is a shorthand for NewSequence with millisecond values.
func Millis(ms ...int64) *Sequence {
	times := make([]time.Duration, len(ms))
	for i, v := range ms {
		times[i] = time.Duration(v) * time.Millisecond
	}
	return NewSequence(times...)
}

func (s *Sequence) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.times) == 0 {
		return 0
	}
	if s.calls > len(s.times) {
		return s.times[len(s.times)-1]
	}
	return s.times[s.calls-1]
}

// Calls returns how many times Now was called.
func (s *Sequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Sequence) ToInternal(t time.Time) time.Duration {
	return toInternal(t)
}
