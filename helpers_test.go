package yerf_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/yerf"
	"github.com/aretw0/yerf/pkg/clock"
	"github.com/stretchr/testify/require"
)

// recorder collects the errors sent to the error channel.
type recorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *recorder) handle(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// newTracker returns a tracker reading the given millisecond instants in
// order, with root offsets measured from zero.
func newTracker(instants ...int64) (*yerf.Tracker, *recorder) {
	rec := &recorder{}
	t := yerf.New(
		yerf.WithClock(clock.Millis(instants...)),
		yerf.WithErrorHandler(rec.handle),
	)
	return t, rec
}

func ms(n int64) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func mustFind(t *testing.T, tr *yerf.Tracker, key string) *yerf.Sample {
	t.Helper()
	s, ok := tr.Find(key)
	require.True(t, ok, "sample %q not found", key)
	return s
}

// requirePanicIs runs fn and checks that it panics with an error matching target.
func requirePanicIs(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.Is(err, target), "panic %v does not match %v", err, target)
	}()
	fn()
}
