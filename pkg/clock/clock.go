// Package clock provides the time base of the tracker.
//
// Every instant recorded by the engine is a time.Duration elapsed since the
// process boot epoch, captured once when the package is initialized.
package clock

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// boot is fixed once at process start. Its monotonic reading anchors
// Monotonic and its wall reading anchors Wall and ToInternal.
var boot = time.Now()

// Clock is the source of instants for samples.
type Clock interface {
	// Now returns a non-decreasing instant in the internal time base.
	Now() time.Duration
	// ToInternal maps an absolute wall-clock instant into the internal base.
	// Instants before boot clamp to zero.
	ToInternal(t time.Time) time.Duration
}

// Source names a clock implementation in configuration.
type Source string

const (
	SourceMonotonic Source = "monotonic"
	SourceWall      Source = "wall"
)

// Parse returns the clock for a configured source name.
// An empty name selects the monotonic clock.
func Parse(source string) (Clock, error) {
	switch Source(strings.ToLower(strings.TrimSpace(source))) {
	case "", SourceMonotonic:
		return Monotonic{}, nil
	case SourceWall:
		return NewWall(), nil
	default:
		return nil, fmt.Errorf("unknown clock source %q", source)
	}
}

// Boot returns the wall-clock instant of the process boot epoch.
func Boot() time.Time {
	return boot.Round(0)
}

func toInternal(t time.Time) time.Duration {
	d := t.Round(0).Sub(boot.Round(0))
	if d < 0 {
		return 0
	}
	return d
}

// Monotonic reads Go's monotonic clock. It is the high-resolution source.
type Monotonic struct{}

func (Monotonic) Now() time.Duration {
	return time.Since(boot)
}

func (Monotonic) ToInternal(t time.Time) time.Duration {
	return toInternal(t)
}

// Wall reads the wall clock since boot. Wall time can step backwards, so
// Now never returns less than its previous result.
type Wall struct {
	mu   sync.Mutex
	last time.Duration
}

// NewWall returns a wall-clock source.
func NewWall() *Wall {
	return &Wall{}
}

func (w *Wall) Now() time.Duration {
	d := toInternal(time.Now())
	w.mu.Lock()
	defer w.mu.Unlock()
	if d < w.last {
		return w.last
	}
	w.last = d
	return d
}

func (w *Wall) ToInternal(t time.Time) time.Duration {
	return toInternal(t)
}
