package yerf

import (
	"regexp"
	"time"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/aretw0/yerf/pkg/registry"
)

// Backfill inserts an already stopped sample named key spanning
// [startedAt, stoppedAt] under s, which must be stopped. When parentKey is
// set the sample goes under the intermediate s.parentKey, created on first
// use. Ancestors widen to contain the new interval. Once s or one of its
// ancestors is reported, ErrNotStopped goes to the error handler.
//
// Backfill panics with a *domain.ArgumentError if key is empty, a bound is
// negative or stoppedAt precedes startedAt.
func (s *Sample) Backfill(parentKey, key string, startedAt, stoppedAt time.Duration) *Sample {
	validateBounds("backfill", key, startedAt, stoppedAt)
	s.t.mutate(func(fx *effects) {
		s.backfill(fx, parentKey, key, startedAt, stoppedAt)
	})
	return s
}

// BackfillWallClock is Backfill with absolute wall-clock instants, mapped
// into the tracker time base first.
func (s *Sample) BackfillWallClock(parentKey, key string, startedAt, stoppedAt time.Time) *Sample {
	if startedAt.IsZero() {
		panic(domain.Missing("backfill", "startedAt"))
	}
	if stoppedAt.IsZero() {
		panic(domain.Missing("backfill", "stoppedAt"))
	}
	c := s.t.clock
	return s.Backfill(parentKey, key, c.ToInternal(startedAt), c.ToInternal(stoppedAt))
}

// BackfillRequest backfills one sample for every host resource timing whose
// name matches urlPattern. The key is the given one or, when key is empty,
// the innermost capture group of the match. Without a resource timing
// source this is a no-op.
func (s *Sample) BackfillRequest(parentKey, key string, urlPattern *regexp.Regexp) *Sample {
	if urlPattern == nil {
		panic(domain.Missing("backfillRequest", "urlPattern"))
	}
	src := s.t.timings
	if src == nil {
		return s
	}

	for _, entry := range src.Entries() {
		m := urlPattern.FindStringSubmatch(entry.Name)
		if m == nil {
			continue
		}
		entryKey := key
		if entryKey == "" {
			entryKey = m[len(m)-1]
		}
		start, stop := entry.StartTime, entry.StartTime+entry.Duration
		if entryKey == "" || start < 0 || stop < start {
			s.t.logger.Debug("skipping resource timing", "name", entry.Name, "sample", s.key)
			continue
		}
		s.Backfill(parentKey, entryKey, start, stop)
	}
	return s
}

func validateBounds(op, key string, startedAt, stoppedAt time.Duration) {
	if key == "" {
		panic(domain.Missing(op, "key"))
	}
	if startedAt < 0 {
		panic(domain.Invalid(op, "startedAt", "must not precede the clock origin"))
	}
	if stoppedAt < startedAt {
		panic(domain.Invalid(op, "stoppedAt", "must not precede startedAt"))
	}
}

func (s *Sample) backfill(fx *effects, parentKey, key string, startedAt, stoppedAt time.Duration) {
	t := s.t
	if !s.backfillable() {
		t.fail(fx, "backfill", s.key, domain.ErrNotStopped)
		return
	}

	attach := s
	var intermediate string
	if parentKey != "" {
		full := registry.Join(s.key, parentKey)
		existing, ok := t.samples.Find(full)
		switch {
		case !ok:
			intermediate = full
		case existing.parent != s:
			t.fail(fx, "backfill", full, domain.ErrDuplicateKey)
			return
		case !existing.backfillable():
			t.fail(fx, "backfill", full, domain.ErrNotStopped)
			return
		default:
			attach = existing
		}
	}

	target := registry.Join(s.key, key)
	if parentKey != "" {
		target = registry.Join(registry.Join(s.key, parentKey), key)
	}
	if t.samples.Has(target) {
		t.fail(fx, "backfill", target, domain.ErrDuplicateKey)
		return
	}

	if intermediate != "" {
		attach = t.stopped(intermediate, parentKey, s, startedAt, stoppedAt)
	}
	t.stopped(target, key, attach, startedAt, stoppedAt)

	// A fresh intermediate spans exactly the new bounds, so widening starts above it.
	if intermediate != "" {
		s.updateBounds(startedAt, stoppedAt)
		return
	}
	attach.updateBounds(startedAt, stoppedAt)
}

// backfillable reports whether s is stopped and nothing on its path to the
// root has been reported yet. Widening a reported ancestor could never be
// listed again.
func (s *Sample) backfillable() bool {
	if s.state != domain.StateStopped && s.state != domain.StateReportable {
		return false
	}
	for p := s.parent; p != nil; p = p.parent {
		if p.state == domain.StateReported {
			return false
		}
	}
	return true
}

// stopped registers a finished sample attached to parent under name.
func (t *Tracker) stopped(full, name string, parent *Sample, startedAt, stoppedAt time.Duration) *Sample {
	s := &Sample{
		t:         t,
		key:       full,
		state:     domain.StateStopped,
		startedAt: startedAt,
		stoppedAt: stoppedAt,
		delta:     stoppedAt - startedAt,
		offset:    nonNegative(startedAt - parent.startedAt),
	}
	t.samples.Register(full, s)
	parent.attach(name, s)
	return s
}

// updateBounds widens s (never narrows it) to contain [startedAt, stoppedAt]
// and repeats on the parent when anything changed. After an earlier start,
// every child offset is recomputed from the new start. A running sample only
// widens its start; finish stops it no earlier than its children.
func (s *Sample) updateBounds(startedAt, stoppedAt time.Duration) {
	anchor := s.startedAt - s.offset
	finished := s.state.Finished()
	widened := false

	if startedAt < s.startedAt {
		s.startedAt = startedAt
		s.offset = nonNegative(startedAt - anchor)
		for _, name := range s.childOrder {
			c := s.children[name]
			c.offset = nonNegative(c.startedAt - startedAt)
		}
		widened = true
	}
	if finished && stoppedAt > s.stoppedAt {
		s.stoppedAt = stoppedAt
		widened = true
	}
	if !widened && finished {
		return
	}

	if finished {
		s.delta = s.stoppedAt - s.startedAt
	}
	if s.parent != nil {
		s.parent.updateBounds(startedAt, stoppedAt)
	}
}
