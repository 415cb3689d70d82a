package yerf

import "github.com/aretw0/yerf/pkg/domain"

// handOver queues a finished root and moves its subtree to reportable.
func (t *Tracker) handOver(root *Sample) {
	t.mutate(func(fx *effects) {
		if root.state != domain.StateStopped || !t.owns(root) {
			return
		}
		root.walk(func(s *Sample) {
			if s.state == domain.StateStopped {
				s.state = domain.StateReportable
			}
		})
		t.queue = append(t.queue, root)

		ev := root.event()
		fx.add(func() {
			if t.hooks.OnReportable != nil {
				t.hooks.OnReportable(ev)
			}
		})
	})
}

// owns reports whether s is still the registered sample for its key.
// It is false for samples forgotten by Clear.
func (t *Tracker) owns(s *Sample) bool {
	cur, ok := t.samples.Find(s.key)
	return ok && cur == s
}

func (s *Sample) walk(fn func(*Sample)) {
	fn(s)
	for _, name := range s.childOrder {
		s.children[name].walk(fn)
	}
}

// ListUnreported flattens every finished sample that was not reported yet,
// in creation order: its delta, then its offset. Reported samples are
// included when includeReported is set.
func (t *Tracker) ListUnreported(includeReported bool) []domain.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []domain.Entry
	for _, s := range t.samples.Values() {
		switch s.state {
		case domain.StateStopped, domain.StateReportable:
		case domain.StateReported:
			if !includeReported {
				continue
			}
		default:
			continue
		}
		out = append(out,
			domain.Entry{Key: s.key, Value: s.delta},
			domain.Entry{Key: s.key, Value: s.offset, IsOffset: true},
		)
	}
	return out
}

// MarkReported moves the samples with the given keys to reported.
// Unknown keys and unfinished samples are ignored.
func (t *Tracker) MarkReported(keys ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, key := range keys {
		s, ok := t.samples.Find(key)
		if !ok {
			continue
		}
		if s.state == domain.StateStopped {
			s.state = domain.StateReportable
		}
		if s.state == domain.StateReportable {
			s.state = domain.StateReported
		}
	}

	queue := t.queue[:0]
	for _, root := range t.queue {
		if root.state != domain.StateReported {
			queue = append(queue, root)
		}
	}
	t.queue = queue
}

// Queue returns the keys of finished roots handed over for reporting and
// not reported yet.
func (t *Tracker) Queue() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.queue))
	for _, root := range t.queue {
		keys = append(keys, root.key)
	}
	return keys
}

// Snapshot returns value copies of every sample in creation order.
func (t *Tracker) Snapshot() []domain.SampleSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	values := t.samples.Values()
	out := make([]domain.SampleSnapshot, 0, len(values))
	for _, s := range values {
		out = append(out, s.snapshot())
	}
	return out
}
