package yerf

import (
	"time"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/aretw0/yerf/pkg/registry"
)

// Sample records how long one unit of work took.
// All methods are safe for concurrent use; mutating methods return the
// sample so calls can be chained.
type Sample struct {
	t *Tracker

	key       string
	state     domain.State
	startedAt time.Duration
	stoppedAt time.Duration
	delta     time.Duration
	offset    time.Duration // from the parent's start, or from the origin for roots

	parent     *Sample // back-pointer, nil for roots
	children   map[string]*Sample
	childOrder []string

	waitingFor map[string]domain.DependencyState
	lastDep    time.Duration // latest stop among satisfied dependencies

	beforeReport func(*Sample)
}

// dependency links a waterfall parent to one named child key.
type dependency struct {
	parent *Sample
	name   string
}

// Key returns the full dotted key.
func (s *Sample) Key() string {
	return s.key
}

// FullChildKey returns the full key of the child named childKey.
func (s *Sample) FullChildKey(childKey string) string {
	requireKey("fullChildKey", childKey)
	return registry.Join(s.key, childKey)
}

// Find looks up a sample by its key relative to s.
func (s *Sample) Find(childKey string) (*Sample, bool) {
	return s.t.Find(s.FullChildKey(childKey))
}

func (s *Sample) State() domain.State {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.state
}

func (s *Sample) StartedAt() time.Duration {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.startedAt
}

func (s *Sample) StoppedAt() time.Duration {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.stoppedAt
}

// Delta returns the duration of the sample once stopped.
func (s *Sample) Delta() time.Duration {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.delta
}

// Offset returns the start of the sample relative to its parent's start.
func (s *Sample) Offset() time.Duration {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.offset
}

// Parent returns the owning sample, or nil for a root.
func (s *Sample) Parent() *Sample {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.parent
}

// Child returns the attached child with the given relative key.
func (s *Sample) Child(name string) (*Sample, bool) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	c, ok := s.children[name]
	return c, ok
}

// Children returns a copy of the attached children by relative key.
// It is nil until the first child attaches.
func (s *Sample) Children() map[string]*Sample {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.children == nil {
		return nil
	}
	out := make(map[string]*Sample, len(s.children))
	for k, v := range s.children {
		out[k] = v
	}
	return out
}

// WaitingFor returns the dependency states of a waterfall sample.
// It is nil for samples that never declared a dependency.
func (s *Sample) WaitingFor() map[string]domain.DependencyState {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.waitingFor == nil {
		return nil
	}
	out := make(map[string]domain.DependencyState, len(s.waitingFor))
	for k, v := range s.waitingFor {
		out[k] = v
	}
	return out
}

// Snapshot returns a value copy of the sample.
func (s *Sample) Snapshot() domain.SampleSnapshot {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.snapshot()
}

func (s *Sample) snapshot() domain.SampleSnapshot {
	snap := domain.SampleSnapshot{
		Key:       s.key,
		State:     s.state,
		StartedAt: s.startedAt,
		StoppedAt: s.stoppedAt,
		Delta:     s.delta,
		Offset:    s.offset,
	}
	if s.parent != nil {
		snap.Parent = s.parent.key
	}
	for name, st := range s.waitingFor {
		if st == domain.Pending {
			snap.Waiting = append(snap.Waiting, name)
		}
	}
	return snap
}

func (s *Sample) event() domain.SampleEvent {
	return domain.SampleEvent{
		Key:       s.key,
		State:     s.state,
		StartedAt: s.startedAt,
		StoppedAt: s.stoppedAt,
		Delta:     s.delta,
		Offset:    s.offset,
		Root:      s.parent == nil,
	}
}

// On subscribes handler to event on this sample.
func (s *Sample) On(event string, handler func(*Sample)) *Sample {
	if event == "" {
		panic(domain.Missing("on", "event"))
	}
	if handler == nil {
		panic(domain.Missing("on", "handler"))
	}
	_ = s.t.On(s.key, event, handler)
	return s
}

// Trigger publishes event for this sample.
func (s *Sample) Trigger(event string) *Sample {
	if event == "" {
		panic(domain.Missing("trigger", "event"))
	}
	_ = s.t.Trigger(s.key, event, s)
	return s
}

// BeforeReport sets a hook that runs when the sample stops, before a root
// is handed over for reporting.
func (s *Sample) BeforeReport(fn func(*Sample)) *Sample {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	s.beforeReport = fn
	return s
}

// Start starts the sample when called without arguments.
// With arguments it creates (if needed) and starts the named children,
// declaring each one as a dependency first when it is not one already.
// Children that already started are left alone.
func (s *Sample) Start(children ...string) *Sample {
	requireNames("start", children)
	s.t.mutate(func(fx *effects) {
		if len(children) == 0 {
			s.start(fx)
			return
		}
		for _, name := range children {
			s.startChild(fx, name)
		}
	})
	return s
}

func (s *Sample) start(fx *effects) bool {
	t := s.t
	if s.state != domain.StateCreated {
		t.fail(fx, "start", s.key, domain.ErrAlreadyStarted)
		return false
	}

	s.startedAt = t.clock.Now()
	s.state = domain.StateStarted
	// Roots are measured from the origin; attaching overwrites it.
	s.offset = nonNegative(s.startedAt - t.origin)
	if link, ok := t.links[s.key]; ok {
		link.parent.attach(link.name, s)
		s.offset = nonNegative(s.startedAt - link.parent.startedAt)
	}

	ev := s.event()
	fx.add(func() {
		if t.hooks.OnStart != nil {
			t.hooks.OnStart(ev)
		}
		_ = t.bus.Publish(s.key, domain.EventStart, s)
	})
	return true
}

func (s *Sample) startChild(fx *effects, name string) {
	t := s.t
	if s.waitingFor[name] == domain.NotDeclared {
		if !s.ensureStarted(fx) || !s.declare(fx, name) {
			return
		}
	}

	full := registry.Join(s.key, name)
	child, ok := t.samples.Find(full)
	if !ok {
		child = t.create(fx, full)
	}
	if child.state != domain.StateCreated {
		return
	}
	child.start(fx)
}

// Waterfall declares dependencies: the sample will stop by itself once
// every named child has stopped, and can no longer be stopped by hand.
// A created sample is started first. Names already declared are ignored.
func (s *Sample) Waterfall(deps ...string) *Sample {
	requireNames("waterfall", deps)
	s.t.mutate(func(fx *effects) {
		if !s.ensureStarted(fx) {
			return
		}
		for _, name := range deps {
			if s.waitingFor[name] != domain.NotDeclared {
				continue
			}
			s.declare(fx, name)
		}
	})
	return s
}

func (s *Sample) ensureStarted(fx *effects) bool {
	switch s.state {
	case domain.StateCreated:
		return s.start(fx)
	case domain.StateStarted:
		return true
	default:
		s.t.fail(fx, "waterfall", s.key, domain.ErrAlreadyStopped)
		return false
	}
}

func (s *Sample) declare(fx *effects, name string) bool {
	t := s.t
	full := registry.Join(s.key, name)
	if child, ok := t.samples.Find(full); ok && child.state != domain.StateCreated {
		// Its start already happened and cannot be observed any more.
		t.fail(fx, "waterfall", full, domain.ErrAlreadyStarted)
		return false
	}

	if s.waitingFor == nil {
		s.waitingFor = make(map[string]domain.DependencyState)
	}
	s.waitingFor[name] = domain.Pending
	t.links[full] = &dependency{parent: s, name: name}
	return true
}

func (s *Sample) attach(name string, child *Sample) {
	if s.children == nil {
		s.children = make(map[string]*Sample)
	}
	if _, ok := s.children[name]; !ok {
		s.childOrder = append(s.childOrder, name)
	}
	s.children[name] = child
	child.parent = s
}

// satisfy marks one dependency as stopped and stops the sample when it was the last one.
func (s *Sample) satisfy(fx *effects, name string, stoppedAt time.Duration) {
	if s.waitingFor[name] != domain.Pending {
		return
	}
	s.waitingFor[name] = domain.Satisfied
	if stoppedAt > s.lastDep {
		s.lastDep = stoppedAt
	}
	for _, st := range s.waitingFor {
		if st == domain.Pending {
			return
		}
	}
	if s.state == domain.StateStarted {
		s.finish(fx, s.lastDep)
	}
}

// Stop stops the sample when called without arguments.
// With arguments it stops the named attached children.
func (s *Sample) Stop(children ...string) *Sample {
	requireNames("stop", children)
	s.t.mutate(func(fx *effects) {
		if len(children) == 0 {
			s.stop(fx)
			return
		}
		for _, name := range children {
			child, ok := s.children[name]
			if !ok {
				s.t.fail(fx, "stop", registry.Join(s.key, name), domain.ErrChildNotAttached)
				continue
			}
			child.stop(fx)
		}
	})
	return s
}

func (s *Sample) stop(fx *effects) {
	t := s.t
	switch {
	case s.state == domain.StateCreated:
		t.fail(fx, "stop", s.key, domain.ErrNotStarted)
	case s.state.Finished():
		t.fail(fx, "stop", s.key, domain.ErrAlreadyStopped)
	case len(s.waitingFor) > 0:
		t.fail(fx, "stop", s.key, domain.ErrWaterfallCannotStop)
	default:
		s.finish(fx, t.clock.Now())
	}
}

// finish closes the sample at stoppedAt and cascades to a waiting parent.
func (s *Sample) finish(fx *effects, stoppedAt time.Duration) {
	t := s.t
	if stoppedAt < s.startedAt {
		stoppedAt = s.startedAt
	}
	// Backfilled children may end after the last dependency.
	for _, name := range s.childOrder {
		if c := s.children[name]; c.state.Finished() && c.stoppedAt > stoppedAt {
			stoppedAt = c.stoppedAt
		}
	}
	s.stoppedAt = stoppedAt
	s.delta = s.stoppedAt - s.startedAt
	s.state = domain.StateStopped

	if hook := s.beforeReport; hook != nil {
		fx.add(func() { hook(s) })
	}
	if s.parent == nil {
		fx.add(func() { t.handOver(s) })
	}

	ev := s.event()
	fx.add(func() {
		if t.hooks.OnStop != nil {
			t.hooks.OnStop(ev)
		}
		_ = t.bus.Publish(s.key, domain.EventStop, s)
	})

	if link, ok := t.links[s.key]; ok {
		link.parent.satisfy(fx, link.name, s.stoppedAt)
	}
}
