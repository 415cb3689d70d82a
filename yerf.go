package yerf

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/yerf/pkg/clock"
	"github.com/aretw0/yerf/pkg/domain"
	"github.com/aretw0/yerf/pkg/events"
	"github.com/aretw0/yerf/pkg/ports"
	"github.com/aretw0/yerf/pkg/registry"
)

// Tracker owns a tree of samples: the registry of every sample ever created,
// the dependency links of waterfall samples and the event bus.
type Tracker struct {
	mu sync.Mutex

	clock   clock.Clock
	origin  time.Duration
	samples *registry.Registry[*Sample]
	links   map[string]*dependency // full child key -> waiting parent
	queue   []*Sample              // roots handed over for reporting
	bus     *events.Bus[*Sample]
	timings ports.ResourceTimings
	hooks   domain.LifecycleHooks
	onError func(error)
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Tracker.
type Option func(*Tracker)

// WithClock sets the clock source (default: clock.Monotonic).
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithOrigin sets the zero point root offsets are measured from.
// By default root offsets are measured from process boot.
func WithOrigin(origin time.Duration) Option {
	return func(t *Tracker) {
		t.origin = origin
	}
}

// WithLogger sets the structured logger used by the default error handler.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithErrorHandler overrides the channel protocol errors are sent to.
func WithErrorHandler(fn func(error)) Option {
	return func(t *Tracker) {
		t.onError = fn
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Tracker) {
		t.hooks = hooks
	}
}

// WithResourceTimings sets the host source scanned by BackfillRequest.
func WithResourceTimings(src ports.ResourceTimings) Option {
	return func(t *Tracker) {
		t.timings = src
	}
}

// New creates an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		clock:   clock.Monotonic{},
		samples: registry.NewRegistry[*Sample](),
		links:   make(map[string]*dependency),
		bus:     events.NewBus[*Sample](),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.onError == nil {
		t.onError = func(err error) {
			t.logger.Warn("sample error", "err", err)
		}
	}
	return t
}

// Clock returns the clock the tracker reads instants from.
func (t *Tracker) Clock() clock.Clock {
	return t.clock
}

// effects collects what a mutation must do once the lock is released.
type effects struct {
	fns []func()
}

func (fx *effects) add(fn func()) {
	fx.fns = append(fx.fns, fn)
}

func (fx *effects) run() {
	for _, fn := range fx.fns {
		fn()
	}
}

// mutate runs fn under the tracker lock, then dispatches its side effects.
func (t *Tracker) mutate(fn func(fx *effects)) {
	fx := &effects{}
	func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		fn(fx)
	}()
	fx.run()
}

func (t *Tracker) fail(fx *effects, op, key string, err error) {
	serr := &domain.SampleError{Op: op, Key: key, Err: err}
	fx.add(func() {
		if t.hooks.OnError != nil {
			t.hooks.OnError(serr)
		}
		t.onError(serr)
	})
}

// Create registers a new sample. If key is taken, the existing sample is
// returned and ErrDuplicateKey goes to the error handler.
func (t *Tracker) Create(key string) *Sample {
	requireKey("create", key)
	var s *Sample
	t.mutate(func(fx *effects) {
		s = t.create(fx, key)
	})
	return s
}

// Start creates the sample and starts it.
func (t *Tracker) Start(key string) *Sample {
	requireKey("start", key)
	var s *Sample
	t.mutate(func(fx *effects) {
		s = t.create(fx, key)
		s.start(fx)
	})
	return s
}

func (t *Tracker) create(fx *effects, key string) *Sample {
	s, loaded := t.samples.Register(key, &Sample{t: t, key: key})
	if loaded {
		t.fail(fx, "create", key, domain.ErrDuplicateKey)
	}
	return s
}

// Find looks up a sample by its full key.
func (t *Tracker) Find(key string) (*Sample, bool) {
	return t.samples.Find(key)
}

// Has reports whether a sample exists for key.
func (t *Tracker) Has(key string) bool {
	return t.samples.Has(key)
}

// All returns every sample by full key.
func (t *Tracker) All() map[string]*Sample {
	return t.samples.All()
}

// Samples returns every sample in creation order.
func (t *Tracker) Samples() []*Sample {
	return t.samples.Values()
}

// On subscribes handler to event on the sample with the given full key.
// The sample does not need to exist yet.
func (t *Tracker) On(key, event string, handler func(*Sample)) error {
	return t.bus.Subscribe(key, event, handler)
}

// Trigger publishes event for key with the sample as payload.
func (t *Tracker) Trigger(key, event string, s *Sample) error {
	return t.bus.Publish(key, event, s)
}

// Clear forgets every sample, dependency link, queued root and subscription.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples.Reset()
	t.links = make(map[string]*dependency)
	t.queue = nil
	t.bus.Reset()
}

func requireKey(op, key string) {
	if key == "" {
		panic(domain.Missing(op, "key"))
	}
}

func requireNames(op string, names []string) {
	for _, n := range names {
		if n == "" {
			panic(domain.Missing(op, "childKey"))
		}
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
