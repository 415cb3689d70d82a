package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/aretw0/yerf/pkg/ports"
	"github.com/google/uuid"
)

// Scheduler flushes finished samples from a source to a sink.
// A sample is marked reported only after the sink acknowledged its batch,
// so a failed flush is retried on the next tick.
type Scheduler struct {
	source   ports.EntrySource
	sink     ports.Sink
	schedule Schedule
	logger   *slog.Logger
	observe  func(n int, err error)
	now      func() time.Time
	newID    func() string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSchedule sets the flush series used by Run.
func WithSchedule(s Schedule) Option {
	return func(sc *Scheduler) {
		sc.schedule = s
	}
}

// WithLogger sets the logger (default: slog.Default).
func WithLogger(logger *slog.Logger) Option {
	return func(sc *Scheduler) {
		sc.logger = logger
	}
}

// WithFlushObserver is called after every non-empty flush with the entry
// count and the sink's answer.
func WithFlushObserver(fn func(n int, err error)) Option {
	return func(sc *Scheduler) {
		sc.observe = fn
	}
}

// WithIDGenerator overrides the batch ID generator (default: random UUIDs).
func WithIDGenerator(fn func() string) Option {
	return func(sc *Scheduler) {
		sc.newID = fn
	}
}

// NewScheduler creates a scheduler reading from source and writing to sink.
func NewScheduler(source ports.EntrySource, sink ports.Sink, opts ...Option) *Scheduler {
	sc := &Scheduler{
		source: source,
		sink:   sink,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Flush sends every unreported entry as one batch and returns the number of
// entries acknowledged. Nothing is sent when there is nothing to report.
func (sc *Scheduler) Flush(ctx context.Context) (int, error) {
	entries := sc.source.ListUnreported(false)
	if len(entries) == 0 {
		return 0, nil
	}

	batch := domain.Batch{
		ID:        sc.newID(),
		CreatedAt: sc.now().UTC(),
		Entries:   entries,
	}
	err := sc.sink.Send(ctx, batch)
	if sc.observe != nil {
		sc.observe(len(entries), err)
	}
	if err != nil {
		return 0, fmt.Errorf("flush %s: %w", batch.ID, err)
	}

	sc.source.MarkReported(batch.Keys()...)
	sc.logger.Debug("batch flushed", "batch_id", batch.ID, "entries", len(entries))
	return len(entries), nil
}

// Run flushes on the schedule until ctx is done or the series is exhausted.
// Flush errors are logged and do not stop the loop. On return a final flush
// is attempted with a fresh context bounded by drain, when drain > 0.
func (sc *Scheduler) Run(ctx context.Context, drain time.Duration) error {
	defer func() {
		if drain <= 0 {
			return
		}
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drain)
		defer cancel()
		if _, err := sc.Flush(dctx); err != nil {
			sc.logger.Warn("final flush failed", "err", err)
		}
	}()

	for i := 0; ; i++ {
		delay, ok := sc.schedule.Next(i)
		if !ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := sc.Flush(ctx); err != nil {
			sc.logger.Warn("flush failed", "err", err)
		}
	}
}
