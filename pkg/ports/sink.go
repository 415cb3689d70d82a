package ports

import (
	"context"

	"github.com/aretw0/yerf/pkg/domain"
)

// Sink delivers flushed samples to an external collector.
type Sink interface {
	// Send delivers the batch. A nil error acknowledges every entry of the
	// batch; the caller then marks the samples reported.
	Send(ctx context.Context, batch domain.Batch) error
}

// EntrySource is the reporting contract of the sample tree.
type EntrySource interface {
	// ListUnreported flattens finished samples not reported yet.
	ListUnreported(includeReported bool) []domain.Entry
	// MarkReported moves the given samples out of the unreported set.
	MarkReported(keys ...string)
}

// ResourceTimings exposes timing entries recorded by the host environment.
type ResourceTimings interface {
	Entries() []domain.ResourceTiming
}

// ResourceTimingsFunc adapts a function to ResourceTimings.
type ResourceTimingsFunc func() []domain.ResourceTiming

func (f ResourceTimingsFunc) Entries() []domain.ResourceTiming {
	return f()
}
