package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/aretw0/yerf/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SinkContractTest is a reusable suite that verifies an adapter complies with ports.Sink.
// received must return every batch the collector side has seen so far, oldest first.
func SinkContractTest(t *testing.T, sink ports.Sink, received func(ctx context.Context) ([]domain.Batch, error)) {
	t.Helper()
	ctx := context.Background()

	batch := domain.Batch{
		ID:        "contract-" + time.Now().Format("20060102150405.000"),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Entries: []domain.Entry{
			{Key: "root", Value: 40 * time.Millisecond},
			{Key: "root", Value: 10 * time.Millisecond, IsOffset: true},
			{Key: "root.dep1", Value: 10 * time.Millisecond},
			{Key: "root.dep1", Value: 0, IsOffset: true},
		},
	}

	t.Run("Send delivers entries", func(t *testing.T) {
		require.NoError(t, sink.Send(ctx, batch))

		got, err := received(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, got)

		last := got[len(got)-1]
		assert.Equal(t, batch.ID, last.ID)
		require.Len(t, last.Entries, len(batch.Entries))
		for i, e := range batch.Entries {
			assert.Equal(t, e.Name(), last.Entries[i].Name())
			assert.Equal(t, e.Millis(), last.Entries[i].Millis())
		}
	})

	t.Run("Send empty batch", func(t *testing.T) {
		assert.NoError(t, sink.Send(ctx, domain.Batch{ID: batch.ID + "-empty"}))
	})

	t.Run("Send with canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, sink.Send(canceled, domain.Batch{ID: batch.ID + "-canceled"}))
	})
}
