package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	assert.Equal(t, "reportable", domain.StateReportable.String())
	assert.Equal(t, "unknown", domain.State(42).String())
	assert.False(t, domain.StateStarted.Finished())
	assert.True(t, domain.StateStopped.Finished())
	assert.True(t, domain.StateReported.Finished())

	text, err := domain.StateStarted.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "started", string(text))
}

func TestSampleError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &domain.SampleError{Op: "start", Key: "feed", Err: domain.ErrAlreadyStarted})

	assert.ErrorIs(t, err, domain.ErrAlreadyStarted)
	assert.True(t, domain.IsProtocolError(err))
	assert.Contains(t, err.Error(), "sample[feed]")
	assert.False(t, domain.IsProtocolError(errors.New("plain")))
}

func TestArgumentError(t *testing.T) {
	err := domain.Missing("backfill", "key")
	assert.ErrorIs(t, err, domain.ErrMissingArgument)
	assert.Equal(t, `backfill: missing argument "key"`, err.Error())

	err = domain.Invalid("backfill", "stoppedAt", "must not precede startedAt")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "must not precede startedAt")
}

func TestEntry_Wire(t *testing.T) {
	delta := domain.Entry{Key: "root.dep1", Value: 10*time.Millisecond + 600*time.Microsecond}
	offset := domain.Entry{Key: "root.dep1", Value: 9 * time.Millisecond, IsOffset: true}

	assert.Equal(t, domain.WireEntry{Key: "root.dep1", Val: 11}, delta.Wire())
	assert.Equal(t, domain.WireEntry{Key: "offset.root.dep1", Val: 9}, offset.Wire())
	assert.Equal(t, offset, domain.ParseWire(offset.Wire()))
}

func TestBatch_JSON(t *testing.T) {
	batch := domain.Batch{
		ID:        "b-1",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Entries: []domain.Entry{
			{Key: "root", Value: 20 * time.Millisecond},
			{Key: "root", Value: 0, IsOffset: true},
		},
	}

	data, err := json.Marshal(batch)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "b-1",
		"created_at": "2024-01-02T03:04:05Z",
		"samples": [{"key": "root", "val": 20}, {"key": "offset.root", "val": 0}]
	}`, string(data))

	var decoded domain.Batch
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, batch.ID, decoded.ID)
	assert.Equal(t, batch.Entries, decoded.Entries)
	assert.Equal(t, []string{"root"}, decoded.Keys())
}
