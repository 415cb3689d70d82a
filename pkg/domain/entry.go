package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// OffsetPrefix marks offset values in the flattened wire form.
const OffsetPrefix = "offset."

// Entry is one flattened value of a finished sample: its delta, or its
// offset when IsOffset is set.
type Entry struct {
	Key      string
	Value    time.Duration
	IsOffset bool
}

// Name returns the flattened key of the entry ("root.dep1" or "offset.root.dep1").
func (e Entry) Name() string {
	if e.IsOffset {
		return OffsetPrefix + e.Key
	}
	return e.Key
}

// Millis returns the value rounded to the nearest millisecond.
func (e Entry) Millis() int64 {
	return int64(math.Round(float64(e.Value) / float64(time.Millisecond)))
}

// Batch is a set of entries delivered to a sink as one unit.
// A nil error from the sink acknowledges the whole batch.
type Batch struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"-"`
}

// Keys returns the distinct sample keys of the batch in order of appearance.
func (b Batch) Keys() []string {
	seen := make(map[string]struct{}, len(b.Entries))
	keys := make([]string, 0, len(b.Entries))
	for _, e := range b.Entries {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = struct{}{}
		keys = append(keys, e.Key)
	}
	return keys
}

// WireEntry is the flattened JSON form of an entry: {"key": "offset.root", "val": 12}.
type WireEntry struct {
	Key string `json:"key"`
	Val int64  `json:"val"`
}

type wireBatch struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Samples   []WireEntry `json:"samples"`
}

// Wire converts the entry to its flattened form.
func (e Entry) Wire() WireEntry {
	return WireEntry{Key: e.Name(), Val: e.Millis()}
}

// ParseWire converts a flattened entry back, with millisecond precision.
func ParseWire(w WireEntry) Entry {
	e := Entry{Key: w.Key, Value: time.Duration(w.Val) * time.Millisecond}
	if rest, ok := strings.CutPrefix(w.Key, OffsetPrefix); ok {
		e.Key = rest
		e.IsOffset = true
	}
	return e
}

// MarshalJSON encodes the batch with flattened entries under "samples".
func (b Batch) MarshalJSON() ([]byte, error) {
	wb := wireBatch{ID: b.ID, CreatedAt: b.CreatedAt, Samples: make([]WireEntry, 0, len(b.Entries))}
	for _, e := range b.Entries {
		wb.Samples = append(wb.Samples, e.Wire())
	}
	return json.Marshal(wb)
}

// UnmarshalJSON decodes the flattened form produced by MarshalJSON.
func (b *Batch) UnmarshalJSON(data []byte) error {
	var wb wireBatch
	if err := json.Unmarshal(data, &wb); err != nil {
		return err
	}
	b.ID = wb.ID
	b.CreatedAt = wb.CreatedAt
	b.Entries = make([]Entry, 0, len(wb.Samples))
	for _, w := range wb.Samples {
		b.Entries = append(b.Entries, ParseWire(w))
	}
	return nil
}

// SampleSnapshot is a value copy of a sample, safe to read without the tracker lock.
type SampleSnapshot struct {
	Key       string        `json:"key"`
	Parent    string        `json:"parent,omitempty"`
	State     State         `json:"state"`
	StartedAt time.Duration `json:"started_at"`
	StoppedAt time.Duration `json:"stopped_at"`
	Delta     time.Duration `json:"delta"`
	Offset    time.Duration `json:"offset"`
	Waiting   []string      `json:"waiting,omitempty"`
}

// ResourceTiming is a timing entry reported by the host environment for a
// loaded resource (for instance an HTTP request).
type ResourceTiming struct {
	Name      string
	StartTime time.Duration
	Duration  time.Duration
}
