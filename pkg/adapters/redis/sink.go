package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/yerf/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultKey is the list batches are pushed to.
const DefaultKey = "yerf:batches"

// Sink implements ports.Sink by appending JSON batches to a Redis list.
type Sink struct {
	client *backend.Client
	key    string
	maxLen int64
}

// Option configures a Sink.
type Option func(*Sink)

// WithKey sets the list key.
func WithKey(key string) Option {
	return func(s *Sink) {
		s.key = key
	}
}

// WithMaxLen keeps only the newest n batches. Zero keeps everything.
func WithMaxLen(n int64) Option {
	return func(s *Sink) {
		s.maxLen = n
	}
}

// New creates a new Redis sink with options.
func New(address, password string, db int, opts ...Option) *Sink {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis sink from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Sink {
	sink := &Sink{
		client: client,
		key:    DefaultKey,
	}

	for _, opt := range opts {
		opt(sink)
	}

	return sink
}

// Send pushes the batch to the tail of the list.
func (s *Sink) Send(ctx context.Context, batch domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, s.key, -s.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push batch to redis: %w", err)
	}
	return nil
}

// Batches reads back every stored batch, oldest first.
func (s *Sink) Batches(ctx context.Context) ([]domain.Batch, error) {
	return s.Range(ctx, 0, -1)
}

// Range reads the stored batches between start and stop, inclusive, with
// LRANGE index semantics.
func (s *Sink) Range(ctx context.Context, start, stop int64) ([]domain.Batch, error) {
	raw, err := s.client.LRange(ctx, s.key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read batches: %w", err)
	}

	batches := make([]domain.Batch, 0, len(raw))
	for _, item := range raw {
		var b domain.Batch
		if err := json.Unmarshal([]byte(item), &b); err != nil {
			// Skip entries written by something else.
			continue
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// Close closes the underlying client.
func (s *Sink) Close() error {
	return s.client.Close()
}
