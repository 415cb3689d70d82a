package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/klauspost/compress/gzip"
)

// ErrRejected is returned when the collector answers with a non-2xx status.
var ErrRejected = errors.New("batch rejected by collector")

// Sink implements ports.Sink by POSTing JSON batches to a collector.
// A 2xx response acknowledges the batch.
type Sink struct {
	endpoint string
	client   *http.Client
	gzip     bool
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithHTTPClient sets the client used to POST batches (default: http.DefaultClient).
func WithHTTPClient(c *http.Client) SinkOption {
	return func(s *Sink) {
		s.client = c
	}
}

// WithGzip compresses request bodies.
func WithGzip(enabled bool) SinkOption {
	return func(s *Sink) {
		s.gzip = enabled
	}
}

// NewSink creates a sink posting to endpoint.
func NewSink(endpoint string, opts ...SinkOption) *Sink {
	s := &Sink{
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts the batch and waits for the collector's answer.
func (s *Sink) Send(ctx context.Context, batch domain.Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	if s.gzip {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("failed to compress batch: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to compress batch: %w", err)
		}
		data = buf.Bytes()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post batch: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	}
	return nil
}
