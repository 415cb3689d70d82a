package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/aretw0/yerf/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// DefaultMaxBodyBytes bounds the decoded size of one posted batch.
const DefaultMaxBodyBytes = 1 << 20

// SnapshotSource exposes the live sample tree. *yerf.Tracker implements it.
type SnapshotSource interface {
	Snapshot() []domain.SampleSnapshot
}

// Server receives posted batches and forwards them to a sink.
type Server struct {
	sink      ports.Sink
	logger    *slog.Logger
	snapshots SnapshotSource
	gatherer  prometheus.Gatherer
	maxBody   int64
	batch     *openapi3.Schema
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the logger (default: slog.Default).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSnapshots serves GET /samples/tree from src.
func WithSnapshots(src SnapshotSource) Option {
	return func(s *Server) {
		s.snapshots = src
	}
}

// WithMetrics serves GET /metrics from gatherer.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithMaxBodyBytes bounds the decoded request body.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// LoadSpec parses the embedded OpenAPI document of the collector.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// NewHandler creates the collector HTTP handler.
func NewHandler(sink ports.Sink, opts ...Option) (http.Handler, error) {
	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	ref, ok := doc.Components.Schemas["Batch"]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("openapi document has no Batch schema")
	}

	server := &Server{
		sink:    sink,
		logger:  slog.Default(),
		maxBody: DefaultMaxBodyBytes,
		batch:   ref.Value,
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Post("/samples", server.Receive)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if server.snapshots != nil {
		r.Get("/samples/tree", server.Tree)
	}
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r), nil
}

// Browsers post from the page being measured.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Encoding")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type receiveResponse struct {
	ID       string `json:"id"`
	Accepted int    `json:"accepted"`
}

// Receive handles POST /samples.
func (s *Server) Receive(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, "Invalid gzip body", http.StatusBadRequest)
			s.logger.Warn("Receive: invalid gzip body", "err", err)
			return
		}
		defer zr.Close()
		body = zr
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBody+1))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Receive: read failed", "err", err)
		return
	}
	if int64(len(data)) > s.maxBody {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Receive: invalid json", "err", err)
		return
	}
	if err := s.batch.VisitJSON(raw); err != nil {
		http.Error(w, fmt.Sprintf("Invalid batch: %v", err), http.StatusBadRequest)
		s.logger.Warn("Receive: batch rejected", "err", err)
		return
	}

	var batch domain.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		http.Error(w, "Invalid batch", http.StatusBadRequest)
		s.logger.Warn("Receive: decode failed", "err", err)
		return
	}

	if err := s.sink.Send(r.Context(), batch); err != nil {
		http.Error(w, "Batch could not be stored", http.StatusServiceUnavailable)
		s.logger.Error("Receive: sink failed", "err", err, "batch_id", batch.ID)
		return
	}
	s.logger.Debug("Receive: batch stored", "batch_id", batch.ID, "entries", len(batch.Entries))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(receiveResponse{ID: batch.ID, Accepted: len(batch.Entries)}); err != nil {
		s.logger.Error("Receive response encode failed", "err", err)
	}
}

// Tree handles GET /samples/tree.
func (s *Server) Tree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshots.Snapshot()); err != nil {
		s.logger.Error("Tree response encode failed", "err", err)
	}
}
