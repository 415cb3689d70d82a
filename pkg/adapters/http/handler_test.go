package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/yerf/pkg/adapters/memory"
	yhttp "github.com/aretw0/yerf/pkg/adapters/http"
	"github.com/aretw0/yerf/pkg/domain"
	"github.com/aretw0/yerf/pkg/ports/tests"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTree []domain.SampleSnapshot

func (s staticTree) Snapshot() []domain.SampleSnapshot { return s }

func newHandler(t *testing.T, sink *memory.Sink, opts ...yhttp.Option) http.Handler {
	t.Helper()
	h, err := yhttp.NewHandler(sink, opts...)
	require.NoError(t, err)
	return h
}

func TestLoadSpec(t *testing.T) {
	doc, err := yhttp.LoadSpec(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/samples"))
}

func TestSink_Contract(t *testing.T) {
	store := memory.NewSink()
	srv := httptest.NewServer(newHandler(t, store))
	defer srv.Close()

	sink := yhttp.NewSink(srv.URL + "/samples")
	tests.SinkContractTest(t, sink, func(context.Context) ([]domain.Batch, error) {
		return store.Batches(), nil
	})
}

func TestSink_Gzip_Contract(t *testing.T) {
	store := memory.NewSink()
	srv := httptest.NewServer(newHandler(t, store))
	defer srv.Close()

	sink := yhttp.NewSink(srv.URL+"/samples", yhttp.WithGzip(true), yhttp.WithHTTPClient(srv.Client()))
	tests.SinkContractTest(t, sink, func(context.Context) ([]domain.Batch, error) {
		return store.Batches(), nil
	})
}

func TestSink_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := yhttp.NewSink(srv.URL).Send(context.Background(), domain.Batch{ID: "x"})
	assert.ErrorIs(t, err, yhttp.ErrRejected)
}

func TestReceive(t *testing.T) {
	store := memory.NewSink()
	h := newHandler(t, store)

	body := `{"id":"b1","created_at":"2024-01-01T00:00:00Z","samples":[{"key":"root","val":40},{"key":"offset.root","val":10}]}`
	req := httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"id":"b1","accepted":2}`, w.Body.String())

	entries := store.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.Entry{Key: "root", Value: 40 * time.Millisecond}, entries[0])
	assert.Equal(t, domain.Entry{Key: "root", Value: 10 * time.Millisecond, IsOffset: true}, entries[1])
}

func TestReceive_Gzip(t *testing.T) {
	store := memory.NewSink()
	h := newHandler(t, store)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"samples":[{"key":"a","val":1}]}`))
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/samples", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, store.Entries(), 1)
}

func TestReceive_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"missing sample": `{"id":"x"}`,
		"missing val":    `{"samples":[{"key":"a"}]}`,
		"negative val":   `{"samples":[{"key":"a","val":-1}]}`,
		"fractional val": `{"samples":[{"key":"a","val":1.5}]}`,
		"empty key":      `{"samples":[{"key":"","val":1}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store := memory.NewSink()
			h := newHandler(t, store)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, store.Batches())
		})
	}
}

func TestReceive_TooLarge(t *testing.T) {
	h := newHandler(t, memory.NewSink(), yhttp.WithMaxBodyBytes(8))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(`{"samples":[]}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestReceive_SinkFailure(t *testing.T) {
	store := memory.NewSink()
	store.FailWith(errors.New("disk full"))
	h := newHandler(t, store)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(`{"samples":[]}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTree(t *testing.T) {
	tree := staticTree{
		{Key: "root", State: domain.StateStopped, Delta: 40 * time.Millisecond},
		{Key: "root.dep1", Parent: "root", State: domain.StateStopped},
	}
	h := newHandler(t, memory.NewSink(), yhttp.WithSnapshots(tree))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/samples/tree", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "root", got[0]["key"])
	assert.Equal(t, "stopped", got[0]["state"])
	assert.Equal(t, "root", got[1]["parent"])
}

func TestTree_NotConfigured(t *testing.T) {
	h := newHandler(t, memory.NewSink())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/samples/tree", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "yerf_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()
	h := newHandler(t, memory.NewSink(), yhttp.WithMetrics(reg))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yerf_test_total 1")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", w.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	h := newHandler(t, memory.NewSink())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/samples", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
