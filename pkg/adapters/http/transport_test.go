package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	yhttp "github.com/aretw0/yerf/pkg/adapters/http"
	"github.com/aretw0/yerf/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimingTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := clock.Millis(100, 130, 200, 260)
	transport := yhttp.NewTimingTransport(srv.Client().Transport, c)
	client := &http.Client{Transport: transport}

	for _, path := range []string{"/api/feed", "/api/counts"} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := transport.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, srv.URL+"/api/feed", entries[0].Name)
	assert.Equal(t, 100*time.Millisecond, entries[0].StartTime)
	assert.Equal(t, 30*time.Millisecond, entries[0].Duration)
	assert.Equal(t, 200*time.Millisecond, entries[1].StartTime)
	assert.Equal(t, 60*time.Millisecond, entries[1].Duration)

	transport.Reset()
	assert.Empty(t, transport.Entries())
}
