package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllWithLimit(t *testing.T) {
	payload := []byte("hello")

	got, err := ReadAllWithLimit(bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	got, err = ReadAllWithLimit(bytes.NewReader(payload), 0)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = ReadAllWithLimit(bytes.NewReader(payload), 2)
	require.Error(t, err)
	assert.True(t, IsResponseTooLarge(err))
}

func TestRateLimitDisabledReturnsBase(t *testing.T) {
	base := http.DefaultTransport
	assert.Same(t, base, WrapTransportWithRateLimit(base, 0, 5))
}

func TestRateLimitedTransportHonoursCancelledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &http.Client{Transport: WrapTransportWithRateLimit(nil, 0.001, 1)}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNewClientPassesResponsesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := New(time.Second, nil)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
