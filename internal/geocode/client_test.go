package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
)

func TestReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "trip-planner-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"name":"Belém Tower","display_name":"Belém Tower, Lisbon, Portugal"}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, "trip-planner-test", 100, srv.Client()).Reverse(context.Background(), 38.6916, -9.2160)

	require.NoError(t, err)
	assert.Equal(t, domain.Place{Name: "Belém Tower", Address: "Belém Tower, Lisbon, Portugal"}, p)
}

func TestToPlace_Fallbacks(t *testing.T) {
	assert.Equal(t, domain.Place{Name: "Lisbon, Portugal", Address: "Lisbon, Portugal"},
		toPlace(reverseResponse{DisplayName: "Lisbon, Portugal"}))
	assert.Equal(t, domain.Place{Name: UnknownPlace}, toPlace(reverseResponse{}))
}

func TestReverse_Cached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"name":"X"}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "ua", 100, srv.Client())

	for range 3 {
		_, err := c.Reverse(context.Background(), 1, 2)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), calls.Load())
}

func TestReverse_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "ua", 100, srv.Client()).Reverse(context.Background(), 1, 2)

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestReverse_CancelledWhileWaitingForLimiter(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "ua", 0.001, nil)
	c.limiter.Allow() // spend the only token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Reverse(ctx, 1, 2)

	assert.Error(t, err)
}
