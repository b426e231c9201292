package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/middleware"
)

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.RemoteAddr = addr
	return req
}

// TestRateLimiter_BurstThen429 verifies that a client exhausting its burst is
// told when to retry.
func TestRateLimiter_BurstThen429(t *testing.T) {
	h := middleware.NewRateLimiter(0.01, 2)(okHandler)

	for i := range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:5001"))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"rate_limited"`)
}

// TestRateLimiter_PerClient verifies that clients do not share a bucket.
func TestRateLimiter_PerClient(t *testing.T) {
	h := middleware.NewRateLimiter(0.01, 1)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.2:5000"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestRateLimiter_Disabled verifies that a non-positive rate lets everything through.
func TestRateLimiter_Disabled(t *testing.T) {
	h := middleware.NewRateLimiter(0, 1)(okHandler)

	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
