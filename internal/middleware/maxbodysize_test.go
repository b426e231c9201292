package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/middleware"
)

// readingHandler drains the body and records the read error, like a JSON
// decoder or multipart reader would.
type readingHandler struct {
	called bool
	read   int
	err    error
}

func (h *readingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	b, err := io.ReadAll(r.Body)
	h.read, h.err = len(b), err
	w.WriteHeader(http.StatusOK)
}

func bodyRequest(n int, declared bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(strings.Repeat("x", n)))
	if !declared {
		req.ContentLength = -1
	}
	return req
}

func TestMaxBodySizeHandler_WithinLimit(t *testing.T) {
	next := &readingHandler{}
	rec := httptest.NewRecorder()
	middleware.NewMaxBodySizeHandler(100)(next).ServeHTTP(rec, bodyRequest(100, true))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, next.err)
	assert.Equal(t, 100, next.read)
}

func TestMaxBodySizeHandler_DeclaredLengthRejectedUpFront(t *testing.T) {
	next := &readingHandler{}
	rec := httptest.NewRecorder()
	middleware.NewMaxBodySizeHandler(100)(next).ServeHTTP(rec, bodyRequest(101, true))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, next.called, "handler must not run")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "payload_too_large", body.Error.Code)
}

// Without a Content-Length the handler runs and its read fails at the limit.
func TestMaxBodySizeHandler_UndeclaredLengthFailsOnRead(t *testing.T) {
	next := &readingHandler{}
	rec := httptest.NewRecorder()
	middleware.NewMaxBodySizeHandler(100)(next).ServeHTTP(rec, bodyRequest(250, false))

	require.True(t, next.called)
	var tooLarge *http.MaxBytesError
	require.True(t, errors.As(next.err, &tooLarge), "got %v", next.err)
	assert.EqualValues(t, 100, tooLarge.Limit)
	assert.LessOrEqual(t, next.read, 100)
}
