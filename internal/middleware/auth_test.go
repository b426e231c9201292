package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/middleware"
)

// verifierFunc adapts a function to middleware.TokenVerifier.
type verifierFunc func(token string) (domain.Identity, error)

func (f verifierFunc) Verify(token string) (domain.Identity, error) { return f(token) }

var acceptGood = verifierFunc(func(token string) (domain.Identity, error) {
	if token != "good" {
		return domain.Identity{}, errors.New("bad signature")
	}
	return domain.Identity{UID: "uid-1", Email: "a@example.com"}, nil
})

// identityEcho writes the caller's uid, or "anonymous".
var identityEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.UserFromContext(r.Context())
	if !ok {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(id.UID))
})

func TestAuthenticator_BearerHeader(t *testing.T) {
	h := middleware.NewAuthenticator(acceptGood)(identityEcho)

	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uid-1", rec.Body.String())
}

func TestAuthenticator_QueryParam(t *testing.T) {
	h := middleware.NewAuthenticator(acceptGood)(identityEcho)

	req := httptest.NewRequest(http.MethodGet, "/trips/events?access_token=good", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "uid-1", rec.Body.String())
}

func TestAuthenticator_NoTokenIsAnonymous(t *testing.T) {
	h := middleware.NewAuthenticator(acceptGood)(identityEcho)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestAuthenticator_InvalidToken_Returns401(t *testing.T) {
	h := middleware.NewAuthenticator(acceptGood)(identityEcho)

	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}
