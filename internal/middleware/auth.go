package middleware

import (
	"net/http"
	"strings"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
)

// TokenVerifier turns a bearer token into the caller's identity.
// *auth.TokenManager satisfies it.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// AccessTokenParam is the query parameter checked when no Authorization header
// is sent. Browser EventSource connections cannot set headers.
const AccessTokenParam = "access_token"

// NewAuthenticator returns a middleware that puts the caller's identity in the
// request context. Requests without a token pass through anonymously and are
// rejected by whichever service needs a user; a token that fails verification
// is rejected here with 401.
func NewAuthenticator(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := v.Verify(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired access token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get(AccessTokenParam)
}
