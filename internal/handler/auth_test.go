package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/handler"
	"github.com/pkordes/trip-planner/internal/service"
)

type mockUserServicer struct {
	register func(ctx context.Context, in service.RegisterInput) (service.Session, error)
	login    func(ctx context.Context, email, password string) (service.Session, error)
	me       func(ctx context.Context) (domain.User, error)
}

func (m *mockUserServicer) Register(ctx context.Context, in service.RegisterInput) (service.Session, error) {
	return m.register(ctx, in)
}
func (m *mockUserServicer) Login(ctx context.Context, email, password string) (service.Session, error) {
	return m.login(ctx, email, password)
}
func (m *mockUserServicer) Me(ctx context.Context) (domain.User, error) {
	return m.me(ctx)
}

var _ handler.UserServicer = (*mockUserServicer)(nil)

var sessionExpiry = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func TestRegister_201(t *testing.T) {
	svc := &mockUserServicer{
		register: func(_ context.Context, in service.RegisterInput) (service.Session, error) {
			assert.Equal(t, service.RegisterInput{Email: "alice@example.com", Password: "hunter22", DisplayName: "Alice"}, in)
			return service.Session{
				User:      domain.User{UID: "uid-alice", Email: in.Email, DisplayName: in.DisplayName, PasswordHash: "secret-hash"},
				Token:     "tok",
				ExpiresAt: sessionExpiry,
			}, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Users: svc}), http.MethodPost, "/auth/register",
		jsonBody(t, map[string]any{"email": "alice@example.com", "password": "hunter22", "display_name": "Alice"}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	var got handler.SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "tok", got.AccessToken)
	assert.Equal(t, "Bearer", got.TokenType)
	assert.Equal(t, "uid-alice", got.User.UID)
	assert.True(t, sessionExpiry.Equal(got.ExpiresAt))
}

func TestRegister_409_Duplicate(t *testing.T) {
	svc := &mockUserServicer{
		register: func(context.Context, service.RegisterInput) (service.Session, error) {
			return service.Session{}, fmt.Errorf("service.UserService.Register: %w: email already registered", domain.ErrConflict)
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Users: svc}), http.MethodPost, "/auth/register",
		jsonBody(t, map[string]any{"email": "alice@example.com", "password": "hunter22"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already registered", decodeError(t, rec).Message)
}

func TestLogin_401_BadCredentials(t *testing.T) {
	svc := &mockUserServicer{
		login: func(_ context.Context, email, password string) (service.Session, error) {
			assert.Equal(t, "alice@example.com", email)
			assert.Equal(t, "wrong", password)
			return service.Session{}, fmt.Errorf("service.UserService.Login: %w: invalid email or password", domain.ErrAuthenticationRequired)
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Users: svc}), http.MethodPost, "/auth/login",
		jsonBody(t, map[string]any{"email": "alice@example.com", "password": "wrong"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_200(t *testing.T) {
	svc := &mockUserServicer{
		login: func(context.Context, string, string) (service.Session, error) {
			return service.Session{User: domain.User{UID: "uid-alice"}, Token: "tok", ExpiresAt: sessionExpiry}, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Users: svc}), http.MethodPost, "/auth/login",
		jsonBody(t, map[string]any{"email": "alice@example.com", "password": "hunter22"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"tok"`)
}

func TestMe(t *testing.T) {
	svc := &mockUserServicer{
		me: func(context.Context) (domain.User, error) {
			return domain.User{UID: "uid-alice", Email: "alice@example.com"}, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Users: svc}), http.MethodGet, "/auth/me", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestMe_401_Anonymous(t *testing.T) {
	svc := &mockUserServicer{
		me: func(context.Context) (domain.User, error) {
			return domain.User{}, fmt.Errorf("service.UserService.Me: %w", domain.ErrAuthenticationRequired)
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Users: svc}), http.MethodGet, "/auth/me", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
