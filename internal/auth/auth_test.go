package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
)

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), domain.Identity{UID: "u1", Email: "a@x.com"})
	id, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", id.UID)

	_, ok = UserFromContext(WithUser(context.Background(), domain.Identity{}))
	assert.False(t, ok, "an empty uid is anonymous")
}

func TestRequireUser(t *testing.T) {
	_, err := RequireUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)

	id, err := RequireUser(WithUser(context.Background(), domain.Identity{UID: "u1"}))
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UID)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, exp, err := m.Issue(domain.Identity{UID: "u1", Email: "a@x.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UID: "u1", Email: "a@x.com"}, id)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	issued := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue(domain.Identity{UID: "u1"})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Verify(token)

	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).Issue(domain.Identity{UID: "u1"})
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Verify(token)

	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Verify(unsigned)

	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

func TestTokenManager_Garbage(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	ok, err := CheckPassword(hash, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "x")
	assert.Error(t, err)
}
