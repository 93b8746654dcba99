package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestInspect(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	t.Run("backend claims", func(t *testing.T) {
		raw := signed(t, jwtlib.MapClaims{
			"user_id": "u1",
			"email":   "ada@example.com",
			"role":    "admin",
			"iat":     now.Add(-time.Minute).Unix(),
			"exp":     now.Add(14 * time.Minute).Unix(),
		})

		c, err := token.Inspect(raw)
		require.NoError(t, err)
		require.Equal(t, "u1", c.Subject)
		require.Equal(t, "ada@example.com", c.Email)
		require.Equal(t, "admin", c.Role)
		require.False(t, c.Expired())
		require.Equal(t, 14*time.Minute, c.ExpiresIn())
	})

	t.Run("expired", func(t *testing.T) {
		raw := signed(t, jwtlib.MapClaims{"sub": "u2", "exp": now.Add(-time.Second).Unix(), "roles": []any{"student", 7}})

		c, err := token.Inspect(raw)
		require.NoError(t, err)
		require.Equal(t, "u2", c.Subject)
		require.Equal(t, []string{"student"}, c.Roles)
		require.True(t, c.Expired())
		require.Zero(t, c.ExpiresIn())
	})

	t.Run("single role string", func(t *testing.T) {
		c, err := token.Inspect(signed(t, jwtlib.MapClaims{"sub": "u3", "roles": "instructor"}))
		require.NoError(t, err)
		require.Equal(t, []string{"instructor"}, c.Roles)
		require.True(t, c.ExpiresAt.IsZero())
	})

	t.Run("opaque token", func(t *testing.T) {
		_, err := token.Inspect("abc123")
		require.ErrorIs(t, err, token.ErrNotJWT)
	})
}

func TestParseTrack(t *testing.T) {
	tr, err := token.ParseTrack(" Dashboard ")
	require.NoError(t, err)
	require.Equal(t, token.Dashboard, tr)

	_, err = token.ParseTrack("admin")
	require.Error(t, err)
}

func TestValid(t *testing.T) {
	require.True(t, token.Valid(" abc "))
	require.False(t, token.Valid(""))
	require.False(t, token.Valid(" \t\n"))
}
