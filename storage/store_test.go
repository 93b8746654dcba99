package storage_test

import (
	"errors"
	"testing"

	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/storage/memstore"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/users"
	"github.com/stretchr/testify/require"
)

type failingBackend struct{}

func (failingBackend) Get(string) (string, bool, error) { return "", false, errors.New("disabled") }
func (failingBackend) Set(string, string) error         { return errors.New("quota exceeded") }
func (failingBackend) Delete(string) error              { return errors.New("disabled") }

func testUser() *users.User {
	return &users.User{ID: "u1", Username: "ada", Email: "ada@example.com", Role: users.RoleStudent, Status: users.StatusActive}
}

func TestTokenStore_SetTrimsValue(t *testing.T) {
	mem := memstore.New()
	s := storage.New(mem)

	s.Set(token.Public, token.Access, "  abc123 ")

	got, ok := s.Get(token.Public, token.Access)
	require.True(t, ok)
	require.Equal(t, "abc123", got)

	raw, ok, err := mem.Get("asto_lms_accessToken")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc123", raw)
}

func TestTokenStore_RejectsEmpty(t *testing.T) {
	t.Run("no prior value", func(t *testing.T) {
		s := storage.New(memstore.New())
		s.Set(token.Public, token.Access, "   ")

		_, ok := s.Get(token.Public, token.Access)
		require.False(t, ok)
	})

	t.Run("prior value kept", func(t *testing.T) {
		s := storage.New(memstore.New())
		s.Set(token.Dashboard, token.Refresh, "r1")
		s.Set(token.Dashboard, token.Refresh, "")
		s.Set(token.Dashboard, token.Refresh, "\t\n")

		got, ok := s.Get(token.Dashboard, token.Refresh)
		require.True(t, ok)
		require.Equal(t, "r1", got)
	})
}

func TestTokenStore_GetHealsInvalidValue(t *testing.T) {
	mem := memstore.New()
	require.NoError(t, mem.Set("asto_lms_dashboard_accessToken", "  "))
	s := storage.New(mem)

	_, ok := s.Get(token.Dashboard, token.Access)
	require.False(t, ok)

	_, present, err := mem.Get("asto_lms_dashboard_accessToken")
	require.NoError(t, err)
	require.False(t, present)
}

func TestTokenStore_Keys(t *testing.T) {
	s := storage.New(memstore.New())

	require.Equal(t, "asto_lms_accessToken", s.Key(token.Public, token.Access))
	require.Equal(t, "asto_lms_refreshToken", s.Key(token.Public, token.Refresh))
	require.Equal(t, "asto_lms_dashboard_accessToken", s.Key(token.Dashboard, token.Access))
	require.Equal(t, "asto_lms_dashboard_refreshToken", s.Key(token.Dashboard, token.Refresh))

	custom := storage.New(memstore.New(), storage.WithPrefix("x_"))
	require.Equal(t, "x_dashboard_refreshToken", custom.Key(token.Dashboard, token.Refresh))
}

func TestTokenStore_ClearRemovesTrack(t *testing.T) {
	mem := memstore.New()
	s := storage.New(mem)
	for _, tr := range token.Tracks {
		s.SetPair(tr, token.Pair{AccessToken: "a-" + tr.String(), RefreshToken: "r-" + tr.String()})
		s.SetUser(tr, testUser())
	}

	s.Clear(token.Public)

	_, ok := s.Get(token.Public, token.Access)
	require.False(t, ok)
	_, ok = s.Get(token.Public, token.Refresh)
	require.False(t, ok)
	_, ok = s.User(token.Public)
	require.False(t, ok)

	// dashboard untouched
	require.Equal(t, []string{
		"asto_lms_dashboard_accessToken",
		"asto_lms_dashboard_refreshToken",
		"asto_lms_dashboard_user",
	}, mem.Keys())

	// idempotent
	s.Clear(token.Public)
	require.Len(t, mem.Keys(), 3)
}

func TestTokenStore_TracksIndependent(t *testing.T) {
	s := storage.New(memstore.New())
	s.Set(token.Dashboard, token.Access, "dash")
	s.Set(token.Public, token.Access, "pub")
	s.Remove(token.Public, token.Access)

	got, ok := s.Get(token.Dashboard, token.Access)
	require.True(t, ok)
	require.Equal(t, "dash", got)
}

func TestTokenStore_Pair(t *testing.T) {
	s := storage.New(memstore.New())

	_, ok := s.Pair(token.Public)
	require.False(t, ok)

	s.SetPair(token.Public, token.Pair{AccessToken: "a1"})
	pair, ok := s.Pair(token.Public)
	require.True(t, ok)
	require.Equal(t, token.Pair{AccessToken: "a1"}, pair)

	s.SetPair(token.Public, token.Pair{AccessToken: "a2", RefreshToken: "r2"})
	pair, _ = s.Pair(token.Public)
	require.Equal(t, token.Pair{AccessToken: "a2", RefreshToken: "r2"}, pair)

	// a pair without a refresh token leaves the stored one alone
	s.SetPair(token.Public, token.Pair{AccessToken: "a3"})
	pair, _ = s.Pair(token.Public)
	require.Equal(t, token.Pair{AccessToken: "a3", RefreshToken: "r2"}, pair)
}

func TestTokenStore_User(t *testing.T) {
	mem := memstore.New()
	s := storage.New(mem)

	s.SetUser(token.Dashboard, testUser())
	u, ok := s.User(token.Dashboard)
	require.True(t, ok)
	require.Equal(t, "ada@example.com", u.Email)

	_, ok = s.User(token.Public)
	require.False(t, ok)

	require.NoError(t, mem.Set("asto_lms_user", "{not json"))
	_, ok = s.User(token.Public)
	require.False(t, ok)

	s.SetUser(token.Dashboard, nil)
	_, ok = s.User(token.Dashboard)
	require.False(t, ok)
}

func TestTokenStore_NoBackend(t *testing.T) {
	s := storage.New(nil)
	require.False(t, s.Available())

	require.NotPanics(t, func() {
		s.Set(token.Public, token.Access, "abc")
		s.SetUser(token.Public, testUser())
		s.Clear(token.Public)
		s.Remove(token.Dashboard, token.Refresh)
	})
	_, ok := s.Get(token.Public, token.Access)
	require.False(t, ok)
	_, ok = s.User(token.Public)
	require.False(t, ok)
}

func TestTokenStore_BackendErrorsSwallowed(t *testing.T) {
	s := storage.New(failingBackend{})
	require.True(t, s.Available())

	require.NotPanics(t, func() {
		s.Set(token.Public, token.Access, "abc")
		s.Clear(token.Dashboard)
	})
	_, ok := s.Get(token.Public, token.Access)
	require.False(t, ok)
}
