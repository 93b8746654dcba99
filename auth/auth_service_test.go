package auth_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-lms-client/api"
	"github.com/jrsteele09/go-lms-client/auth"
	lmserrors "github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/server"
	"github.com/jrsteele09/go-lms-client/sessions"
	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/storage/memstore"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/transport"
	"github.com/jrsteele09/go-lms-client/users"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://lms.test"

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// testFixture holds all test dependencies
type testFixture struct {
	backend *server.Server
	store   *storage.TokenStore
	slice   *sessions.Slice
	client  *api.Client
	service *auth.Service
}

// setupTestFixture wires the service to an in-process fake backend. A non-nil
// base replaces the fake as the transport under the refresh coordinator.
func setupTestFixture(t *testing.T, base http.RoundTripper) *testFixture {
	t.Helper()

	backend, err := server.New()
	require.NoError(t, err)
	if base == nil {
		base = backend.Transport()
	}

	store := storage.New(memstore.New())
	slice := sessions.NewSlice(store)
	coordinator := transport.NewCoordinator(testBaseURL, store, base)
	client := api.New(testBaseURL, api.WithHTTPClient(&http.Client{Transport: coordinator}))

	service, err := auth.NewService(client, store, slice, auth.WithNowTime(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	return &testFixture{
		backend: backend,
		store:   store,
		slice:   slice,
		client:  client,
		service: service,
	}
}

func (f *testFixture) login(t *testing.T, track token.Track, email string) *users.User {
	t.Helper()
	user, err := f.service.Login(context.Background(), track, api.LoginRequest{Email: email, Password: server.DemoPassword})
	require.NoError(t, err)
	return user
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	store := storage.New(memstore.New())
	slice := sessions.NewSlice(store)
	client := api.New(testBaseURL)

	_, err := auth.NewService(nil, store, slice)
	require.Error(t, err)
	_, err = auth.NewService(client, nil, slice)
	require.Error(t, err)
	_, err = auth.NewService(client, store, nil)
	require.Error(t, err)
}

func TestLogin_StoresSessionOnTrack(t *testing.T) {
	f := setupTestFixture(t, nil)

	var lock sync.Mutex
	var loading []bool
	unsubscribe := f.slice.Subscribe(func(track token.Track, st sessions.State) {
		lock.Lock()
		defer lock.Unlock()
		if track == token.Public {
			loading = append(loading, st.IsLoading)
		}
	})
	defer unsubscribe()

	user := f.login(t, token.Public, server.DemoStudentEmail)
	require.Equal(t, server.DemoStudentEmail, user.Email)
	require.Equal(t, users.RoleStudent, user.Role)

	access, ok := f.store.Get(token.Public, token.Access)
	require.True(t, ok)
	require.NotEmpty(t, access)
	_, ok = f.store.Get(token.Public, token.Refresh)
	require.True(t, ok)
	stored, ok := f.store.User(token.Public)
	require.True(t, ok)
	require.Equal(t, user.ID, stored.ID)

	st := f.service.State(token.Public)
	require.True(t, st.IsAuthenticated)
	require.False(t, st.IsLoading)
	require.Equal(t, user.ID, st.User.ID)

	// The other track is untouched.
	_, ok = f.store.Get(token.Dashboard, token.Access)
	require.False(t, ok)
	require.False(t, f.service.State(token.Dashboard).IsAuthenticated)

	lock.Lock()
	defer lock.Unlock()
	require.NotEmpty(t, loading)
	require.True(t, loading[0])
	require.False(t, loading[len(loading)-1])
}

func TestLogin_FailureLeavesNoPartialSession(t *testing.T) {
	f := setupTestFixture(t, nil)

	_, err := f.service.Login(context.Background(), token.Dashboard, api.LoginRequest{Email: server.DemoAdminEmail, Password: "wrong-password"})
	require.Error(t, err)
	require.ErrorIs(t, err, lmserrors.ErrUnauthorized)
	require.Equal(t, "invalid password", auth.ErrorMessage(err, auth.LoginFailedMsg))

	_, ok := f.store.Get(token.Dashboard, token.Access)
	require.False(t, ok)
	_, ok = f.store.User(token.Dashboard)
	require.False(t, ok)

	st := f.service.State(token.Dashboard)
	require.False(t, st.IsAuthenticated)
	require.False(t, st.IsLoading)
}

func TestLogin_ResponseWithoutUserIsRejected(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.backend.UpdateFaults(func(faults *server.Faults) {
		faults.LoginWithoutUser = true
	})

	_, err := f.service.Login(context.Background(), token.Public, api.LoginRequest{Email: server.DemoStudentEmail, Password: server.DemoPassword})
	require.ErrorIs(t, err, lmserrors.ErrResponseShape)
	require.Equal(t, auth.LoginFailedMsg, auth.ErrorMessage(err, auth.LoginFailedMsg))

	_, ok := f.store.Get(token.Public, token.Access)
	require.False(t, ok)
	require.False(t, f.service.State(token.Public).IsAuthenticated)
}

func TestLogin_NetworkError(t *testing.T) {
	offline := transport.RoundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	f := setupTestFixture(t, offline)

	_, err := f.service.Login(context.Background(), token.Public, api.LoginRequest{Email: server.DemoStudentEmail, Password: server.DemoPassword})
	require.ErrorIs(t, err, lmserrors.ErrNetwork)
	require.Equal(t, auth.NetworkErrorMsg, auth.ErrorMessage(err, auth.LoginFailedMsg))
	require.False(t, f.service.State(token.Public).IsLoading)
}

func TestRegister(t *testing.T) {
	t.Run("signs the track in", func(t *testing.T) {
		f := setupTestFixture(t, nil)

		user, err := f.service.Register(context.Background(), token.Public, api.RegisterRequest{
			Username: "newcomer",
			Email:    "newcomer@example.com",
			Password: "Newcomer@123",
		})
		require.NoError(t, err)
		require.Equal(t, "newcomer", user.Username)
		require.Equal(t, users.RoleStudent, user.Role)

		_, ok := f.store.Get(token.Public, token.Access)
		require.True(t, ok)
		require.True(t, f.service.State(token.Public).IsAuthenticated)
	})

	t.Run("bare user leaves track signed out", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.backend.UpdateFaults(func(faults *server.Faults) {
			faults.RegisterReturnsUser = true
		})

		user, err := f.service.Register(context.Background(), token.Public, api.RegisterRequest{
			Username: "newcomer",
			Email:    "newcomer@example.com",
			Password: "Newcomer@123",
		})
		require.NoError(t, err)
		require.Equal(t, "newcomer@example.com", user.Email)

		_, ok := f.store.Get(token.Public, token.Access)
		require.False(t, ok)
		st := f.service.State(token.Public)
		require.False(t, st.IsAuthenticated)
		require.False(t, st.IsLoading)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := setupTestFixture(t, nil)

		_, err := f.service.Register(context.Background(), token.Public, api.RegisterRequest{
			Username: "someone",
			Email:    server.DemoStudentEmail,
			Password: "Newcomer@123",
		})
		require.ErrorIs(t, err, lmserrors.ErrInvalidRequest)
		require.Equal(t, "email already exists", auth.ErrorMessage(err, auth.RegisterFailedMsg))
		require.False(t, f.service.State(token.Public).IsAuthenticated)
	})
}

func TestVerify_IdentityStrategies(t *testing.T) {
	tests := []struct {
		name     string
		mode     server.VerifyMode
		username string
	}{
		{"headers", server.VerifyHeaders, "student"},
		{"body", server.VerifyBody, "student"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t, nil)
			signedIn := f.login(t, token.Public, server.DemoStudentEmail)
			f.backend.UpdateFaults(func(faults *server.Faults) {
				faults.VerifyMode = tc.mode
			})

			user, err := f.service.Verify(context.Background(), token.Public)
			require.NoError(t, err)
			require.Equal(t, signedIn.ID, user.ID)
			require.Equal(t, tc.username, user.Username)
			require.Equal(t, server.DemoStudentEmail, user.Email)
			require.Equal(t, users.RoleStudent, user.Role)

			stored, ok := f.store.User(token.Public)
			require.True(t, ok)
			require.Equal(t, user.ID, stored.ID)
			st := f.service.State(token.Public)
			require.True(t, st.IsAuthenticated)
			require.False(t, st.IsLoading)
		})
	}
}

func TestVerify_HeaderIdentityUsesClock(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.login(t, token.Public, server.DemoStudentEmail)

	user, err := f.service.Verify(context.Background(), token.Public)
	require.NoError(t, err)
	require.Equal(t, fixedNow, user.CreatedAt)
	require.Equal(t, users.StatusActive, user.Status)
	require.True(t, user.EmailVerified)
}

func TestVerify_NoIdentityInResponse(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.login(t, token.Public, server.DemoStudentEmail)
	f.backend.UpdateFaults(func(faults *server.Faults) {
		faults.VerifyMode = server.VerifyEmpty
	})

	_, err := f.service.Verify(context.Background(), token.Public)
	require.ErrorIs(t, err, lmserrors.ErrResponseShape)

	// Not a rejection: the session is kept.
	st := f.service.State(token.Public)
	require.True(t, st.IsAuthenticated)
	require.False(t, st.IsLoading)
	_, ok := f.store.Get(token.Public, token.Access)
	require.True(t, ok)
}

func TestVerify_ForbiddenClearsOnlyThatTrack(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.login(t, token.Dashboard, server.DemoAdminEmail)
	student := f.login(t, token.Public, server.DemoStudentEmail)
	f.backend.UpdateFaults(func(faults *server.Faults) {
		faults.VerifyStatus = http.StatusForbidden
	})

	_, err := f.service.Verify(context.Background(), token.Dashboard)
	require.ErrorIs(t, err, lmserrors.ErrForbidden)

	_, ok := f.store.Get(token.Dashboard, token.Access)
	require.False(t, ok)
	_, ok = f.store.Get(token.Dashboard, token.Refresh)
	require.False(t, ok)
	_, ok = f.store.User(token.Dashboard)
	require.False(t, ok)
	require.Equal(t, sessions.State{}, f.service.State(token.Dashboard))

	_, ok = f.store.Get(token.Public, token.Access)
	require.True(t, ok)
	st := f.service.State(token.Public)
	require.True(t, st.IsAuthenticated)
	require.Equal(t, student.ID, st.User.ID)
}

func TestVerify_UnauthorizedAfterFailedRefresh(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.login(t, token.Public, server.DemoStudentEmail)
	f.backend.ExpireAccessTokens()
	f.backend.UpdateFaults(func(faults *server.Faults) {
		faults.RefreshStatus = http.StatusInternalServerError
	})

	_, err := f.service.Verify(context.Background(), token.Public)
	require.ErrorIs(t, err, lmserrors.ErrUnauthorized)
	require.Equal(t, 1, f.backend.RefreshCalls())
	require.False(t, f.service.State(token.Public).IsAuthenticated)
	_, ok := f.store.Get(token.Public, token.Access)
	require.False(t, ok)
}

func TestVerify_WithoutTokenMakesNoRequest(t *testing.T) {
	f := setupTestFixture(t, nil)

	_, err := f.service.Verify(context.Background(), token.Dashboard)
	require.ErrorIs(t, err, lmserrors.ErrNoSession)
	require.Equal(t, 0, f.backend.VerifyCalls())
	require.False(t, f.service.State(token.Dashboard).IsLoading)
}

func TestVerify_RefreshesExpiredAccessToken(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.login(t, token.Public, server.DemoStudentEmail)
	before, _ := f.store.Get(token.Public, token.Access)
	f.backend.ExpireAccessTokens()

	user, err := f.service.Verify(context.Background(), token.Public)
	require.NoError(t, err)
	require.Equal(t, server.DemoStudentEmail, user.Email)
	require.Equal(t, 1, f.backend.RefreshCalls())
	require.Equal(t, 2, f.backend.VerifyCalls())

	after, ok := f.store.Get(token.Public, token.Access)
	require.True(t, ok)
	require.NotEqual(t, before, after)
}

func TestLogout_IsIdempotent(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.login(t, token.Public, server.DemoStudentEmail)
	f.login(t, token.Dashboard, server.DemoAdminEmail)

	f.service.Logout(token.Public)
	f.service.Logout(token.Public)

	require.Equal(t, sessions.State{}, f.service.State(token.Public))
	_, ok := f.store.Get(token.Public, token.Access)
	require.False(t, ok)
	_, ok = f.store.User(token.Public)
	require.False(t, ok)

	require.True(t, f.service.State(token.Dashboard).IsAuthenticated)
}

func TestPasswordReset(t *testing.T) {
	f := setupTestFixture(t, nil)
	ctx := context.Background()

	msg, err := f.service.ForgotPassword(ctx, server.DemoStudentEmail)
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	_, err = f.service.VerifyOTP(ctx, server.DemoStudentEmail, "000000")
	require.ErrorIs(t, err, lmserrors.ErrInvalidRequest)
	require.Equal(t, "Invalid OTP", auth.ErrorMessage(err, "OTP verification failed"))

	resetToken, err := f.service.VerifyOTP(ctx, server.DemoStudentEmail, server.DemoOTP)
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)

	_, err = f.service.ResetPassword(ctx, resetToken, "Changed@456")
	require.NoError(t, err)

	_, err = f.service.Login(ctx, token.Public, api.LoginRequest{Email: server.DemoStudentEmail, Password: server.DemoPassword})
	require.ErrorIs(t, err, lmserrors.ErrUnauthorized)
	_, err = f.service.Login(ctx, token.Public, api.LoginRequest{Email: server.DemoStudentEmail, Password: "Changed@456"})
	require.NoError(t, err)

	// The reset token is single use.
	_, err = f.service.ResetPassword(ctx, resetToken, "Another@789")
	require.ErrorIs(t, err, lmserrors.ErrInvalidRequest)
}

func TestRefreshToken_StoresOnMatchingTrack(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.login(t, token.Public, server.DemoStudentEmail)
	f.login(t, token.Dashboard, server.DemoAdminEmail)
	f.backend.UpdateFaults(func(fl *server.Faults) { fl.RotateRefreshTokens = true })

	public, _ := f.store.Pair(token.Public)
	dashboard, _ := f.store.Pair(token.Dashboard)

	track, err := f.service.RefreshToken(context.Background(), " "+public.RefreshToken+" ")
	require.NoError(t, err)
	require.Equal(t, token.Public, track)
	require.Equal(t, 1, f.backend.RefreshCalls())

	refreshed, ok := f.store.Pair(token.Public)
	require.True(t, ok)
	require.NotEqual(t, public.AccessToken, refreshed.AccessToken)
	require.NotEqual(t, public.RefreshToken, refreshed.RefreshToken)

	untouched, _ := f.store.Pair(token.Dashboard)
	require.Equal(t, dashboard, untouched)
}

func TestRefreshToken_RejectedClearsEveryTrack(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.login(t, token.Public, server.DemoStudentEmail)
	f.login(t, token.Dashboard, server.DemoAdminEmail)

	_, err := f.service.RefreshToken(context.Background(), "bogus")
	require.Error(t, err)
	var apiErr *lmserrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	for _, tr := range token.Tracks {
		_, ok := f.store.Get(tr, token.Access)
		require.False(t, ok)
		_, ok = f.store.User(tr)
		require.False(t, ok)
	}
}
