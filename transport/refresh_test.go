package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/metrics"
	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/storage/memstore"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/transport"
	"github.com/jrsteele09/go-lms-client/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// backend accepts a single access token per track and issues replacements on refresh.
type backend struct {
	lock         sync.Mutex
	valid        map[string]bool // access tokens the API accepts
	refreshable  map[string]string
	refreshCalls atomic.Int32
	refreshDelay time.Duration
	refreshCode  int
	bodies       []string
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	b := &backend{valid: map[string]bool{}, refreshable: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+transport.RefreshPath, b.refresh)
	mux.HandleFunc("/api/v1/", b.resource)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) refresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	if b.refreshDelay > 0 {
		time.Sleep(b.refreshDelay)
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.lock.Lock()
	defer b.lock.Unlock()
	if b.refreshCode != 0 {
		w.WriteHeader(b.refreshCode)
		return
	}
	next, ok := b.refreshable[body.RefreshToken]
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	b.valid[next] = true
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"access_token": next, "refresh_token": body.RefreshToken + "-rotated"})
}

func (b *backend) resource(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	b.lock.Lock()
	b.bodies = append(b.bodies, string(data))
	ok := b.valid[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	b.lock.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
		return
	}
	_, _ = w.Write([]byte(r.Header.Get("Authorization")))
}

func newCoordinator(srv *httptest.Server, store *storage.TokenStore, options ...transport.CoordinatorOption) *http.Client {
	return &http.Client{Transport: transport.NewCoordinator(srv.URL, store, srv.Client().Transport, options...)}
}

func get(t *testing.T, client *http.Client, ctx context.Context, url string) (int, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestCoordinator_RefreshAndRetry(t *testing.T) {
	b, srv := newBackend(t)
	b.refreshable["r1"] = "fresh"

	store := storage.New(memstore.New())
	store.SetPair(token.Dashboard, token.Pair{AccessToken: "stale", RefreshToken: "r1"})
	client := newCoordinator(srv, store)

	status, body := get(t, client, context.Background(), srv.URL+"/api/v1/courses")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Bearer fresh", body)
	require.EqualValues(t, 1, b.refreshCalls.Load())

	pair, ok := store.Pair(token.Dashboard)
	require.True(t, ok)
	require.Equal(t, token.Pair{AccessToken: "fresh", RefreshToken: "r1-rotated"}, pair)
}

func TestCoordinator_ConcurrentRequestsShareRefresh(t *testing.T) {
	b, srv := newBackend(t)
	b.refreshable["r1"] = "fresh"
	b.refreshDelay = 50 * time.Millisecond

	store := storage.New(memstore.New())
	store.SetPair(token.Dashboard, token.Pair{AccessToken: "stale", RefreshToken: "r1"})
	reg := prometheus.NewRegistry()
	client := newCoordinator(srv, store, transport.WithMetrics(metrics.New(reg)))

	const n = 5
	var wg sync.WaitGroup
	results := make([]string, n)
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], results[i] = get(t, client, context.Background(), srv.URL+"/api/v1/enrollments")
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, b.refreshCalls.Load())
	for i := 0; i < n; i++ {
		require.Equal(t, http.StatusOK, codes[i])
		require.Equal(t, "Bearer fresh", results[i])
	}
}

func TestCoordinator_RefreshFailureClearsTrack(t *testing.T) {
	b, srv := newBackend(t)
	b.refreshCode = http.StatusInternalServerError
	b.valid["pub"] = true

	store := storage.New(memstore.New())
	store.SetPair(token.Dashboard, token.Pair{AccessToken: "stale", RefreshToken: "r1"})
	store.SetUser(token.Dashboard, &users.User{ID: "u1", Email: "op@example.com", Role: users.RoleAdmin})
	store.SetPair(token.Public, token.Pair{AccessToken: "pub", RefreshToken: "rp"})

	var expired []token.Track
	client := newCoordinator(srv, store, transport.WithExpiredHandler(func(tr token.Track) {
		expired = append(expired, tr)
	}))

	status, body := get(t, client, context.Background(), srv.URL+"/api/v1/courses")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, `{"message":"token expired"}`, body)
	require.Equal(t, []token.Track{token.Dashboard}, expired)

	_, ok := store.Pair(token.Dashboard)
	require.False(t, ok)
	_, ok = store.Get(token.Dashboard, token.Refresh)
	require.False(t, ok)
	_, ok = store.User(token.Dashboard)
	require.False(t, ok)

	// public track untouched, and now takes precedence
	pair, ok := store.Pair(token.Public)
	require.True(t, ok)
	require.Equal(t, "pub", pair.AccessToken)
	status, body = get(t, client, context.Background(), srv.URL+"/api/v1/courses")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Bearer pub", body)
}

func TestCoordinator_MissingAccessTokenInRefreshResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(transport.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"refresh_token":"only"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := storage.New(memstore.New())
	store.SetPair(token.Public, token.Pair{AccessToken: "stale", RefreshToken: "r1"})
	client := newCoordinator(srv, store)

	status, _ := get(t, client, context.Background(), srv.URL+"/api/v1/users")
	require.Equal(t, http.StatusUnauthorized, status)
	_, ok := store.Get(token.Public, token.Refresh)
	require.False(t, ok)
}

func TestCoordinator_NoRefreshToken(t *testing.T) {
	b, srv := newBackend(t)

	store := storage.New(memstore.New())
	store.Set(token.Public, token.Access, "stale")
	store.SetUser(token.Public, &users.User{ID: "u1", Email: "ada@example.com", Role: users.RoleStudent})
	client := newCoordinator(srv, store)

	status, _ := get(t, client, context.Background(), srv.URL+"/api/v1/courses")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Zero(t, b.refreshCalls.Load())

	_, ok := store.Get(token.Public, token.Access)
	require.False(t, ok)
	_, ok = store.User(token.Public)
	require.False(t, ok)
}

func TestCoordinator_NoTokenAttached(t *testing.T) {
	b, srv := newBackend(t)
	store := storage.New(memstore.New())
	client := newCoordinator(srv, store)

	status, _ := get(t, client, context.Background(), srv.URL+"/api/v1/courses")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Zero(t, b.refreshCalls.Load())
}

func TestCoordinator_AnonymousNeverRefreshes(t *testing.T) {
	b, srv := newBackend(t)
	b.refreshable["r1"] = "fresh"
	store := storage.New(memstore.New())
	store.SetPair(token.Public, token.Pair{AccessToken: "stale", RefreshToken: "r1"})
	client := newCoordinator(srv, store)

	status, _ := get(t, client, transport.WithoutCredentials(context.Background()), srv.URL+"/api/v1/auth/login")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Zero(t, b.refreshCalls.Load())
	_, ok := store.Get(token.Public, token.Access)
	require.True(t, ok)
}

func TestCoordinator_RefreshEndpoint401ClearsBothTracks(t *testing.T) {
	_, srv := newBackend(t)

	store := storage.New(memstore.New())
	store.SetPair(token.Public, token.Pair{AccessToken: "a", RefreshToken: "r"})
	store.SetPair(token.Dashboard, token.Pair{AccessToken: "da", RefreshToken: "dr"})
	store.SetUser(token.Public, &users.User{ID: "u2", Email: "ada@example.com", Role: users.RoleStudent})
	store.SetUser(token.Dashboard, &users.User{ID: "u1", Email: "op@example.com", Role: users.RoleAdmin})

	var lock sync.Mutex
	var expired []token.Track
	client := newCoordinator(srv, store, transport.WithExpiredHandler(func(tr token.Track) {
		lock.Lock()
		defer lock.Unlock()
		expired = append(expired, tr)
	}))

	resp, err := client.Post(srv.URL+transport.RefreshPath, "application/json", strings.NewReader(`{"refresh_token":"bogus"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for _, tr := range token.Tracks {
		_, ok := store.Get(tr, token.Access)
		require.False(t, ok)
		_, ok = store.Get(tr, token.Refresh)
		require.False(t, ok)
		_, ok = store.User(tr)
		require.False(t, ok)
	}
	require.ElementsMatch(t, token.Tracks, expired)
}

func TestCoordinator_ReplaysBody(t *testing.T) {
	b, srv := newBackend(t)
	b.refreshable["r1"] = "fresh"
	store := storage.New(memstore.New())
	store.SetPair(token.Public, token.Pair{AccessToken: "stale", RefreshToken: "r1"})
	client := newCoordinator(srv, store)

	resp, err := client.Post(srv.URL+"/api/v1/enrollments", "application/json", strings.NewReader(`{"course_id":"c1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{`{"course_id":"c1"}`, `{"course_id":"c1"}`}, b.bodies)
}

func TestCoordinator_NonRewindableBodyNotRetried(t *testing.T) {
	b, srv := newBackend(t)
	b.refreshable["r1"] = "fresh"
	store := storage.New(memstore.New())
	store.SetPair(token.Public, token.Pair{AccessToken: "stale", RefreshToken: "r1"})
	client := newCoordinator(srv, store)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/files", io.NopCloser(strings.NewReader("blob")))
	require.NoError(t, err)
	require.Nil(t, req.GetBody)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.EqualValues(t, 1, b.refreshCalls.Load())
	require.Len(t, b.bodies, 1)

	// the refreshed token is still kept for later requests
	got, _ := store.Get(token.Public, token.Access)
	require.Equal(t, "fresh", got)
}

func TestCoordinator_TracksRefreshIndependently(t *testing.T) {
	b, srv := newBackend(t)
	b.refreshable["rd"] = "dash-fresh"
	b.refreshable["rp"] = "pub-fresh"
	store := storage.New(memstore.New())
	store.SetPair(token.Dashboard, token.Pair{AccessToken: "dash-stale", RefreshToken: "rd"})
	store.SetPair(token.Public, token.Pair{AccessToken: "pub-stale", RefreshToken: "rp"})
	client := newCoordinator(srv, store)

	var wg sync.WaitGroup
	bodies := make(map[token.Track]string)
	var lock sync.Mutex
	for _, tr := range token.Tracks {
		wg.Add(1)
		go func(tr token.Track) {
			defer wg.Done()
			_, body := get(t, client, transport.WithTrack(context.Background(), tr), srv.URL+"/api/v1/courses")
			lock.Lock()
			bodies[tr] = body
			lock.Unlock()
		}(tr)
	}
	wg.Wait()

	require.EqualValues(t, 2, b.refreshCalls.Load())
	require.Equal(t, "Bearer dash-fresh", bodies[token.Dashboard])
	require.Equal(t, "Bearer pub-fresh", bodies[token.Public])
}

func TestCoordinator_RefreshDetachedFromCallerCancel(t *testing.T) {
	b, srv := newBackend(t)
	b.refreshable["r1"] = "fresh"
	store := storage.New(memstore.New())
	store.SetPair(token.Public, token.Pair{AccessToken: "stale", RefreshToken: "r1"})
	c := transport.NewCoordinator(srv.URL, store, srv.Client().Transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Refresh(ctx, token.Public))

	got, _ := store.Get(token.Public, token.Access)
	require.Equal(t, "fresh", got)
	require.EqualValues(t, 1, b.refreshCalls.Load())
}

func TestCoordinator_RefreshWithoutSession(t *testing.T) {
	_, srv := newBackend(t)
	c := transport.NewCoordinator(srv.URL, storage.New(memstore.New()), srv.Client().Transport)

	err := c.Refresh(context.Background(), token.Dashboard)
	require.ErrorIs(t, err, errors.ErrNoSession)
}
