package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/metrics"
	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// RefreshPath is the backend endpoint that exchanges a refresh token.
const RefreshPath = "/api/v1/auth/refresh-token"

const DefaultRefreshTimeout = 30 * time.Second

// Coordinator is an http.RoundTripper that attaches credentials and recovers
// from an expired access token. On a 401 it refreshes the track whose token the
// request carried and replays the request once.
//
// Concurrent 401s on the same track share a single refresh call. The two tracks
// refresh independently.
type Coordinator struct {
	next       http.RoundTripper
	store      *storage.TokenStore
	attacher   *Attacher
	refreshURL string
	group      singleflight.Group
	timeout    time.Duration
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	onExpired  func(token.Track)
}

type CoordinatorOption func(*Coordinator)

func WithLogger(logger zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger.With().Str("component", "refresh").Logger()
	}
}

func WithMetrics(m *metrics.Metrics) CoordinatorOption {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithRefreshTimeout bounds each refresh call. The call is detached from the
// cancellation of the request that triggered it.
func WithRefreshTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithExpiredHandler registers fn to run after a track's credentials are
// cleared because they could not be refreshed.
func WithExpiredHandler(fn func(token.Track)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onExpired = fn
	}
}

// NewCoordinator sends requests through next (http.DefaultTransport when nil).
// baseURL is the backend root used to build the refresh URL.
func NewCoordinator(baseURL string, store *storage.TokenStore, next http.RoundTripper, options ...CoordinatorOption) *Coordinator {
	if next == nil {
		next = http.DefaultTransport
	}
	c := &Coordinator{
		next:       next,
		store:      store,
		refreshURL: strings.TrimRight(baseURL, "/") + RefreshPath,
		timeout:    DefaultRefreshTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	c.attacher = NewAttacher(store, c.logger)
	return c
}

func (c *Coordinator) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	track, sent, attached := c.attacher.Attach(out)

	resp, err := c.next.RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if isRefreshRequest(req) {
		// A rejected refresh token invalidates every stored session.
		c.logger.Warn().Msg("refresh endpoint returned 401, clearing every track")
		for _, tr := range token.Tracks {
			c.expire(tr, metrics.OutcomeRejected)
		}
		return resp, nil
	}
	if !attached {
		return resp, nil
	}

	if err := c.refresh(req.Context(), track, sent); err != nil {
		c.logger.Debug().Err(err).Str("track", track.String()).Msg("refresh did not recover request")
		return resp, nil
	}

	retry, ok := rewind(req)
	if !ok {
		c.logger.Debug().Str("path", req.URL.Path).Msg("request body cannot be replayed, returning 401")
		return resp, nil
	}
	drain(resp)
	c.attacher.AttachTrack(retry, track)
	return c.next.RoundTrip(retry)
}

// Refresh exchanges the track's refresh token now, joining any refresh of the
// same track already in flight.
func (c *Coordinator) Refresh(ctx context.Context, track token.Track) error {
	current, _ := c.store.Get(track, token.Access)
	return c.refresh(ctx, track, current)
}

// refresh runs at most one exchange per track at a time. sent is the access
// token the failed request carried; if the store already holds a different one,
// a refresh completed in the meantime and no call is made.
func (c *Coordinator) refresh(ctx context.Context, track token.Track, sent string) error {
	leader := false
	_, err, _ := c.group.Do(track.String(), func() (any, error) {
		leader = true
		if current, ok := c.store.Get(track, token.Access); ok && current != sent {
			c.metrics.RefreshOutcome(track, metrics.OutcomeAlreadyRefreshed)
			return nil, nil
		}
		return nil, c.exchange(ctx, track)
	})
	if !leader {
		c.metrics.RefreshJoined(track)
	}
	return err
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *Coordinator) exchange(ctx context.Context, track token.Track) error {
	refreshToken, ok := c.store.Get(track, token.Refresh)
	if !ok {
		c.expire(track, metrics.OutcomeNoRefreshToken)
		return fmt.Errorf("%s track has no refresh token: %w", track, errors.ErrNoSession)
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		c.expire(track, metrics.OutcomeFailure)
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.refreshURL, bytes.NewReader(body))
	if err != nil {
		c.expire(track, metrics.OutcomeFailure)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("track", track.String()).Msg("refreshing access token")
	resp, err := c.next.RoundTrip(req)
	if err != nil {
		c.expire(track, metrics.OutcomeFailure)
		return fmt.Errorf("%w: %v", errors.ErrNetwork, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.expire(track, metrics.OutcomeFailure)
		return &errors.APIError{Status: resp.StatusCode, Message: "token refresh failed"}
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.expire(track, metrics.OutcomeFailure)
		return fmt.Errorf("%w: %v", errors.ErrResponseShape, err)
	}
	if !token.Valid(out.AccessToken) {
		c.expire(track, metrics.OutcomeFailure)
		return fmt.Errorf("%w: refresh response has no access_token", errors.ErrResponseShape)
	}

	c.store.SetPair(track, token.Pair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken})
	c.metrics.RefreshOutcome(track, metrics.OutcomeSuccess)
	c.logger.Info().Str("track", track.String()).Msg("access token refreshed")
	return nil
}

func (c *Coordinator) expire(track token.Track, outcome string) {
	c.store.Clear(track)
	c.metrics.RefreshOutcome(track, outcome)
	c.logger.Warn().Str("track", track.String()).Str("outcome", outcome).Msg("session expired, track cleared")
	if c.onExpired != nil {
		c.onExpired(track)
	}
}

func isRefreshRequest(req *http.Request) bool {
	return strings.Contains(req.URL.Path, "/auth/refresh-token")
}

// rewind returns a fresh copy of req with its body reset.
func rewind(req *http.Request) (*http.Request, bool) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return out, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	out.Body = body
	return out, true
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
