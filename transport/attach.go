package transport

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Attacher writes the bearer credential onto outgoing requests. It only reads
// the token store: no network I/O and no session state changes.
type Attacher struct {
	store   *storage.TokenStore
	sources map[token.Track]oauth2.TokenSource
	logger  zerolog.Logger
}

func NewAttacher(store *storage.TokenStore, logger zerolog.Logger) *Attacher {
	a := &Attacher{
		store:   store,
		sources: make(map[token.Track]oauth2.TokenSource, len(token.Tracks)),
		logger:  logger,
	}
	for _, tr := range token.Tracks {
		a.sources[tr] = TokenSource(store, tr)
	}
	return a
}

// Select picks the credential for a request made with ctx: the pinned track if
// WithTrack was used, otherwise the dashboard token, then the public token.
func (a *Attacher) Select(ctx context.Context) (token.Track, *oauth2.Token, bool) {
	if anonymous(ctx) {
		return "", nil, false
	}
	if track, ok := TrackFrom(ctx); ok {
		t, err := a.sources[track].Token()
		if err != nil {
			return "", nil, false
		}
		return track, t, true
	}
	for _, track := range token.Tracks {
		if t, err := a.sources[track].Token(); err == nil {
			return track, t, true
		}
	}
	return "", nil, false
}

// Attach sets Authorization (and a default JSON Content-Type for requests with a
// body) on req, which must already be a private copy. It reports which track's
// token was used; ok is false when none was attached.
func (a *Attacher) Attach(req *http.Request) (track token.Track, access string, ok bool) {
	setContentType(req)
	track, t, ok := a.Select(req.Context())
	if !ok {
		a.logger.Debug().Str("path", req.URL.Path).Msg("no access token available for request")
		return "", "", false
	}
	t.SetAuthHeader(req)
	a.logger.Debug().Str("track", track.String()).Str("path", req.URL.Path).Msg("attached access token")
	return track, t.AccessToken, true
}

// AttachTrack sets the given track's current token, bypassing precedence.
func (a *Attacher) AttachTrack(req *http.Request, track token.Track) bool {
	setContentType(req)
	t, err := a.sources[track].Token()
	if err != nil {
		req.Header.Del("Authorization")
		return false
	}
	t.SetAuthHeader(req)
	return true
}

// Middleware attaches credentials without any refresh handling.
func (a *Attacher) Middleware() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			out := r.Clone(r.Context())
			a.Attach(out)
			return next.RoundTrip(out)
		})
	}
}

func setContentType(req *http.Request) {
	if req.Body == nil || req.Body == http.NoBody {
		return
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
}
