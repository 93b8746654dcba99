package transport

import (
	"context"

	"github.com/jrsteele09/go-lms-client/token"
)

type contextKey int

const (
	trackKey contextKey = iota
	anonymousKey
)

// WithTrack pins the credential used for requests made with ctx to one track,
// overriding the dashboard-first precedence.
func WithTrack(ctx context.Context, track token.Track) context.Context {
	return context.WithValue(ctx, trackKey, track)
}

// WithoutCredentials marks requests made with ctx as anonymous: no Authorization
// header is attached and a 401 never triggers a refresh.
func WithoutCredentials(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey, true)
}

// TrackFrom returns the track pinned by WithTrack.
func TrackFrom(ctx context.Context) (token.Track, bool) {
	track, ok := ctx.Value(trackKey).(token.Track)
	return track, ok
}

func anonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey).(bool)
	return v
}
