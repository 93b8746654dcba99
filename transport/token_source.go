package transport

import (
	"fmt"

	"github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/token"
	"golang.org/x/oauth2"
)

type storeTokenSource struct {
	store *storage.TokenStore
	track token.Track
}

// TokenSource exposes one track's stored credentials as an oauth2.TokenSource.
// Each call reads the store, so tokens written by a refresh are picked up
// immediately. Expiry is filled in when the access token is a JWT.
func TokenSource(store *storage.TokenStore, track token.Track) oauth2.TokenSource {
	return &storeTokenSource{store: store, track: track}
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	pair, ok := s.store.Pair(s.track)
	if !ok {
		return nil, fmt.Errorf("%s track: %w", s.track, errors.ErrNoSession)
	}
	t := &oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}
	if claims, err := token.Inspect(pair.AccessToken); err == nil {
		t.Expiry = claims.ExpiresAt
	}
	return t, nil
}
