package storage

import (
	"encoding/json"
	"strings"

	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/users"
	"github.com/rs/zerolog"
)

// DefaultPrefix namespaces every key the client writes.
const DefaultPrefix = "asto_lms_"

type slot string

const (
	slotAccess  slot = "accessToken"
	slotRefresh slot = "refreshToken"
	slotUser    slot = "user"
)

// TokenStore persists the credential slots and cached user for both tracks.
//
// Expected conditions never surface as errors: invalid tokens are rejected,
// missing keys read as absent and backend failures are logged. A TokenStore with
// no backend is valid and behaves as permanently empty.
type TokenStore struct {
	backend Backend
	prefix  string
	logger  zerolog.Logger
}

type Option func(*TokenStore)

// WithPrefix overrides DefaultPrefix
func WithPrefix(prefix string) Option {
	return func(s *TokenStore) {
		s.prefix = prefix
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *TokenStore) {
		s.logger = logger.With().Str("component", "token_store").Logger()
	}
}

// New wraps backend. A nil backend yields a store where every operation is a no-op.
func New(backend Backend, options ...Option) *TokenStore {
	s := &TokenStore{
		backend: backend,
		prefix:  DefaultPrefix,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Available reports whether a backend is configured.
func (s *TokenStore) Available() bool {
	return s != nil && s.backend != nil
}

// Key returns the namespaced backend key for a slot, e.g. "asto_lms_dashboard_accessToken".
func (s *TokenStore) Key(track token.Track, kind token.Kind) string {
	if kind == token.Refresh {
		return s.key(track, slotRefresh)
	}
	return s.key(track, slotAccess)
}

func (s *TokenStore) key(track token.Track, sl slot) string {
	if track == token.Dashboard {
		return s.prefix + "dashboard_" + string(sl)
	}
	return s.prefix + string(sl)
}

// Set stores the trimmed token. Empty or whitespace-only values are rejected and
// the previous value, if any, is left untouched.
func (s *TokenStore) Set(track token.Track, kind token.Kind, value string) {
	if !token.Valid(value) {
		s.logger.Debug().Str("track", track.String()).Str("kind", string(kind)).Msg("rejected empty token, not storing")
		return
	}
	trimmed := strings.TrimSpace(value)
	s.write(s.Key(track, kind), trimmed)
	s.logger.Debug().Str("track", track.String()).Str("kind", string(kind)).Int("length", len(trimmed)).Msg("token stored")
}

// Get returns the stored token. A stored value that fails validation is removed
// and reported as absent.
func (s *TokenStore) Get(track token.Track, kind token.Kind) (string, bool) {
	key := s.Key(track, kind)
	value, ok := s.read(key)
	if !ok {
		return "", false
	}
	if !token.Valid(value) {
		s.logger.Warn().Str("track", track.String()).Str("kind", string(kind)).Msg("invalid token found, removing")
		s.delete(key)
		return "", false
	}
	return value, true
}

// Remove deletes one credential slot unconditionally.
func (s *TokenStore) Remove(track token.Track, kind token.Kind) {
	s.delete(s.Key(track, kind))
}

// SetPair stores the access token and, when issued, the refresh token.
func (s *TokenStore) SetPair(track token.Track, pair token.Pair) {
	s.Set(track, token.Access, pair.AccessToken)
	if token.Valid(pair.RefreshToken) {
		s.Set(track, token.Refresh, pair.RefreshToken)
	}
}

// Pair returns whatever credentials are stored for the track.
func (s *TokenStore) Pair(track token.Track) (token.Pair, bool) {
	access, ok := s.Get(track, token.Access)
	if !ok {
		return token.Pair{}, false
	}
	refresh, _ := s.Get(track, token.Refresh)
	return token.Pair{AccessToken: access, RefreshToken: refresh}, true
}

// SetUser writes the cached user snapshot for the track. A nil user removes it.
func (s *TokenStore) SetUser(track token.Track, user *users.User) {
	if user == nil {
		s.RemoveUser(track)
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Error().Err(err).Str("track", track.String()).Msg("failed to encode cached user")
		return
	}
	s.write(s.key(track, slotUser), string(data))
}

// User returns the cached user snapshot. Undecodable snapshots read as absent.
func (s *TokenStore) User(track token.Track) (*users.User, bool) {
	data, ok := s.read(s.key(track, slotUser))
	if !ok {
		return nil, false
	}
	var u users.User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		s.logger.Warn().Err(err).Str("track", track.String()).Msg("cached user is not valid JSON")
		return nil, false
	}
	return &u, true
}

func (s *TokenStore) RemoveUser(track token.Track) {
	s.delete(s.key(track, slotUser))
}

// Clear removes the access token, refresh token and cached user of one track.
// Each delete is attempted regardless of the others' outcome.
func (s *TokenStore) Clear(track token.Track) {
	s.delete(s.key(track, slotAccess))
	s.delete(s.key(track, slotRefresh))
	s.delete(s.key(track, slotUser))
	s.logger.Debug().Str("track", track.String()).Msg("track cleared")
}

func (s *TokenStore) read(key string) (string, bool) {
	if !s.Available() {
		return "", false
	}
	value, ok, err := s.backend.Get(key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("error getting item from storage")
		return "", false
	}
	return value, ok
}

func (s *TokenStore) write(key, value string) {
	if !s.Available() {
		return
	}
	if err := s.backend.Set(key, value); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("error setting item in storage")
	}
}

func (s *TokenStore) delete(key string) {
	if !s.Available() {
		return
	}
	if err := s.backend.Delete(key); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("error removing item from storage")
	}
}
