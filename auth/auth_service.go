package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-lms-client/api"
	lmserrors "github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/sessions"
	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/transport"
	"github.com/jrsteele09/go-lms-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Service runs the sign-in, sign-up, verification and sign-out flows for a
// track. It is the only writer of session state: every flow either completes
// all of its store and slice writes or none of them.
type Service struct {
	api        *api.Client
	store      *storage.TokenStore
	slice      *sessions.Slice
	extractors []IdentityExtractor
	logger     zerolog.Logger
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger.With().Str("component", "auth").Logger()
	}
}

// WithIdentityExtractors replaces the ordered verify strategies.
func WithIdentityExtractors(extractors ...IdentityExtractor) ServiceOption {
	return func(s *Service) {
		s.extractors = extractors
	}
}

// NewService wires the use-cases to their collaborators. The slice must have
// been built from the same store.
func NewService(client *api.Client, store *storage.TokenStore, slice *sessions.Slice, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] api client is required")
	}
	if store == nil {
		return nil, errors.New("[NewService] token store is required")
	}
	if slice == nil {
		return nil, errors.New("[NewService] session slice is required")
	}

	s := &Service{
		api:     client,
		store:   store,
		slice:   slice,
		logger:  zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.extractors == nil {
		s.extractors = DefaultIdentityExtractors(s.nowTime)
	}
	return s, nil
}

// State returns the track's current session state.
func (s *Service) State(track token.Track) sessions.State {
	return s.slice.Get(track)
}

// Login signs the track in. On failure the store and state are left as they
// were, apart from the loading flag.
func (s *Service) Login(ctx context.Context, track token.Track, creds api.LoginRequest) (*users.User, error) {
	s.slice.SetLoading(track, true)

	resp, err := s.api.Login(ctx, creds)
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		s.slice.SetLoading(track, false)
		s.logger.Debug().Err(err).Str("track", track.String()).Msg("login failed")
		return nil, errors.Wrap(err, "[Service.Login]")
	}

	s.establish(track, resp)
	s.logger.Info().Str("track", track.String()).Str("user_id", resp.User.ID).Msg("signed in")
	return resp.User.Clone(), nil
}

// Register creates an account and signs the track in with the session the
// backend issues. A backend that answers with only the created user leaves the
// track signed out; the user is returned so the caller can prompt a login.
func (s *Service) Register(ctx context.Context, track token.Track, data api.RegisterRequest) (*users.User, error) {
	s.slice.SetLoading(track, true)

	resp, err := s.api.Register(ctx, data)
	if err == nil && resp.User != nil && resp.AccessToken == "" && resp.RefreshToken == "" {
		if err = resp.User.Validate(); err == nil {
			s.slice.SetLoading(track, false)
			s.logger.Info().Str("track", track.String()).Str("user_id", resp.User.ID).Msg("registered, sign in required")
			return resp.User.Clone(), nil
		}
		err = errors.Wrapf(lmserrors.ErrResponseShape, "register response user: %v", err)
	}
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		s.slice.SetLoading(track, false)
		s.logger.Debug().Err(err).Str("track", track.String()).Msg("register failed")
		return nil, errors.Wrap(err, "[Service.Register]")
	}

	s.establish(track, resp)
	s.logger.Info().Str("track", track.String()).Str("user_id", resp.User.ID).Msg("registered and signed in")
	return resp.User.Clone(), nil
}

// establish writes a validated session: store first, then state.
func (s *Service) establish(track token.Track, resp *api.AuthResponse) {
	s.slice.Establish(track, token.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, resp.User)
	s.api.ResetCache()
}

// Verify asks the backend whether the track's access token is still accepted
// and refreshes the cached user from the answer. A 401 or 403 signs the track
// out. Without a stored access token no request is made.
func (s *Service) Verify(ctx context.Context, track token.Track) (*users.User, error) {
	if _, ok := s.store.Get(track, token.Access); !ok {
		return nil, errors.Wrapf(lmserrors.ErrNoSession, "[Service.Verify] %s", track)
	}
	s.slice.SetLoading(track, true)

	result, err := s.api.Verify(transport.WithTrack(ctx, track))
	if err != nil {
		if errors.Is(err, lmserrors.ErrUnauthorized) || errors.Is(err, lmserrors.ErrForbidden) {
			s.slice.Clear(track)
			s.api.ResetCache()
			s.logger.Info().Str("track", track.String()).Int("status", lmserrors.StatusCode(err)).Msg("verification rejected, signed out")
		} else {
			s.slice.SetLoading(track, false)
		}
		return nil, errors.Wrap(err, "[Service.Verify]")
	}

	user, ok := s.identify(result)
	if !ok {
		s.slice.SetLoading(track, false)
		return nil, errors.Wrap(lmserrors.ErrResponseShape, "[Service.Verify] no user data found in headers or body")
	}

	s.store.SetUser(track, user)
	s.slice.SetUser(track, user)
	s.slice.SetLoading(track, false)
	return user.Clone(), nil
}

func (s *Service) identify(result *api.VerifyResult) (*users.User, bool) {
	for _, extract := range s.extractors {
		if user, ok := extract.Extract(result); ok {
			s.logger.Debug().Str("strategy", extract.Name()).Msg("identity extracted")
			return user, true
		}
	}
	return nil, false
}

// Logout signs the track out locally. It is safe to call when already signed out.
func (s *Service) Logout(track token.Track) {
	s.slice.Clear(track)
	s.api.ResetCache()
	s.logger.Info().Str("track", track.String()).Msg("signed out")
}

// RefreshToken exchanges refreshToken outside the automatic refresh and stores
// the new credentials on the track that holds it. Requests that 401 refresh
// through the transport; this is for callers that rotate tokens explicitly.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (token.Track, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	resp, err := s.api.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", errors.Wrap(err, "[Service.RefreshToken]")
	}
	if !token.Valid(resp.AccessToken) {
		return "", errors.Wrap(lmserrors.ErrResponseShape, "[Service.RefreshToken] no access_token")
	}
	for _, track := range token.Tracks {
		if current, ok := s.store.Get(track, token.Refresh); ok && current == refreshToken {
			s.store.SetPair(track, token.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
			s.logger.Info().Str("track", track.String()).Msg("access token refreshed")
			return track, nil
		}
	}
	return "", errors.Wrap(lmserrors.ErrNoSession, "[Service.RefreshToken] no track holds the refresh token")
}

// ForgotPassword starts the OTP password reset flow.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	resp, err := s.api.ForgotPassword(ctx, api.ForgotPasswordRequest{Email: email})
	if err != nil {
		return "", errors.Wrap(err, "[Service.ForgotPassword]")
	}
	return resp.Message, nil
}

// VerifyOTP exchanges the emailed code for a password reset token.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	resp, err := s.api.VerifyOTP(ctx, api.VerifyOTPRequest{Email: email, OTP: otp})
	if err != nil {
		return "", errors.Wrap(err, "[Service.VerifyOTP]")
	}
	if !resp.IsValid || resp.PasswordResetToken == "" {
		msg := resp.ErrorMessage
		if msg == "" {
			msg = "invalid OTP"
		}
		return "", errors.Wrap(&lmserrors.APIError{Status: http.StatusBadRequest, Message: msg}, "[Service.VerifyOTP]")
	}
	return resp.PasswordResetToken, nil
}

func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error) {
	resp, err := s.api.ResetPassword(ctx, api.ResetPasswordRequest{Token: resetToken, NewPassword: newPassword})
	if err != nil {
		return "", errors.Wrap(err, "[Service.ResetPassword]")
	}
	return resp.Message, nil
}
