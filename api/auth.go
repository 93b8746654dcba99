package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-lms-client/internal/cache"
	"github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/internal/utils"
	"github.com/jrsteele09/go-lms-client/internal/validation"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/transport"
	"github.com/jrsteele09/go-lms-client/users"
)

const (
	PathLogin          = "/api/v1/auth/login"
	PathRegister       = "/api/v1/auth/register"
	PathVerify         = "/api/v1/auth/verify"
	PathRefresh        = transport.RefreshPath
	PathForgotPassword = "/api/v1/auth/forgot-password"
	PathVerifyOTP      = "/api/v1/auth/verify-otp"
	PathResetPassword  = "/api/v1/auth/reset-password"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"min=3,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8,max=255"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *users.User `json:"user"`
}

// Validate checks the response can establish a session.
func (r *AuthResponse) Validate() error {
	if r == nil || r.User == nil {
		return errors.Wrapf(errors.ErrResponseShape, "auth response has no user")
	}
	if !token.Valid(r.AccessToken) {
		return errors.Wrapf(errors.ErrResponseShape, "auth response has no access_token")
	}
	if err := r.User.Validate(); err != nil {
		return errors.Wrapf(errors.ErrResponseShape, "auth response user: %v", err)
	}
	return nil
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"len=6"`
}

type VerifyOTPResponse struct {
	IsValid            bool   `json:"is_valid"`
	PasswordResetToken string `json:"password_reset_token,omitempty"`
	ErrorMessage       string `json:"error_message,omitempty"`
}

// UnmarshalJSON also accepts the PascalCase names older auth service builds emit.
func (r *VerifyOTPResponse) UnmarshalJSON(data []byte) error {
	var v struct {
		IsValid            *bool   `json:"is_valid"`
		PasswordResetToken *string `json:"password_reset_token"`
		ErrorMessage       *string `json:"error_message"`
		LegacyValid        *bool   `json:"IsValid"`
		LegacyToken        *string `json:"PasswordResetToken"`
		LegacyError        *string `json:"ErrorMessage"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = VerifyOTPResponse{
		IsValid:            utils.Value(first(v.IsValid, v.LegacyValid)),
		PasswordResetToken: utils.Value(first(v.PasswordResetToken, v.LegacyToken)),
		ErrorMessage:       utils.Value(first(v.ErrorMessage, v.LegacyError)),
	}
	return nil
}

func first[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"notblank"`
	NewPassword string `json:"new_password" validate:"min=8,max=255"`
}

// VerifyResult is the raw verify response. The backend reports identity either
// in X-User-* headers or as a JSON user body.
type VerifyResult struct {
	Header http.Header
	Body   json.RawMessage
}

// Login never sends stored credentials, and a 401 is reported as-is.
func (c *Client) Login(ctx context.Context, in LoginRequest) (*AuthResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out AuthResponse
	err := c.mutate(transport.WithoutCredentials(ctx), http.MethodPost, PathLogin, in, &out,
		cache.List(cache.TagAuth), cache.List(cache.TagUser))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register returns the session issued with the new account. Backends that only
// return the created user yield an AuthResponse with an empty AccessToken.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	err := c.mutate(transport.WithoutCredentials(ctx), http.MethodPost, PathRegister, in, &raw,
		cache.List(cache.TagAuth), cache.List(cache.TagUser))
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := decodeInto(raw, &out); err != nil {
		return nil, err
	}
	if out.User == nil && out.AccessToken == "" {
		var u users.User
		if err := decodeInto(raw, &u); err != nil {
			return nil, err
		}
		if u.ID != "" {
			out.User = &u
		}
	}
	return &out, nil
}

// Verify asks the backend whether the current token is still accepted. Use
// transport.WithTrack on ctx to check a specific track's token.
func (c *Client) Verify(ctx context.Context) (*VerifyResult, error) {
	var raw json.RawMessage
	header, err := c.do(ctx, request{method: http.MethodGet, path: PathVerify}, &raw)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Header: header, Body: raw}, nil
}

// RefreshToken calls the refresh endpoint directly and stores nothing. Use
// auth.Service.RefreshToken to keep the new pair, or rely on the transport
// refreshing automatically.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	var out RefreshResponse
	in := map[string]string{"refresh_token": refreshToken}
	if err := c.mutate(transport.WithoutCredentials(ctx), http.MethodPost, PathRefresh, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, in ForgotPasswordRequest) (*Message, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out Message
	if err := c.mutate(transport.WithoutCredentials(ctx), http.MethodPost, PathForgotPassword, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, in VerifyOTPRequest) (*VerifyOTPResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out VerifyOTPResponse
	if err := c.mutate(transport.WithoutCredentials(ctx), http.MethodPost, PathVerifyOTP, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetPassword(ctx context.Context, in ResetPasswordRequest) (*Message, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out Message
	if err := c.mutate(transport.WithoutCredentials(ctx), http.MethodPost, PathResetPassword, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
