package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-lms-client/internal/utils"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var ErrNotJWT = errors.New("token is not a JWT")

// Claims is the subset of access token claims the client can display.
// Signatures are never checked here; the backend remains the authority on validity.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim is in the past. Tokens without exp never expire.
func (c *Claims) Expired() bool {
	return !c.ExpiresAt.IsZero() && NowTimeFunc().After(c.ExpiresAt)
}

// ExpiresIn is the time remaining until exp, zero when already expired or unknown.
func (c *Claims) ExpiresIn() time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	if d := c.ExpiresAt.Sub(NowTimeFunc()); d > 0 {
		return d
	}
	return 0
}

// Inspect decodes the claims of a raw access token without verifying it.
func Inspect(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != 2 {
		return nil, ErrNotJWT
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	c := &Claims{}
	c.Subject, _ = claims["sub"].(string)
	if c.Subject == "" {
		c.Subject, _ = claims["user_id"].(string)
	}
	c.Email, _ = claims["email"].(string)
	c.Role, _ = claims["role"].(string)
	c.Roles = utils.ClaimStrings(claims["roles"])
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}
