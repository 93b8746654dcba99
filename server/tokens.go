package server

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-lms-client/users"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// Issuer signs and checks the HS256 tokens handed out by the server. Tokens are
// self-contained so sessions survive a restart as long as the secret is stable.
type Issuer struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// tokenClaims mirrors the claims minted by the LMS auth service.
type tokenClaims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	TokenType  string `json:"typ"`
	Generation int64  `json:"gen"`
	jwtlib.RegisteredClaims
}

func NewIssuer(secret string, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret:        []byte(secret),
		accessExpiry:  DefaultAccessTokenExpiry,
		refreshExpiry: DefaultRefreshTokenExpiry,
		now:           now,
	}
}

func (i *Issuer) CreateAccessToken(user *users.User, generation int64) (string, error) {
	return i.sign(user, tokenTypeAccess, i.accessExpiry, generation)
}

func (i *Issuer) CreateRefreshToken(user *users.User) (string, error) {
	return i.sign(user, tokenTypeRefresh, i.refreshExpiry, 0)
}

func (i *Issuer) sign(user *users.User, tokenType string, expiry time.Duration, generation int64) (string, error) {
	now := i.now()
	claims := tokenClaims{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		Status:     string(user.Status),
		TokenType:  tokenType,
		Generation: generation,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(expiry)),
			ID:        uuid.New().String(), // unique even when minted in the same second
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Parse verifies raw and checks it is a token of the given type.
func (i *Issuer) Parse(raw, tokenType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		return i.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("expected %s token, got %q", tokenType, claims.TokenType)
	}
	return claims, nil
}
