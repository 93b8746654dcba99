package auth

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/jrsteele09/go-lms-client/api"
	"github.com/jrsteele09/go-lms-client/users"
)

// Identity headers set by the gateway on a successful verify.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

// IdentityExtractor is one way of reading the verified user from a verify
// response. Extractors are tried in order until one succeeds.
type IdentityExtractor interface {
	Name() string
	Extract(result *api.VerifyResult) (*users.User, bool)
}

// DefaultIdentityExtractors is the verify contract: identity headers first,
// then a JSON user body.
func DefaultIdentityExtractors(now func() time.Time) []IdentityExtractor {
	return []IdentityExtractor{HeaderExtractor{NowTime: now}, BodyExtractor{}}
}

// HeaderExtractor builds the user from X-User-ID, X-User-Email and X-User-Role.
// All three must be present. The headers carry no profile, so the username is
// the local part of the email and the account is taken as active and verified.
type HeaderExtractor struct {
	NowTime func() time.Time
}

func (HeaderExtractor) Name() string {
	return "headers"
}

func (h HeaderExtractor) Extract(result *api.VerifyResult) (*users.User, bool) {
	if result == nil || result.Header == nil {
		return nil, false
	}
	id := strings.TrimSpace(result.Header.Get(HeaderUserID))
	email := strings.TrimSpace(result.Header.Get(HeaderUserEmail))
	role := strings.TrimSpace(result.Header.Get(HeaderUserRole))
	if id == "" || email == "" || role == "" {
		return nil, false
	}

	now := time.Now
	if h.NowTime != nil {
		now = h.NowTime
	}
	ts := now().UTC()
	user := &users.User{
		ID:            id,
		Username:      strings.SplitN(email, "@", 2)[0],
		Email:         email,
		Role:          users.RoleType(role),
		Status:        users.StatusActive,
		EmailVerified: true,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if user.Validate() != nil {
		return nil, false
	}
	return user, true
}

// BodyExtractor decodes a non-empty JSON object body as the user.
type BodyExtractor struct{}

func (BodyExtractor) Name() string {
	return "body"
}

func (BodyExtractor) Extract(result *api.VerifyResult) (*users.User, bool) {
	if result == nil {
		return nil, false
	}
	body := bytes.TrimSpace(result.Body)
	if len(body) == 0 || body[0] != '{' || bytes.Equal(body, []byte("{}")) {
		return nil, false
	}

	var user users.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, false
	}
	if user.Validate() != nil {
		return nil, false
	}
	return &user, true
}
