package server

import "time"

// VerifyMode selects how the verify endpoint reports the caller's identity.
type VerifyMode string

const (
	// VerifyHeaders answers with X-User-ID, X-User-Email and X-User-Role and no body.
	VerifyHeaders VerifyMode = "headers"
	// VerifyBody answers with the user as a JSON object.
	VerifyBody VerifyMode = "body"
	// VerifyEmpty answers 200 with neither.
	VerifyEmpty VerifyMode = "empty"
)

// Faults are the failure switches of the fake backend. The zero value of each
// field means normal behaviour.
type Faults struct {
	VerifyMode   VerifyMode
	VerifyStatus int // forces the verify status when non-zero

	RefreshStatus             int           // forces the refresh status when non-zero
	RefreshDelay              time.Duration // delays every refresh response
	RefreshWithoutAccessToken bool          // refresh answers 200 without access_token
	RotateRefreshTokens       bool          // refresh also issues a new refresh token

	LoginWithoutUser    bool // login answers with tokens but no user
	RegisterReturnsUser bool // register answers with the bare created user and no tokens
	FailNextLoginWith   int  // login answers with this status once
}

func (s *Server) SetFaults(f Faults) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if f.VerifyMode == "" {
		f.VerifyMode = VerifyHeaders
	}
	s.faults = f
}

func (s *Server) Faults() Faults {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.faults
}

// UpdateFaults applies fn to the current faults.
func (s *Server) UpdateFaults(fn func(*Faults)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	fn(&s.faults)
	if s.faults.VerifyMode == "" {
		s.faults.VerifyMode = VerifyHeaders
	}
}

// takeLoginFailure consumes FailNextLoginWith.
func (s *Server) takeLoginFailure() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	status := s.faults.FailNextLoginWith
	s.faults.FailNextLoginWith = 0
	return status
}
