package token

import (
	"fmt"
	"strings"
)

// Track is one of the two independently authenticated sessions that can coexist
// in the same client: the public site visitor and the dashboard operator.
type Track string

const (
	// Public is the end-user session (catalog browsing, self-service auth).
	Public Track = "public"
	// Dashboard is the operator session for the management console.
	Dashboard Track = "dashboard"
)

// Tracks lists every track in attachment precedence order (dashboard first).
var Tracks = []Track{Dashboard, Public}

// ParseTrack accepts "public" or "dashboard" (case-insensitive).
func ParseTrack(s string) (Track, error) {
	switch Track(strings.ToLower(strings.TrimSpace(s))) {
	case Public:
		return Public, nil
	case Dashboard:
		return Dashboard, nil
	}
	return "", fmt.Errorf("unknown track %q (want public or dashboard)", s)
}

func (t Track) String() string {
	return string(t)
}

// Kind selects one of a track's two credential slots.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Pair is the credential set issued for a single track.
type Pair struct {
	AccessToken  string
	RefreshToken string // optional; empty when the server did not issue one
}

// Valid reports whether s is usable as a token: a non-empty string after trimming.
func Valid(s string) bool {
	return strings.TrimSpace(s) != ""
}
