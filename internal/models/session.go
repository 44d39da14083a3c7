package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Session holds the bearer credential captured from the authorization redirect.
//
// The credential is never refreshed: once ExpiresAt passes the session is invalid
// and the user has to authorize again.
type Session struct {
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
}

// NewSessionFromRedirect builds a Session from the access_token and expires_in (seconds)
// parameters of an implicit grant redirect, relative to now.
func NewSessionFromRedirect(accessToken, expiresIn string, now time.Time) (*Session, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("missing access_token")
	}

	seconds, err := strconv.Atoi(strings.TrimSpace(expiresIn))
	if err != nil {
		return nil, fmt.Errorf("invalid expires_in %q: %w", expiresIn, err)
	}
	if seconds < 0 {
		return nil, fmt.Errorf("invalid expires_in %q: negative", expiresIn)
	}

	return &Session{
		AccessToken: accessToken,
		ExpiresAt:   now.Add(time.Duration(seconds) * time.Second),
	}, nil
}

// Valid reports whether the session has a token whose expiry is strictly after now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" || s.ExpiresAt.IsZero() {
		return false
	}
	return s.ExpiresAt.After(now)
}

// Remaining returns the time left before expiry, or zero when already expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	if !s.Valid(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// Token converts the session into an [oauth2.Token] for use with token-aware transports.
func (s *Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		Expiry:      s.ExpiresAt,
	}
}
