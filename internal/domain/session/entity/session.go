package entity

import (
	"errors"
	"time"
)

// Domain errors for sessions
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidState       = errors.New("invalid or expired oauth state")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrOAuthNotConfigured = errors.New("threads oauth client is not configured")
)

// Session is an authenticated dashboard session carrying the user's Threads access token
type Session struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	Name              string    `json:"name,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	AccessToken       string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is no longer valid at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
