package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSessionExpired is returned when a stored login is past its expiry.
var ErrSessionExpired = errors.New("session expired. Run 'sysop login' again")

// Session is the login state persisted between commands. The role is not
// stored; callers re-read it from the users database.
type Session struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession starts a session for username valid for ttl from now.
func NewSession(username string, now time.Time, ttl time.Duration) Session {
	return Session{Username: username, IssuedAt: now.UTC(), ExpiresAt: now.UTC().Add(ttl)}
}

// Valid reports whether the session has not expired at now.
func (s Session) Valid(now time.Time) bool {
	return s.Username != "" && now.Before(s.ExpiresAt)
}

// SealSession encodes and encrypts a session.
func SealSession(sealer *Sealer, s Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	ct, err := sealer.Seal(data)
	if err != nil {
		return nil, err
	}
	return []byte(ct), nil
}

// OpenSession decrypts a sealed session and checks expiry against now.
func OpenSession(sealer *Sealer, sealed []byte, now time.Time) (Session, error) {
	plaintext, err := sealer.Open(string(sealed))
	if err != nil {
		return Session{}, fmt.Errorf("failed to open session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if !s.Valid(now) {
		return s, ErrSessionExpired
	}
	return s, nil
}
