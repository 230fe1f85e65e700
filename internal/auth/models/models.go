package models

import "time"

// User is a directory entry. PasswordHash is a bcrypt hash; plaintext is never stored.
type User struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Session binds a server-side session ID to an identity string and nothing else.
type Session struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is the caller resolved for one request. The zero value is anonymous.
type Identity struct {
	Actor     string
	SessionID string
}

func (i Identity) IsAnonymous() bool {
	return i.Actor == ""
}

// Capability is an action the access gate can grant.
type Capability string

const (
	CapabilityGenerate   Capability = "generate"
	CapabilityAdminister Capability = "administer"
)
