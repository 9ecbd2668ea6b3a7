package domain

import "time"

// Session represents a server-side authentication session stored in Redis.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Credential is the client-side proof of a session, persisted in the local credential cache.
type Credential struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Credential) IsExpired(reference time.Time) bool {
	if c == nil || c.Token == "" {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !c.ExpiresAt.After(reference)
}
