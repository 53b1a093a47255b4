package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReplayToken is a soft reconfirmation barrier issued at session bootstrap.
// It lives only for the lifetime of a session and is checked lazily for
// expiry on next use; it is not a security boundary.
type ReplayToken struct {
	Token     string
	AccountId uuid.UUID
	ExpiresAt time.Time
}

func (t ReplayToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
