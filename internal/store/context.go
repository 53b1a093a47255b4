package store

import "github.com/google/uuid"

// AccessContext scopes every store call to the caller's own account. It
// protects against programmer error and casual tampering within a single
// client, not a hostile multi-tenant backend.
type AccessContext struct {
	CallerAccountID uuid.UUID
	IsAuthenticated bool
}

// CanAccess is the owner-only policy applied to reads and mutations alike.
func (c AccessContext) CanAccess(ownerID uuid.UUID) bool {
	return c.IsAuthenticated && c.CallerAccountID == ownerID
}
