package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account is the owner of a subscription. Created once per session bootstrap
// if absent; immutable afterwards except UpdatedAt.
type Account struct {
	Id             uuid.UUID
	ContactAddress string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
