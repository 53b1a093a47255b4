package dto

import (
	"time"

	"github.com/google/uuid"
)

type AccountResponse struct {
	Id             uuid.UUID `json:"id"`
	ContactAddress string    `json:"contact_address"`
	CreatedAt      time.Time `json:"created_at"`
}

type SubscriptionResponse struct {
	Id           uuid.UUID `json:"id"`
	Status       string    `json:"status"`
	MonthlyPrice float64   `json:"monthly_price"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BootstrapResponse is returned by POST /api/session/bootstrap. The access
// token authenticates subsequent calls; the replay token is the soft
// reconfirmation barrier echoed on mutating flow calls.
type BootstrapResponse struct {
	AccessToken     string          `json:"access_token"`
	ReplayToken     string          `json:"replay_token"`
	ReplayExpiresAt time.Time       `json:"replay_expires_at"`
	Account         AccountResponse `json:"account"`
}
