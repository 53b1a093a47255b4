package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive              SubscriptionStatus = "active"
	SubscriptionStatusPendingCancellation SubscriptionStatus = "pending_cancellation"
	SubscriptionStatusCancelled           SubscriptionStatus = "cancelled"
)

// Subscription is the billed product attached to an account. Exactly one
// subscription per account is considered active at a time.
type Subscription struct {
	Id           uuid.UUID
	AccountId    uuid.UUID
	Status       SubscriptionStatus
	MonthlyPrice float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanTransitionTo reports whether moving to next is a legal forward step.
// Status is monotone: active -> pending_cancellation -> cancelled.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	switch s {
	case SubscriptionStatusActive:
		return next == SubscriptionStatusPendingCancellation || next == SubscriptionStatusCancelled
	case SubscriptionStatusPendingCancellation:
		return next == SubscriptionStatusCancelled
	default:
		return false
	}
}
