package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExperimentBucket is the downsell A/B assignment. Bucket A sees the
// downsell step, bucket B skips it.
type ExperimentBucket string

const (
	BucketA ExperimentBucket = "A"
	BucketB ExperimentBucket = "B"
)

// CancellationRecord captures one pass through the cancellation interview.
// The first record carrying a bucket is authoritative for bucket lookups.
type CancellationRecord struct {
	Id               uuid.UUID
	AccountId        uuid.UUID
	SubscriptionId   uuid.UUID
	Bucket           *ExperimentBucket
	Reason           string
	AcceptedDiscount bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
