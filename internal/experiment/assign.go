// Package experiment assigns accounts to the downsell A/B buckets.
// Assignment is pure with respect to durable state: stickiness comes from
// the record store's first-record-wins lookup, not from anything here.
package experiment

import (
	"crypto/rand"
	"hash/fnv"

	"cancelflow-be/internal/entity"

	"github.com/google/uuid"
)

// Assign draws a uniform byte from the strong random source and splits it
// down the middle for a ~50/50 distribution. When the source fails it falls
// back to StableBucket so the same account keeps getting the same bucket
// for the rest of the session.
func Assign(accountID uuid.UUID) entity.ExperimentBucket {
	var b [1]byte
	if _, err := rand.Read(b[:]); err == nil {
		if b[0] < 128 {
			return entity.BucketA
		}
		return entity.BucketB
	}
	return StableBucket(accountID)
}

// StableBucket hashes the account id and reduces mod 2. Deterministic: the
// same id always lands in the same bucket.
func StableBucket(accountID uuid.UUID) entity.ExperimentBucket {
	h := fnv.New32a()
	h.Write([]byte(accountID.String()))
	if h.Sum32()%2 == 0 {
		return entity.BucketA
	}
	return entity.BucketB
}
