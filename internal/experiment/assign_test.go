package experiment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"cancelflow-be/internal/entity"
)

func TestAssignReturnsValidBucket(t *testing.T) {
	seen := map[entity.ExperimentBucket]bool{}
	for i := 0; i < 256; i++ {
		b := Assign(uuid.New())
		assert.Contains(t, []entity.ExperimentBucket{entity.BucketA, entity.BucketB}, b)
		seen[b] = true
	}
	// 256 draws landing all on one side would be a broken split.
	assert.True(t, seen[entity.BucketA])
	assert.True(t, seen[entity.BucketB])
}

func TestStableBucketIsDeterministic(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")
	first := StableBucket(id)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, StableBucket(id))
	}

	other := uuid.New()
	assert.Equal(t, StableBucket(other), StableBucket(other))
}
