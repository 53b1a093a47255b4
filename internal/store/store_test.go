package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cancelflow-be/internal/apperr"
	"cancelflow-be/internal/entity"
	"cancelflow-be/internal/persistence"
	"cancelflow-be/internal/pkg/logger"
)

func newTestStore(t *testing.T, opts Options) (*Store, *persistence.FileAdapter) {
	t.Helper()
	adapter, err := persistence.NewFileAdapter(t.TempDir(), persistence.PlainCodec{})
	require.NoError(t, err)
	s, err := New(adapter, logger.NewNopLogger(), opts)
	require.NoError(t, err)
	return s, adapter
}

func seedContext(s *Store) AccessContext {
	account, _ := s.GetAccountByContact(SeedContactAddress)
	return AccessContext{CallerAccountID: account.Id, IsAuthenticated: true}
}

func TestSeedOnFirstRun(t *testing.T) {
	s, _ := newTestStore(t, Options{})

	counts := s.CollectionCounts()
	assert.Equal(t, 1, counts["accounts"])
	assert.Equal(t, 1, counts["subscriptions"])
	assert.Equal(t, 0, counts["cancellation_records"])

	account, err := s.GetAccountByContact(SeedContactAddress)
	require.NoError(t, err)

	ctx := AccessContext{CallerAccountID: account.Id, IsAuthenticated: true}
	sub, err := s.GetActiveSubscription(account.Id, ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, float64(25), sub.MonthlyPrice)
}

func TestAccessControl(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := seedContext(s)
	owner := ctx.CallerAccountID

	t.Run("unauthenticated caller is denied", func(t *testing.T) {
		anon := AccessContext{CallerAccountID: owner, IsAuthenticated: false}
		_, err := s.GetAccount(owner, anon)
		assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	})

	t.Run("other account cannot read", func(t *testing.T) {
		stranger := AccessContext{CallerAccountID: uuid.New(), IsAuthenticated: true}
		_, err := s.GetAccount(owner, stranger)
		assert.ErrorIs(t, err, apperr.ErrAccessDenied)

		_, err = s.GetActiveSubscription(owner, stranger)
		assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	})

	t.Run("other account cannot write and store stays unchanged", func(t *testing.T) {
		before := s.CollectionCounts()

		stranger := AccessContext{CallerAccountID: uuid.New(), IsAuthenticated: true}
		sub, err := s.GetActiveSubscription(owner, ctx)
		require.NoError(t, err)

		_, err = s.CreateCancellationRecord(CreateCancellationParams{
			AccountId:      owner,
			SubscriptionId: sub.Id,
			Reason:         "No longer needed",
		}, stranger)
		assert.ErrorIs(t, err, apperr.ErrAccessDenied)

		err = s.SetSubscriptionStatus(sub.Id, entity.SubscriptionStatusPendingCancellation, stranger)
		assert.ErrorIs(t, err, apperr.ErrAccessDenied)

		assert.Equal(t, before, s.CollectionCounts())
	})

	t.Run("record update checks the record owner, not the claimed id", func(t *testing.T) {
		sub, err := s.GetActiveSubscription(owner, ctx)
		require.NoError(t, err)
		id, err := s.CreateCancellationRecord(CreateCancellationParams{
			AccountId:      owner,
			SubscriptionId: sub.Id,
			Reason:         "No longer needed",
		}, ctx)
		require.NoError(t, err)

		stranger := AccessContext{CallerAccountID: uuid.New(), IsAuthenticated: true}
		err = s.UpdateCancellationReason(id, "Hijacked", stranger)
		assert.ErrorIs(t, err, apperr.ErrAccessDenied)

		rec, err := s.CancellationByAccount(owner, ctx)
		require.NoError(t, err)
		assert.Equal(t, "No longer needed", rec.Reason)
	})
}

func TestReasonValidation(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := seedContext(s)
	sub, err := s.GetActiveSubscription(ctx.CallerAccountID, ctx)
	require.NoError(t, err)

	tests := []struct {
		name    string
		reason  string
		message string
	}{
		{"empty", "", "Reason is required."},
		{"too long", strings.Repeat("a", 1001), "Must be no more than 1000 characters."},
		{"forbidden characters", "cost: too high", "Invalid characters in reason."},
		{"html", "<script>alert(1)</script>", "Invalid characters in reason."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateCancellationRecord(CreateCancellationParams{
				AccountId:      ctx.CallerAccountID,
				SubscriptionId: sub.Id,
				Reason:         tt.reason,
			}, ctx)
			ve, ok := apperr.AsValidation(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Equal(t, tt.message, ve.Fields["reason"])
		})
	}

	t.Run("boundary lengths pass", func(t *testing.T) {
		for _, reason := range []string{"a", strings.Repeat("a", 1000), "Too expensive, sadly (for now) - bye!?"} {
			_, err := s.CreateCancellationRecord(CreateCancellationParams{
				AccountId:      ctx.CallerAccountID,
				SubscriptionId: sub.Id,
				Reason:         reason,
			}, ctx)
			assert.NoError(t, err)
		}
	})
}

func TestSubscriptionStatusForwardOnly(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := seedContext(s)
	sub, err := s.GetActiveSubscription(ctx.CallerAccountID, ctx)
	require.NoError(t, err)

	require.NoError(t, s.SetSubscriptionStatus(sub.Id, entity.SubscriptionStatusPendingCancellation, ctx))

	err = s.SetSubscriptionStatus(sub.Id, entity.SubscriptionStatusActive, ctx)
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok, "backward transition must be a validation error, got %v", err)

	require.NoError(t, s.SetSubscriptionStatus(sub.Id, entity.SubscriptionStatusCancelled, ctx))

	err = s.SetSubscriptionStatus(sub.Id, entity.SubscriptionStatusPendingCancellation, ctx)
	_, ok = apperr.AsValidation(err)
	assert.True(t, ok, "cancelled is terminal, got %v", err)
}

func TestCreateAccountIdempotent(t *testing.T) {
	s, _ := newTestStore(t, Options{})

	first, err := s.CreateAccount("someone@example.com")
	require.NoError(t, err)
	second, err := s.CreateAccount("someone@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, 2, s.CollectionCounts()["accounts"])

	_, err = s.CreateAccount("not-an-address")
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)
}

func TestExperimentBucketSticky(t *testing.T) {
	assigned := 0
	s, _ := newTestStore(t, Options{
		Assign: func(uuid.UUID) entity.ExperimentBucket { assigned++; return entity.BucketA },
	})
	ctx := seedContext(s)
	sub, err := s.GetActiveSubscription(ctx.CallerAccountID, ctx)
	require.NoError(t, err)

	bucket, err := s.ResolveExperimentBucket(ctx.CallerAccountID, ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.BucketA, bucket)
	assert.Equal(t, 1, assigned)

	// A persisted record with the opposite bucket wins over the assigner.
	b := entity.BucketB
	_, err = s.CreateCancellationRecord(CreateCancellationParams{
		AccountId:      ctx.CallerAccountID,
		SubscriptionId: sub.Id,
		Bucket:         &b,
		Reason:         "Cancel flow opened",
	}, ctx)
	require.NoError(t, err)

	bucket, err = s.ResolveExperimentBucket(ctx.CallerAccountID, ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.BucketB, bucket)
	assert.Equal(t, 1, assigned, "assigner must not be consulted once a record holds a bucket")
}

func TestVersionDriftClearsAndReseeds(t *testing.T) {
	dir := t.TempDir()
	adapter, err := persistence.NewFileAdapter(dir, persistence.PlainCodec{})
	require.NoError(t, err)

	s, err := New(adapter, logger.NewNopLogger(), Options{})
	require.NoError(t, err)
	ctx := seedContext(s)
	sub, err := s.GetActiveSubscription(ctx.CallerAccountID, ctx)
	require.NoError(t, err)
	_, err = s.CreateCancellationRecord(CreateCancellationParams{
		AccountId:      ctx.CallerAccountID,
		SubscriptionId: sub.Id,
		Reason:         "Cancel flow opened",
	}, ctx)
	require.NoError(t, err)

	require.NoError(t, adapter.SetVersion("0.9.0"))

	reopened, err := New(adapter, logger.NewNopLogger(), Options{})
	require.NoError(t, err)
	counts := reopened.CollectionCounts()
	assert.Equal(t, 1, counts["accounts"])
	assert.Equal(t, 0, counts["cancellation_records"])
	assert.Equal(t, SchemaVersion, adapter.Version())
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	adapter, err := persistence.NewFileAdapter(dir, persistence.PlainCodec{})
	require.NoError(t, err)

	s, err := New(adapter, logger.NewNopLogger(), Options{})
	require.NoError(t, err)
	ctx := seedContext(s)
	sub, err := s.GetActiveSubscription(ctx.CallerAccountID, ctx)
	require.NoError(t, err)
	id, err := s.CreateCancellationRecord(CreateCancellationParams{
		AccountId:      ctx.CallerAccountID,
		SubscriptionId: sub.Id,
		Reason:         "Found a new position",
	}, ctx)
	require.NoError(t, err)
	require.NoError(t, s.SetSubscriptionStatus(sub.Id, entity.SubscriptionStatusPendingCancellation, ctx))

	reopened, err := New(adapter, logger.NewNopLogger(), Options{})
	require.NoError(t, err)

	rec, err := reopened.CancellationByAccount(ctx.CallerAccountID, ctx)
	require.NoError(t, err)
	assert.Equal(t, id, rec.Id)
	assert.Equal(t, "Found a new position", rec.Reason)

	_, err = reopened.GetActiveSubscription(ctx.CallerAccountID, ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "pending_cancellation is no longer active")
}

// failingAdapter rejects saves after construction so mutation rollback can
// be observed.
type failingAdapter struct {
	persistence.Adapter
	failSaves bool
}

func (a *failingAdapter) Save(c persistence.Collection, records any) error {
	if a.failSaves {
		return apperr.ErrPersistence
	}
	return a.Adapter.Save(c, records)
}

func TestFailedSaveLeavesMemoryUnchanged(t *testing.T) {
	inner, err := persistence.NewFileAdapter(t.TempDir(), persistence.PlainCodec{})
	require.NoError(t, err)
	adapter := &failingAdapter{Adapter: inner}

	s, err := New(adapter, logger.NewNopLogger(), Options{})
	require.NoError(t, err)
	ctx := seedContext(s)
	sub, err := s.GetActiveSubscription(ctx.CallerAccountID, ctx)
	require.NoError(t, err)

	adapter.failSaves = true

	_, err = s.CreateCancellationRecord(CreateCancellationParams{
		AccountId:      ctx.CallerAccountID,
		SubscriptionId: sub.Id,
		Reason:         "Cancel flow opened",
	}, ctx)
	require.Error(t, err)
	assert.Equal(t, 0, s.CollectionCounts()["cancellation_records"])

	err = s.SetSubscriptionStatus(sub.Id, entity.SubscriptionStatusPendingCancellation, ctx)
	require.Error(t, err)
	sub, err = s.GetActiveSubscription(ctx.CallerAccountID, ctx)
	require.NoError(t, err, "status must still be active after the failed write")
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
}

func TestReplayTokens(t *testing.T) {
	current := time.Now()
	s, _ := newTestStore(t, Options{
		Now:      func() time.Time { return current },
		TokenTTL: 30 * time.Minute,
	})
	ctx := seedContext(s)

	token, err := s.IssueReplayToken(ctx.CallerAccountID)
	require.NoError(t, err)
	assert.Len(t, token.Token, 32)

	assert.True(t, s.ValidateReplayToken(token.Token, ctx.CallerAccountID))
	assert.False(t, s.ValidateReplayToken(token.Token, uuid.New()), "token is bound to its account")
	assert.False(t, s.ValidateReplayToken("unknown", ctx.CallerAccountID))

	current = current.Add(31 * time.Minute)
	assert.False(t, s.ValidateReplayToken(token.Token, ctx.CallerAccountID), "expired on use")
}

func TestResetReinstallsSeeds(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := seedContext(s)
	sub, err := s.GetActiveSubscription(ctx.CallerAccountID, ctx)
	require.NoError(t, err)
	_, err = s.CreateCancellationRecord(CreateCancellationParams{
		AccountId:      ctx.CallerAccountID,
		SubscriptionId: sub.Id,
		Reason:         "Cancel flow opened",
	}, ctx)
	require.NoError(t, err)

	require.NoError(t, s.Reset())

	counts := s.CollectionCounts()
	assert.Equal(t, 1, counts["accounts"])
	assert.Equal(t, 1, counts["subscriptions"])
	assert.Equal(t, 0, counts["cancellation_records"])
	assert.Equal(t, 0, counts["token_registry"])
}

func TestReferentialChecks(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := seedContext(s)

	_, err := s.CreateCancellationRecord(CreateCancellationParams{
		AccountId:      ctx.CallerAccountID,
		SubscriptionId: uuid.New(),
		Reason:         "Cancel flow opened",
	}, ctx)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
