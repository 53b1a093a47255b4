// Package store is the access-controlled record store. It owns the
// accounts, subscriptions and cancellation_records collections plus the
// replay-token registry, and enforces that every read and write is scoped
// to the caller's own account. Every mutation writes the affected
// collection through the persistence adapter before it is committed in
// memory.
package store

import (
	"fmt"
	"time"

	"cancelflow-be/internal/apperr"
	"cancelflow-be/internal/entity"
	"cancelflow-be/internal/experiment"
	"cancelflow-be/internal/persistence"
	"cancelflow-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// SchemaVersion guards the durable layout. A stored version that differs
// triggers a clear-and-reseed; no partial upgrade path is attempted.
const SchemaVersion = "1.0.0"

// SeedContactAddress is the well-known bootstrap identity.
const SeedContactAddress = "user@example.com"

const seedMonthlyPrice = 25

var (
	seedAccountID      = uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")
	seedSubscriptionID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440002")
)

type AssignFunc func(accountID uuid.UUID) entity.ExperimentBucket

type Store struct {
	adapter persistence.Adapter
	log     logger.ILogger
	assign  AssignFunc
	now     func() time.Time

	tokens *tokenRegistry

	accounts      []entity.Account
	subscriptions []entity.Subscription
	cancellations []entity.CancellationRecord
}

// Options tune the store for tests and tooling. Zero values fall back to
// the production defaults.
type Options struct {
	Assign   AssignFunc
	Now      func() time.Time
	TokenTTL time.Duration
}

func New(adapter persistence.Adapter, log logger.ILogger, opts Options) (*Store, error) {
	if opts.Assign == nil {
		opts.Assign = experiment.Assign
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 30 * time.Minute
	}

	s := &Store{
		adapter: adapter,
		log:     log,
		assign:  opts.Assign,
		now:     opts.Now,
		tokens:  newTokenRegistry(opts.TokenTTL),
	}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	if !s.adapter.HasData() {
		s.log.Info("store", "no persistent data found, seeding defaults", nil)
		return s.reseed()
	}

	if v := s.adapter.Version(); v != SchemaVersion {
		s.log.Warn("store", "schema version drift, clearing and reseeding", map[string]interface{}{
			"stored":  v,
			"current": SchemaVersion,
		})
		if err := s.adapter.ClearAll(); err != nil {
			return err
		}
		return s.reseed()
	}

	if err := s.loadAll(); err != nil {
		// Reads fall back to reseeding defaults rather than running with a
		// half-loaded state.
		s.log.Error("store", "load failed, falling back to seed data", map[string]interface{}{
			"error": err.Error(),
		})
		if clearErr := s.adapter.ClearAll(); clearErr != nil {
			return clearErr
		}
		return s.reseed()
	}
	return nil
}

func (s *Store) loadAll() error {
	if err := s.adapter.Load(persistence.CollectionAccounts, &s.accounts); err != nil {
		return err
	}
	if err := s.adapter.Load(persistence.CollectionSubscriptions, &s.subscriptions); err != nil {
		return err
	}
	if err := s.adapter.Load(persistence.CollectionCancellationRecords, &s.cancellations); err != nil {
		return err
	}
	registry := map[string]entity.ReplayToken{}
	if err := s.adapter.Load(persistence.CollectionTokenRegistry, &registry); err != nil {
		return err
	}
	s.tokens.restore(registry, s.now())
	return nil
}

func (s *Store) reseed() error {
	now := s.now()
	s.accounts = []entity.Account{{
		Id:             seedAccountID,
		ContactAddress: SeedContactAddress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}}
	s.subscriptions = []entity.Subscription{{
		Id:           seedSubscriptionID,
		AccountId:    seedAccountID,
		Status:       entity.SubscriptionStatusActive,
		MonthlyPrice: seedMonthlyPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}}
	s.cancellations = nil
	s.tokens.clear()

	if err := s.adapter.Save(persistence.CollectionAccounts, s.accounts); err != nil {
		return err
	}
	if err := s.adapter.Save(persistence.CollectionSubscriptions, s.subscriptions); err != nil {
		return err
	}
	if err := s.adapter.Save(persistence.CollectionCancellationRecords, []entity.CancellationRecord{}); err != nil {
		return err
	}
	if err := s.adapter.Save(persistence.CollectionTokenRegistry, map[string]entity.ReplayToken{}); err != nil {
		return err
	}
	return s.adapter.SetVersion(SchemaVersion)
}

// ---------------------------------------------------------------------------
// Account operations
// ---------------------------------------------------------------------------

func (s *Store) GetAccount(accountID uuid.UUID, ctx AccessContext) (*entity.Account, error) {
	if !ctx.CanAccess(accountID) {
		return nil, fmt.Errorf("%w: cannot access account data", apperr.ErrAccessDenied)
	}
	for i := range s.accounts {
		if s.accounts[i].Id == accountID {
			a := s.accounts[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: account %s", apperr.ErrNotFound, accountID)
}

// GetAccountByContact is the bootstrap lookup used before any session
// exists, so it carries no ownership check.
func (s *Store) GetAccountByContact(contactAddress string) (*entity.Account, error) {
	for i := range s.accounts {
		if s.accounts[i].ContactAddress == contactAddress {
			a := s.accounts[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: account for %s", apperr.ErrNotFound, contactAddress)
}

// CreateAccount provisions the bootstrap account. Check-then-create: a
// second call with the same contact address returns the existing account
// instead of inserting a duplicate.
func (s *Store) CreateAccount(contactAddress string) (*entity.Account, error) {
	if err := validateContactAddress(contactAddress); err != nil {
		return nil, err
	}
	for i := range s.accounts {
		if s.accounts[i].ContactAddress == contactAddress {
			a := s.accounts[i]
			return &a, nil
		}
	}

	now := s.now()
	account := entity.Account{
		Id:             uuid.New(),
		ContactAddress: contactAddress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	staged := append(append([]entity.Account{}, s.accounts...), account)
	if err := s.adapter.Save(persistence.CollectionAccounts, staged); err != nil {
		s.log.Error("store", "failed to persist accounts", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	s.accounts = staged
	return &account, nil
}

// ---------------------------------------------------------------------------
// Subscription operations
// ---------------------------------------------------------------------------

func (s *Store) GetActiveSubscription(accountID uuid.UUID, ctx AccessContext) (*entity.Subscription, error) {
	if !ctx.CanAccess(accountID) {
		return nil, fmt.Errorf("%w: cannot access subscription data", apperr.ErrAccessDenied)
	}
	for i := range s.subscriptions {
		if s.subscriptions[i].AccountId == accountID && s.subscriptions[i].Status == entity.SubscriptionStatusActive {
			sub := s.subscriptions[i]
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("%w: active subscription for account %s", apperr.ErrNotFound, accountID)
}

// SetSubscriptionStatus resolves the subscription, ownership-checks against
// its own accountId and validates the forward transition before persisting.
func (s *Store) SetSubscriptionStatus(subscriptionID uuid.UUID, newStatus entity.SubscriptionStatus, ctx AccessContext) error {
	idx := -1
	for i := range s.subscriptions {
		if s.subscriptions[i].Id == subscriptionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: subscription %s", apperr.ErrNotFound, subscriptionID)
	}
	if !ctx.CanAccess(s.subscriptions[idx].AccountId) {
		return fmt.Errorf("%w: cannot modify subscription", apperr.ErrAccessDenied)
	}
	if !s.subscriptions[idx].Status.CanTransitionTo(newStatus) {
		return apperr.NewValidation("status", fmt.Sprintf(
			"Cannot change subscription status from %s to %s.", s.subscriptions[idx].Status, newStatus))
	}

	staged := append([]entity.Subscription{}, s.subscriptions...)
	staged[idx].Status = newStatus
	staged[idx].UpdatedAt = s.now()
	if err := s.adapter.Save(persistence.CollectionSubscriptions, staged); err != nil {
		s.log.Error("store", "failed to persist subscriptions", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.subscriptions = staged
	return nil
}

// ---------------------------------------------------------------------------
// Cancellation operations
// ---------------------------------------------------------------------------

type CreateCancellationParams struct {
	AccountId        uuid.UUID
	SubscriptionId   uuid.UUID
	Bucket           *entity.ExperimentBucket
	Reason           string
	AcceptedDiscount bool
}

func (s *Store) CreateCancellationRecord(p CreateCancellationParams, ctx AccessContext) (uuid.UUID, error) {
	if !ctx.CanAccess(p.AccountId) {
		return uuid.Nil, fmt.Errorf("%w: cannot create cancellation record", apperr.ErrAccessDenied)
	}
	if err := ValidateReason(p.Reason); err != nil {
		return uuid.Nil, err
	}
	if !s.accountExists(p.AccountId) {
		return uuid.Nil, fmt.Errorf("%w: account %s", apperr.ErrNotFound, p.AccountId)
	}
	if !s.subscriptionExists(p.SubscriptionId) {
		return uuid.Nil, fmt.Errorf("%w: subscription %s", apperr.ErrNotFound, p.SubscriptionId)
	}

	now := s.now()
	record := entity.CancellationRecord{
		Id:               uuid.New(),
		AccountId:        p.AccountId,
		SubscriptionId:   p.SubscriptionId,
		Bucket:           p.Bucket,
		Reason:           p.Reason,
		AcceptedDiscount: p.AcceptedDiscount,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	staged := append(append([]entity.CancellationRecord{}, s.cancellations...), record)
	if err := s.adapter.Save(persistence.CollectionCancellationRecords, staged); err != nil {
		s.log.Error("store", "failed to persist cancellation records", map[string]interface{}{"error": err.Error()})
		return uuid.Nil, err
	}
	s.cancellations = staged
	return record.Id, nil
}

// CancellationByAccount returns the first-found record for the account,
// which is the authoritative one for bucket lookups.
func (s *Store) CancellationByAccount(accountID uuid.UUID, ctx AccessContext) (*entity.CancellationRecord, error) {
	if !ctx.CanAccess(accountID) {
		return nil, fmt.Errorf("%w: cannot access cancellation data", apperr.ErrAccessDenied)
	}
	for i := range s.cancellations {
		if s.cancellations[i].AccountId == accountID {
			rec := s.cancellations[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: cancellation record for account %s", apperr.ErrNotFound, accountID)
}

func (s *Store) UpdateCancellationReason(id uuid.UUID, reason string, ctx AccessContext) error {
	if err := ValidateReason(reason); err != nil {
		return err
	}
	return s.updateCancellation(id, ctx, func(rec *entity.CancellationRecord) {
		rec.Reason = reason
	})
}

func (s *Store) UpdateCancellationDiscountAcceptance(id uuid.UUID, accepted bool, ctx AccessContext) error {
	return s.updateCancellation(id, ctx, func(rec *entity.CancellationRecord) {
		rec.AcceptedDiscount = accepted
	})
}

// updateCancellation ownership-checks against the record's own accountId,
// not the caller's claimed id, so a caller cannot touch someone else's
// record by presenting their own context.
func (s *Store) updateCancellation(id uuid.UUID, ctx AccessContext, mutate func(*entity.CancellationRecord)) error {
	idx := -1
	for i := range s.cancellations {
		if s.cancellations[i].Id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: cancellation record %s", apperr.ErrNotFound, id)
	}
	if !ctx.CanAccess(s.cancellations[idx].AccountId) {
		return fmt.Errorf("%w: cannot modify cancellation record", apperr.ErrAccessDenied)
	}

	staged := append([]entity.CancellationRecord{}, s.cancellations...)
	mutate(&staged[idx])
	staged[idx].UpdatedAt = s.now()
	if err := s.adapter.Save(persistence.CollectionCancellationRecords, staged); err != nil {
		s.log.Error("store", "failed to persist cancellation records", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.cancellations = staged
	return nil
}

// ---------------------------------------------------------------------------
// Experiment bucket
// ---------------------------------------------------------------------------

// ResolveExperimentBucket returns the bucket already attached to the
// account's first cancellation record when there is one (sticky), otherwise
// delegates to the assignment function. It does not persist: the flow
// controller attaches the bucket to the first record it creates.
func (s *Store) ResolveExperimentBucket(accountID uuid.UUID, ctx AccessContext) (entity.ExperimentBucket, error) {
	if !ctx.CanAccess(accountID) {
		return "", fmt.Errorf("%w: cannot access experiment bucket", apperr.ErrAccessDenied)
	}
	for i := range s.cancellations {
		if s.cancellations[i].AccountId == accountID && s.cancellations[i].Bucket != nil {
			return *s.cancellations[i].Bucket, nil
		}
	}
	return s.assign(accountID), nil
}

// ---------------------------------------------------------------------------
// Replay tokens
// ---------------------------------------------------------------------------

func (s *Store) IssueReplayToken(accountID uuid.UUID) (entity.ReplayToken, error) {
	token := s.tokens.issue(accountID, s.now())
	if err := s.adapter.Save(persistence.CollectionTokenRegistry, s.tokens.snapshot(s.now())); err != nil {
		s.log.Error("store", "failed to persist token registry", map[string]interface{}{"error": err.Error()})
		return entity.ReplayToken{}, err
	}
	return token, nil
}

// ValidateReplayToken checks expiry lazily on use.
func (s *Store) ValidateReplayToken(token string, accountID uuid.UUID) bool {
	return s.tokens.validate(token, accountID, s.now())
}

// ---------------------------------------------------------------------------
// Debug / tooling
// ---------------------------------------------------------------------------

func (s *Store) CollectionCounts() map[string]int {
	return map[string]int{
		string(persistence.CollectionAccounts):            len(s.accounts),
		string(persistence.CollectionSubscriptions):       len(s.subscriptions),
		string(persistence.CollectionCancellationRecords): len(s.cancellations),
		string(persistence.CollectionTokenRegistry):       s.tokens.count(),
	}
}

// Reset drops everything and reinstalls the seed pair.
func (s *Store) Reset() error {
	return s.reseed()
}

func (s *Store) accountExists(id uuid.UUID) bool {
	for i := range s.accounts {
		if s.accounts[i].Id == id {
			return true
		}
	}
	return false
}

func (s *Store) subscriptionExists(id uuid.UUID) bool {
	for i := range s.subscriptions {
		if s.subscriptions[i].Id == id {
			return true
		}
	}
	return false
}
