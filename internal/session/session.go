// Package session wraps one authenticated interaction with the store. It
// never persists itself: identity is re-derived on every Initialize call.
package session

import (
	"errors"
	"fmt"

	"cancelflow-be/internal/apperr"
	"cancelflow-be/internal/entity"
	"cancelflow-be/internal/store"

	"github.com/google/uuid"
)

// ErrNoSession is returned by accessors before Initialize has run.
var ErrNoSession = errors.New("no active session, call Initialize first")

type Session struct {
	store *store.Store

	accountID   uuid.UUID
	replayToken entity.ReplayToken
	initialized bool
}

func New(s *store.Store) *Session {
	return &Session{store: s}
}

// Initialize resolves (or provisions) the bootstrap account, issues a
// replay token and remembers both as the session identity. Idempotent:
// calling it twice never creates a duplicate account.
func (s *Session) Initialize() (uuid.UUID, error) {
	account, err := s.store.GetAccountByContact(store.SeedContactAddress)
	if errors.Is(err, apperr.ErrNotFound) {
		account, err = s.store.CreateAccount(store.SeedContactAddress)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("session bootstrap: %w", err)
	}

	token, err := s.store.IssueReplayToken(account.Id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session bootstrap: %w", err)
	}

	s.accountID = account.Id
	s.replayToken = token
	s.initialized = true
	return s.accountID, nil
}

func (s *Session) AccountID() (uuid.UUID, error) {
	if !s.initialized {
		return uuid.Nil, ErrNoSession
	}
	return s.accountID, nil
}

func (s *Session) ReplayToken() (entity.ReplayToken, error) {
	if !s.initialized {
		return entity.ReplayToken{}, ErrNoSession
	}
	return s.replayToken, nil
}

// Context derives the access-control context passed to every store call.
func (s *Session) Context() (store.AccessContext, error) {
	if !s.initialized {
		return store.AccessContext{}, ErrNoSession
	}
	return store.AccessContext{CallerAccountID: s.accountID, IsAuthenticated: true}, nil
}

// Clear discards the in-memory identity. No store mutation.
func (s *Session) Clear() {
	s.accountID = uuid.Nil
	s.replayToken = entity.ReplayToken{}
	s.initialized = false
}
