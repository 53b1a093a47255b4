package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cancelflow-be/internal/persistence"
	"cancelflow-be/internal/pkg/logger"
	"cancelflow-be/internal/store"
)

func newTestSession(t *testing.T) (*Session, *store.Store) {
	t.Helper()
	adapter, err := persistence.NewFileAdapter(t.TempDir(), persistence.PlainCodec{})
	require.NoError(t, err)
	st, err := store.New(adapter, logger.NewNopLogger(), store.Options{})
	require.NoError(t, err)
	return New(st), st
}

func TestAccessorsBeforeInitialize(t *testing.T) {
	sess, _ := newTestSession(t)

	_, err := sess.AccountID()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = sess.ReplayToken()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = sess.Context()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestInitializeIsIdempotent(t *testing.T) {
	sess, st := newTestSession(t)

	first, err := sess.Initialize()
	require.NoError(t, err)

	second, err := sess.Initialize()
	require.NoError(t, err)
	assert.Equal(t, first, second, "re-initializing resolves the same account")
	assert.Equal(t, 1, st.CollectionCounts()["accounts"])
}

func TestInitializeRotatesReplayToken(t *testing.T) {
	sess, st := newTestSession(t)

	_, err := sess.Initialize()
	require.NoError(t, err)
	firstToken, err := sess.ReplayToken()
	require.NoError(t, err)

	_, err = sess.Initialize()
	require.NoError(t, err)
	secondToken, err := sess.ReplayToken()
	require.NoError(t, err)

	assert.NotEqual(t, firstToken.Token, secondToken.Token)
	assert.True(t, st.ValidateReplayToken(secondToken.Token, firstToken.AccountId))
}

func TestContextScopesToOwnAccount(t *testing.T) {
	sess, _ := newTestSession(t)
	id, err := sess.Initialize()
	require.NoError(t, err)

	ctx, err := sess.Context()
	require.NoError(t, err)
	assert.True(t, ctx.IsAuthenticated)
	assert.True(t, ctx.CanAccess(id))
}

func TestClear(t *testing.T) {
	sess, _ := newTestSession(t)
	_, err := sess.Initialize()
	require.NoError(t, err)

	sess.Clear()
	_, err = sess.AccountID()
	assert.ErrorIs(t, err, ErrNoSession)
}
