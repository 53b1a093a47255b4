package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cancelflow-be/internal/apperr"
	"cancelflow-be/internal/entity"
)

func TestFileAdapterRoundTrip(t *testing.T) {
	adapter, err := NewFileAdapter(t.TempDir(), PlainCodec{})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	accounts := []entity.Account{{
		Id:             uuid.New(),
		ContactAddress: "user@example.com",
		CreatedAt:      now,
		UpdatedAt:      now,
	}}
	require.NoError(t, adapter.Save(CollectionAccounts, accounts))

	var loaded []entity.Account
	require.NoError(t, adapter.Load(CollectionAccounts, &loaded))
	require.Len(t, loaded, 1)
	assert.Equal(t, accounts[0].Id, loaded[0].Id)
	assert.Equal(t, accounts[0].ContactAddress, loaded[0].ContactAddress)

	bucket := entity.BucketA
	records := []entity.CancellationRecord{{
		Id:        uuid.New(),
		AccountId: accounts[0].Id,
		Bucket:    &bucket,
		Reason:    "Too expensive",
		CreatedAt: now,
		UpdatedAt: now,
	}}
	require.NoError(t, adapter.Save(CollectionCancellationRecords, records))

	var loadedRecords []entity.CancellationRecord
	require.NoError(t, adapter.Load(CollectionCancellationRecords, &loadedRecords))
	require.Len(t, loadedRecords, 1)
	require.NotNil(t, loadedRecords[0].Bucket)
	assert.Equal(t, entity.BucketA, *loadedRecords[0].Bucket)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	adapter, err := NewFileAdapter(t.TempDir(), PlainCodec{})
	require.NoError(t, err)

	loaded := []entity.Account{{ContactAddress: "sentinel"}}
	require.NoError(t, adapter.Load(CollectionAccounts, &loaded))
	// The destination is untouched when nothing was stored yet.
	require.Len(t, loaded, 1)
	assert.Equal(t, "sentinel", loaded[0].ContactAddress)
}

func TestSealedCodecRoundTrip(t *testing.T) {
	codec, err := NewSealedCodec("secure_db_key_2024")
	require.NoError(t, err)

	plain := []byte(`[{"reason":"Too expensive"}]`)
	sealed, err := codec.Seal(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, sealed)

	opened, err := codec.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)

	t.Run("tampered payload is rejected", func(t *testing.T) {
		sealed[len(sealed)-1] ^= 0xff
		_, err := codec.Open(sealed)
		assert.Error(t, err)
	})

	t.Run("wrong passphrase is rejected", func(t *testing.T) {
		other, err := NewSealedCodec("different_key")
		require.NoError(t, err)
		sealed, err := codec.Seal(plain)
		require.NoError(t, err)
		_, err = other.Open(sealed)
		assert.Error(t, err)
	})
}

func TestSealedFileIsUnreadableOnDisk(t *testing.T) {
	dir := t.TempDir()
	codec, err := NewSealedCodec("secure_db_key_2024")
	require.NoError(t, err)
	adapter, err := NewFileAdapter(dir, codec)
	require.NoError(t, err)

	require.NoError(t, adapter.Save(CollectionAccounts, []entity.Account{{ContactAddress: "user@example.com"}}))

	raw, err := os.ReadFile(filepath.Join(dir, "accounts.db"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "user@example.com")
}

func TestVersionAndClearAll(t *testing.T) {
	adapter, err := NewFileAdapter(t.TempDir(), PlainCodec{})
	require.NoError(t, err)

	assert.Equal(t, "", adapter.Version())
	assert.False(t, adapter.HasData())

	require.NoError(t, adapter.Save(CollectionAccounts, []entity.Account{}))
	require.NoError(t, adapter.SetVersion("1.0.0"))
	assert.True(t, adapter.HasData())
	assert.Equal(t, "1.0.0", adapter.Version())

	require.NoError(t, adapter.ClearAll())
	assert.False(t, adapter.HasData())
	assert.Equal(t, "", adapter.Version())

	// Clearing an already-empty directory is a no-op.
	require.NoError(t, adapter.ClearAll())
}

func TestCorruptFileSurfacesPersistenceError(t *testing.T) {
	dir := t.TempDir()
	codec, err := NewSealedCodec("secure_db_key_2024")
	require.NoError(t, err)
	adapter, err := NewFileAdapter(dir, codec)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.db"), []byte("garbage"), 0o600))

	var out []entity.Account
	err = adapter.Load(CollectionAccounts, &out)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}
