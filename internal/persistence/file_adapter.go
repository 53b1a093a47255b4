package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cancelflow-be/internal/apperr"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileAdapter keeps one file per collection under a data directory, plus a
// plain-text schema_version file. The directory is process-local and
// single-writer by construction.
type FileAdapter struct {
	dir   string
	codec Codec
}

func NewFileAdapter(dir string, codec Codec) (*FileAdapter, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", apperr.ErrPersistence, err)
	}
	return &FileAdapter{dir: dir, codec: codec}, nil
}

func (a *FileAdapter) path(c Collection) string {
	return filepath.Join(a.dir, string(c)+".db")
}

func (a *FileAdapter) versionPath() string {
	return filepath.Join(a.dir, "schema_version")
}

func (a *FileAdapter) Save(c Collection, records any) error {
	plain, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", apperr.ErrPersistence, c, err)
	}
	sealed, err := a.codec.Seal(plain)
	if err != nil {
		return fmt.Errorf("%w: seal %s: %v", apperr.ErrPersistence, c, err)
	}
	if err := os.WriteFile(a.path(c), sealed, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", apperr.ErrPersistence, c, err)
	}
	return nil
}

func (a *FileAdapter) Load(c Collection, out any) error {
	sealed, err := os.ReadFile(a.path(c))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", apperr.ErrPersistence, c, err)
	}
	plain, err := a.codec.Open(sealed)
	if err != nil {
		return fmt.Errorf("%w: decode %s: %v", apperr.ErrPersistence, c, err)
	}
	if err := json.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("%w: unmarshal %s: %v", apperr.ErrPersistence, c, err)
	}
	return nil
}

// HasData reports whether any record collection has ever been written.
// The version file alone does not count.
func (a *FileAdapter) HasData() bool {
	for _, c := range []Collection{CollectionAccounts, CollectionSubscriptions, CollectionCancellationRecords} {
		if _, err := os.Stat(a.path(c)); err == nil {
			return true
		}
	}
	return false
}

func (a *FileAdapter) Version() string {
	raw, err := os.ReadFile(a.versionPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func (a *FileAdapter) SetVersion(v string) error {
	if err := os.WriteFile(a.versionPath(), []byte(v+"\n"), 0o600); err != nil {
		return fmt.Errorf("%w: write schema version: %v", apperr.ErrPersistence, err)
	}
	return nil
}

func (a *FileAdapter) ClearAll() error {
	collections := []Collection{
		CollectionAccounts,
		CollectionSubscriptions,
		CollectionCancellationRecords,
		CollectionTokenRegistry,
	}
	for _, c := range collections {
		if err := os.Remove(a.path(c)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: remove %s: %v", apperr.ErrPersistence, c, err)
		}
	}
	if err := os.Remove(a.versionPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove schema version: %v", apperr.ErrPersistence, err)
	}
	return nil
}
