// Package memorystorage reuses the jsondb cache without the backing file.
// It is the storage used in tests and when neither a database DSN nor a
// storage file is configured.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/strkeeper/internal/db/jsondb"
	"github.com/patric-chuzhbe/strkeeper/internal/models"
	"github.com/patric-chuzhbe/strkeeper/internal/user"
)

// MemoryStorage is an in-memory implementation of the storage interface.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty in-memory storage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:          map[string]*user.User{},
				UsernamesToIDs: map[string]string{},
				Strings:        map[string]map[string]*models.StringRecord{},
			},
		},
	}, nil
}

// Close is a no-op: there is nothing to persist.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping always succeeds for the in-memory storage.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
