// Package storage declares the persistence contract shared by every
// database backend.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/strkeeper/internal/models"
	"github.com/patric-chuzhbe/strkeeper/internal/user"
)

// Storage is the full persistence surface of the service. Uniqueness of
// usernames and of (owner_id, name) pairs is the backend's responsibility:
// implementations report a constraint hit as models.ErrConflict instead of
// relying on a racy check-then-insert at the caller.
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) error

	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)

	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)

	InsertString(ctx context.Context, record *models.StringRecord) error

	FindString(ctx context.Context, ownerID, name string) (*models.StringRecord, bool, error)

	FindStringsByOwner(ctx context.Context, ownerID string) ([]models.StringRecord, error)

	UpsertString(ctx context.Context, record *models.StringRecord) error

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfStrings(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
