// Package mockstorage provides a testify-based mock implementation
// of the storage interface. It is used for unit testing the service and
// HTTP handlers by simulating storage behavior, including misbehaving
// backends that real implementations should never produce.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/strkeeper/internal/models"
	"github.com/patric-chuzhbe/strkeeper/internal/user"
)

// StorageMock is a testify mock that implements the storage interface.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user insertion.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// FindUserByUsername mocks fetching a user by username.
func (m *StorageMock) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByID mocks fetching a user by id.
func (m *StorageMock) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// InsertString mocks inserting a named string.
func (m *StorageMock) InsertString(ctx context.Context, record *models.StringRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// FindString mocks the exact (owner_id, name) lookup.
func (m *StorageMock) FindString(ctx context.Context, ownerID, name string) (*models.StringRecord, bool, error) {
	args := m.Called(ctx, ownerID, name)
	record, _ := args.Get(0).(*models.StringRecord)
	return record, args.Bool(1), args.Error(2)
}

// FindStringsByOwner mocks listing an owner's strings.
func (m *StorageMock) FindStringsByOwner(ctx context.Context, ownerID string) ([]models.StringRecord, error) {
	args := m.Called(ctx, ownerID)
	records, _ := args.Get(0).([]models.StringRecord)
	return records, args.Error(1)
}

// UpsertString mocks the insert-or-replace used by the flag seeding.
func (m *StorageMock) UpsertString(ctx context.Context, record *models.StringRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// GetNumberOfUsers mocks the user counter.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfStrings mocks the string counter.
func (m *StorageMock) GetNumberOfStrings(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
