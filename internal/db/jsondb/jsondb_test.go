package jsondb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/strkeeper/internal/models"
	"github.com/patric-chuzhbe/strkeeper/internal/user"
)

func newTestDB(t *testing.T) (*JSONDB, string) {
	t.Helper()

	fileName := filepath.Join(t.TempDir(), "strkeeper_test.json")
	db, err := New(fileName)
	require.NoError(t, err)

	return db, fileName
}

func TestCreateUserAndFind(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &user.User{
		ID:           "id-1",
		Username:     "alice",
		PasswordHash: "hash",
	}))

	byName, found, err := db.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "id-1", byName.ID)

	byID, found, err := db.FindUserByID(ctx, "id-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", byID.Username)

	_, found, err = db.FindUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateUserDuplicateUsernameConflicts(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &user.User{ID: "id-1", Username: "alice"}))

	err := db.CreateUser(ctx, &user.User{ID: "id-2", Username: "alice"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestInsertStringDuplicatePairConflicts(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "1", OwnerID: "owner-a", Name: "note", Content: "first",
	}))

	err := db.InsertString(ctx, &models.StringRecord{
		ID: "2", OwnerID: "owner-a", Name: "note", Content: "second",
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	// The same name under another owner is a distinct pair.
	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "3", OwnerID: "owner-b", Name: "note", Content: "third",
	}))
}

func TestFindStringMatchesExactPair(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "1", OwnerID: "owner-a", Name: "note", Content: "hello",
	}))

	record, found, err := db.FindString(ctx, "owner-a", "note")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", record.Content)

	_, found, err = db.FindString(ctx, "owner-b", "note")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = db.FindString(ctx, "owner-a", "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindStringsByOwnerFiltersByOwner(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "1", OwnerID: "owner-a", Name: "note", Content: "a1",
	}))
	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "2", OwnerID: "owner-a", Name: "other", Content: "a2",
	}))
	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "3", OwnerID: "owner-b", Name: "note", Content: "b1",
	}))

	records, err := db.FindStringsByOwner(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, "owner-a", record.OwnerID)
	}

	records, err = db.FindStringsByOwner(ctx, "owner-without-strings")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpsertStringReplacesContent(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertString(ctx, &models.StringRecord{
		ID: "1", OwnerID: "0", Name: "flag", Content: "old",
	}))
	require.NoError(t, db.UpsertString(ctx, &models.StringRecord{
		ID: "2", OwnerID: "0", Name: "flag", Content: "new",
	}))

	record, found, err := db.FindString(ctx, "0", "flag")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", record.Content)

	count, err := db.GetNumberOfStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "1", OwnerID: "owner-a", Name: "note", Content: "hello",
	}))

	record, _, err := db.FindString(ctx, "owner-a", "note")
	require.NoError(t, err)
	record.Content = "mutated"

	again, _, err := db.FindString(ctx, "owner-a", "note")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Content)
}

func TestCounts(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &user.User{ID: "id-1", Username: "alice"}))
	require.NoError(t, db.CreateUser(ctx, &user.User{ID: "id-2", Username: "bob"}))
	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "1", OwnerID: "id-1", Name: "note", Content: "hello",
	}))

	users, err := db.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), users)

	strings, err := db.GetNumberOfStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), strings)
}

func TestCloseThenReopenKeepsData(t *testing.T) {
	db, fileName := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &user.User{
		ID:           "id-1",
		Username:     "alice",
		PasswordHash: "hash",
	}))
	require.NoError(t, db.InsertString(ctx, &models.StringRecord{
		ID: "1", OwnerID: "id-1", Name: "note", Content: "hello",
	}))
	require.NoError(t, db.Close())

	reopened, err := New(fileName)
	require.NoError(t, err)

	usr, found, err := reopened.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hash", usr.PasswordHash)

	record, found, err := reopened.FindString(ctx, "id-1", "note")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", record.Content)
}
