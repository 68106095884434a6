// Package jsondb keeps the whole dataset in memory and persists it into a
// single JSON file on Close. It is the storage fallback for setups without
// a database and the base of the in-memory test storage.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/patric-chuzhbe/strkeeper/internal/models"
	"github.com/patric-chuzhbe/strkeeper/internal/user"
)

// JSONDB is a file-backed implementation of the storage interface.
type JSONDB struct {
	fileName string
	mutex    sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the serialized shape of the dataset.
type CacheStruct struct {
	// Users indexes users by their id.
	Users map[string]*user.User

	// UsernamesToIDs enforces username uniqueness and speeds up login.
	UsernamesToIDs map[string]string

	// Strings holds, per owner id, the records indexed by name, which makes
	// the (owner_id, name) uniqueness check a plain map lookup.
	Strings map[string]map[string]*models.StringRecord
}

func emptyCache() CacheStruct {
	return CacheStruct{
		Users:          map[string]*user.User{},
		UsernamesToIDs: map[string]string{},
		Strings:        map[string]map[string]*models.StringRecord{},
	}
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	emptyJSON, err := json.MarshalIndent(emptyCache(), "", "\t")
	if err != nil {
		return err
	}
	if _, err := dbFile.Write(emptyJSON); err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	return decoder.Decode(cacheMap)
}

// New loads the dataset from fileName, creating an empty one when the file
// does not exist yet.
func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    emptyCache(),
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}

	return &db, nil
}

// CreateUser stores a new user; a taken username yields models.ErrConflict.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, exists := db.Cache.UsernamesToIDs[usr.Username]; exists {
		return models.ErrConflict
	}

	stored := *usr
	db.Cache.Users[usr.ID] = &stored
	db.Cache.UsernamesToIDs[usr.Username] = usr.ID

	return nil
}

// FindUserByUsername fetches a user by username.
func (db *JSONDB) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	userID, found := db.Cache.UsernamesToIDs[username]
	if !found {
		return nil, false, nil
	}

	return db.copyOfUser(userID)
}

// FindUserByID fetches a user by id.
func (db *JSONDB) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return db.copyOfUser(userID)
}

func (db *JSONDB) copyOfUser(userID string) (*user.User, bool, error) {
	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, false, nil
	}

	result := *usr
	return &result, true, nil
}

// InsertString stores a new named string; a duplicate (owner_id, name) pair
// yields models.ErrConflict.
func (db *JSONDB) InsertString(ctx context.Context, record *models.StringRecord) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	ownerStrings, found := db.Cache.Strings[record.OwnerID]
	if !found {
		ownerStrings = map[string]*models.StringRecord{}
		db.Cache.Strings[record.OwnerID] = ownerStrings
	}

	if _, exists := ownerStrings[record.Name]; exists {
		return models.ErrConflict
	}

	stored := *record
	ownerStrings[record.Name] = &stored

	return nil
}

// FindString fetches the record with the exact (owner_id, name) pair.
func (db *JSONDB) FindString(ctx context.Context, ownerID, name string) (*models.StringRecord, bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	record, found := db.Cache.Strings[ownerID][name]
	if !found {
		return nil, false, nil
	}

	result := *record
	return &result, true, nil
}

// FindStringsByOwner returns every record stored under the given owner id.
func (db *JSONDB) FindStringsByOwner(ctx context.Context, ownerID string) ([]models.StringRecord, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	result := []models.StringRecord{}
	for _, record := range db.Cache.Strings[ownerID] {
		result = append(result, *record)
	}

	return result, nil
}

// UpsertString inserts the record or replaces the content of the existing
// record with the same (owner_id, name) pair.
func (db *JSONDB) UpsertString(ctx context.Context, record *models.StringRecord) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	ownerStrings, found := db.Cache.Strings[record.OwnerID]
	if !found {
		ownerStrings = map[string]*models.StringRecord{}
		db.Cache.Strings[record.OwnerID] = ownerStrings
	}

	if existing, exists := ownerStrings[record.Name]; exists {
		existing.Content = record.Content
		return nil
	}

	stored := *record
	ownerStrings[record.Name] = &stored

	return nil
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

// GetNumberOfStrings returns the total amount of stored strings.
func (db *JSONDB) GetNumberOfStrings(ctx context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	var count int64
	for _, ownerStrings := range db.Cache.Strings {
		count += int64(len(ownerStrings))
	}

	return count, nil
}

// Ping always succeeds for the file-backed storage.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close persists the dataset into the backing JSON file.
func (db *JSONDB) Close() error {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
