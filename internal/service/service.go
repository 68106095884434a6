// Package service implements the business logic of the string keeper:
// credential handling, the session-scoped access control over stored
// strings, and the startup seeding of the system-owned flag string.
package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/strkeeper/internal/models"
	"github.com/patric-chuzhbe/strkeeper/internal/session"
	"github.com/patric-chuzhbe/strkeeper/internal/user"
)

// SentinelOwnerID owns system records such as the flag string. Registered
// users always get UUID ids, so "0" is never assignable through registration.
const SentinelOwnerID = "0"

// FlagStringName is the name of the seeded system string.
const FlagStringName = "flag"

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) error
	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)
	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

type stringsKeeper interface {
	InsertString(ctx context.Context, record *models.StringRecord) error
	FindString(ctx context.Context, ownerID, name string) (*models.StringRecord, bool, error)
	FindStringsByOwner(ctx context.Context, ownerID string) ([]models.StringRecord, error)
	UpsertString(ctx context.Context, record *models.StringRecord) error
}

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)
	GetNumberOfStrings(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	stringsKeeper
	statsKeeper
	pinger
}

// Service holds the injected storage handle. It is constructed once at
// process start and passed into every handler; there is no package-level
// state.
type Service struct {
	db storage
}

// New creates a Service over the given storage.
func New(db storage) *Service {
	return &Service{db: db}
}

// Register stores a new user with a bcrypt hash of the password and returns
// the generated user id. Empty fields yield models.ErrInvalidInput; a taken
// username surfaces as models.ErrConflict from the storage's unique index.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", models.ErrInvalidInput
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	usr := &user.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(passwordHash),
	}

	if err := s.db.CreateUser(ctx, usr); err != nil {
		return "", err
	}

	return usr.ID, nil
}

// Login verifies the credentials and returns the user id. An unknown
// username and a failed hash verification are indistinguishable to the
// caller: both yield models.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	usr, found, err := s.db.FindUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if !found {
		return "", models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return usr.ID, nil
}

// RequireAuthenticated returns the session's user_id attribute. The mere
// existence of a session object never satisfies the check: only a non-empty
// user_id attribute does.
func (s *Service) RequireAuthenticated(sess *session.Session) (string, error) {
	userID, ok := sess.Get(session.UserIDAttribute)
	if !ok || userID == "" {
		return "", models.ErrUnauthenticated
	}

	return userID, nil
}

// CreateString stores a new named string owned by the session's user.
func (s *Service) CreateString(
	ctx context.Context,
	sess *session.Session,
	name, content string,
) (*models.StringRecord, error) {
	userID, err := s.RequireAuthenticated(sess)
	if err != nil {
		return nil, err
	}

	if name == "" || content == "" {
		return nil, models.ErrInvalidInput
	}

	record := &models.StringRecord{
		ID:      uuid.New().String(),
		OwnerID: userID,
		Name:    name,
		Content: content,
	}

	if err := s.db.InsertString(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// GetString looks up the string by the exact (owner_id, name) pair of the
// session's user.
func (s *Service) GetString(
	ctx context.Context,
	sess *session.Session,
	name string,
) (*models.StringRecord, error) {
	userID, err := s.RequireAuthenticated(sess)
	if err != nil {
		return nil, err
	}

	record, found, err := s.db.FindString(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}

	return record, nil
}

// ListStrings returns every string owned by the session's user. The storage
// is queried by the user id alone, and every returned record's owner is then
// verified against the caller: a single mismatch fails the whole call with
// models.ErrOwnershipViolation instead of leaking the record.
func (s *Service) ListStrings(ctx context.Context, sess *session.Session) ([]models.StringRecord, error) {
	userID, err := s.RequireAuthenticated(sess)
	if err != nil {
		return nil, err
	}

	records, err := s.db.FindStringsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if record.OwnerID != userID {
			return nil, models.ErrOwnershipViolation
		}
	}

	return records, nil
}

// GetProfile joins the session's user id against the credential store.
func (s *Service) GetProfile(ctx context.Context, sess *session.Session) (models.Profile, error) {
	userID, err := s.RequireAuthenticated(sess)
	if err != nil {
		return models.Profile{}, err
	}

	usr, found, err := s.db.FindUserByID(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	if !found {
		return models.Profile{}, models.ErrNotFound
	}

	return models.Profile{
		UserID:   usr.ID,
		Username: usr.Username,
	}, nil
}

// SeedFlag upserts the system-owned flag string. It runs once at process
// start, before the service accepts traffic, and is idempotent: re-running
// it only refreshes the content.
func (s *Service) SeedFlag(ctx context.Context, flagValue string) error {
	return s.db.UpsertString(ctx, &models.StringRecord{
		ID:      uuid.New().String(),
		OwnerID: SentinelOwnerID,
		Name:    FlagStringName,
		Content: flagValue,
	})
}

// Stats returns the total numbers of users and stored strings.
func (s *Service) Stats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	strings, err := s.db.GetNumberOfStrings(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users:   users,
		Strings: strings,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
