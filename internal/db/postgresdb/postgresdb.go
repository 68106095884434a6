// Package postgresdb provides a PostgreSQL-based implementation of the
// storage interface for persisting users and their named strings.
// The schema is managed with goose migrations; uniqueness invariants are
// enforced with database constraints.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/strkeeper/internal/models"
	"github.com/patric-chuzhbe/strkeeper/internal/user"
)

// SQLSTATE for unique constraint violations.
const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the storage interface.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables dropping the whole public schema before running
// migrations. It is meant for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("error while `result.resetDB()` calling: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

// CreateUser inserts a new user record. A duplicate username is reported
// as models.ErrConflict via the unique index on users.username.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) error {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)`,
		usr.ID,
		usr.Username,
		usr.PasswordHash,
	)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}

	return err
}

// FindUserByUsername fetches a user by username.
// The boolean result reports whether the user exists.
func (db *PostgresDB) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	return db.findUser(
		ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`,
		username,
	)
}

// FindUserByID fetches a user by their UUID.
// The boolean result reports whether the user exists.
func (db *PostgresDB) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	return db.findUser(
		ctx,
		`SELECT id, username, password_hash FROM users WHERE id = $1`,
		userID,
	)
}

func (db *PostgresDB) findUser(ctx context.Context, query string, arg string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(ctx, query, arg)

	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Username, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return usr, true, nil
}

// InsertString stores a new named string. A duplicate (owner_id, name) pair
// is reported as models.ErrConflict via the unique index on strings.
func (db *PostgresDB) InsertString(ctx context.Context, record *models.StringRecord) error {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO strings (id, owner_id, name, content) VALUES ($1, $2, $3, $4)`,
		record.ID,
		record.OwnerID,
		record.Name,
		record.Content,
	)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}

	return err
}

// FindString fetches the string with the exact (owner_id, name) pair.
// The boolean result reports whether the record exists.
func (db *PostgresDB) FindString(ctx context.Context, ownerID, name string) (*models.StringRecord, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, owner_id, name, content FROM strings WHERE owner_id = $1 AND name = $2`,
		ownerID,
		name,
	)

	record := &models.StringRecord{}
	err := row.Scan(&record.ID, &record.OwnerID, &record.Name, &record.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return record, true, nil
}

// FindStringsByOwner returns every string whose owner_id equals the given
// value. The filter is this single column on purpose; callers re-verify
// ownership of what comes back.
func (db *PostgresDB) FindStringsByOwner(ctx context.Context, ownerID string) ([]models.StringRecord, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, owner_id, name, content FROM strings WHERE owner_id = $1`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.StringRecord{}
	for rows.Next() {
		var record models.StringRecord
		err = rows.Scan(&record.ID, &record.OwnerID, &record.Name, &record.Content)
		if err != nil {
			return nil, err
		}

		result = append(result, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpsertString inserts the record or, when the (owner_id, name) pair already
// exists, replaces its content. Used by the startup flag seeding.
func (db *PostgresDB) UpsertString(ctx context.Context, record *models.StringRecord) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO strings (id, owner_id, name, content)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (owner_id, name) DO UPDATE
				SET content = EXCLUDED.content
		`,
		record.ID,
		record.OwnerID,
		record.Name,
		record.Content,
	)

	return err
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.countRows(ctx, `SELECT COUNT(*) FROM users`)
}

// GetNumberOfStrings returns the total amount of stored strings.
func (db *PostgresDB) GetNumberOfStrings(ctx context.Context) (int64, error) {
	return db.countRows(ctx, `SELECT COUNT(*) FROM strings`)
}

func (db *PostgresDB) countRows(ctx context.Context, query string) (int64, error) {
	row := db.database.QueryRowContext(ctx, query)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf("error while `db.database.ExecContext()` calling: %w", err)
	}
	return nil
}
