package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/infra/logging"
)

// SQLiteSessionRepositoryConfig holds configuration for the SQLite session repository.
type SQLiteSessionRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/sweetshop.db"`
}

// SQLiteSessionRepository implements Repository using SQLite as the storage backend.
type SQLiteSessionRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteSessionRepository)(nil)

// SQLiteSessionRepositoryFactory creates a factory function that returns a new SQLiteSessionRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteSessionRepositoryFactory(cfg SQLiteSessionRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteSessionRepository(cfg)
	}
}

// NewSQLiteSessionRepository creates a new SQLiteSessionRepository with the given configuration.
// It creates the parent directory, opens the database and creates the schema if needed.
func NewSQLiteSessionRepository(cfg SQLiteSessionRepositoryConfig) (*SQLiteSessionRepository, error) {
	log := logging.GetLogger("repo.session.sqlite_session_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(db); err != nil {
		db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()

		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteSessionRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sql.DB) (err error) {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session_values (
			key        TEXT    PRIMARY KEY,
			value      TEXT    NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Get implements Repository.Get using SQLite.
func (r *SQLiteSessionRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM session_values WHERE key = ?",
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("query value: %w", classify(err))
	}

	return value, true, nil
}

// Store implements Repository.Store using SQLite.
func (r *SQLiteSessionRepository) Store(ctx context.Context, values map[string]string) (err error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "store values failed", "error", err)
		} else {
			r.log.DebugContext(ctx, "values stored", "count", len(values))
		}
	}()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().Unix()

	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO session_values (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value, now); err != nil {
			return fmt.Errorf("upsert %s: %w", key, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}

	return nil
}

// Delete implements Repository.Delete using SQLite.
func (r *SQLiteSessionRepository) Delete(ctx context.Context, keys ...string) (err error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "delete values failed", "error", err)
		} else {
			r.log.DebugContext(ctx, "values deleted", "keys", keys)
		}
	}()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}
	defer tx.Rollback() //nolint:errcheck

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM session_values WHERE key = ?", key); err != nil {
			return fmt.Errorf("delete %s: %w", key, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteSessionRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

// classify tags lock contention with domain.ErrSessionStorageBusy.
func classify(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY:
			fallthrough
		case sqlite3.SQLITE_LOCKED:
			return errors.Join(domain.ErrSessionStorageBusy, err)
		default:
			break
		}
	}

	return err
}
