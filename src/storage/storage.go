// src/storage/storage.go
package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/username/finsync/src/logger"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// tokenKey is the single durable key this store manages.
const tokenKey = "access_token"

// Store persists the client session state in a local sqlite database.
// The only value kept across restarts is the access token.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the session database and applies migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store at %s: %w", path, err)
	}

	// Limit open connections to 1 for SQLite to avoid locking issues
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping session store: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(path); err != nil {
		db.Close()
		return nil, err
	}
	logger.L.Info("Session store opened", "path", path)
	return s, nil
}

func (s *Store) runMigrations(path string) error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, path, driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// SaveToken persists the access token, replacing any previous one.
func (s *Store) SaveToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;
	`, tokenKey, token)
	if err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	return nil
}

// LoadToken returns the persisted access token, if any.
func (s *Store) LoadToken() (string, bool, error) {
	var token string
	err := s.db.QueryRow(`SELECT value FROM session_state WHERE key = ?`, tokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read access token: %w", err)
	}
	return token, token != "", nil
}

// DeleteToken removes the persisted access token.
func (s *Store) DeleteToken() error {
	_, err := s.db.Exec(`DELETE FROM session_state WHERE key = ?`, tokenKey)
	if err != nil {
		return fmt.Errorf("failed to delete access token: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
