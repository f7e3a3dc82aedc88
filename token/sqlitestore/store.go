// Package sqlitestore is a durable token.Store backed by a local sqlite
// file, so a session survives process restarts.
package sqlitestore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jrsteele09/go-queue-client/token"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ token.Store = (*Store)(nil)

type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens (creating if needed) the database at path and applies the
// schema migrations. ":memory:" gives a private in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate token store: %w", err)
	}

	s := &Store{db: db, logger: log.Logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	// m.Close would also close db, which the store keeps using.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Store) Get(key token.Key) (token.Token, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM tokens WHERE key = ?`, string(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", string(key)).Msg("token store read failed")
		return "", false
	}
	return token.Token(value), true
}

func (s *Store) Set(key token.Key, value token.Token) {
	_, err := s.db.Exec(`
		INSERT INTO tokens (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(key), value.String())
	if err != nil {
		s.logger.Error().Err(err).Str("key", string(key)).Msg("token store write failed")
	}
}

func (s *Store) Clear(key token.Key) {
	if _, err := s.db.Exec(`DELETE FROM tokens WHERE key = ?`, string(key)); err != nil {
		s.logger.Error().Err(err).Str("key", string(key)).Msg("token store delete failed")
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
