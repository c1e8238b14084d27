package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	_ "modernc.org/sqlite"
)

// Store owns the SQLite database handle and the path it lives at.
type Store struct {
	db   *sqlx.DB
	path string
}

func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		url.PathEscape(path),
	)

	db, err := otelsqlx.Open("sqlite", dsn,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
		otelsql.WithDBName("fpl"),
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	// modernc.org/sqlite serializes writes itself; one connection keeps
	// SQLITE_BUSY out of the normal path.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database %s: %w", path, err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LastWriteTime returns the database file's modification time.
func (s *Store) LastWriteTime() (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat sqlite database %s: %w", s.path, err)
	}

	return info.ModTime(), nil
}
