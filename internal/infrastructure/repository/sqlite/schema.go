package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaVersion is bumped whenever the table shapes below change.
// A mismatch triggers a full rebuild on the next refresh.
const schemaVersion = 2

const createPlayersTable = `
CREATE TABLE IF NOT EXISTS players (
	id INTEGER PRIMARY KEY,
	web_name TEXT NOT NULL,
	team_name TEXT NOT NULL,
	position TEXT NOT NULL,
	cost REAL NOT NULL,
	total_points INTEGER NOT NULL,
	display_name TEXT NOT NULL,
	points_per_million REAL NOT NULL,
	ownership_percent REAL
)`

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS gameweek_history (
	player_id INTEGER NOT NULL,
	gameweek INTEGER NOT NULL,
	total_points INTEGER NOT NULL,
	minutes INTEGER NOT NULL,
	PRIMARY KEY (player_id, gameweek),
	FOREIGN KEY (player_id) REFERENCES players(id) ON DELETE CASCADE
)`

const createSchemaMetaTable = `
CREATE TABLE IF NOT EXISTS schema_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SchemaManager detects stale table shapes and rebuilds them.
type SchemaManager struct {
	db *sqlx.DB
}

func NewSchemaManager(store *Store) *SchemaManager {
	return &SchemaManager{db: store.DB()}
}

// TablesExist reports whether both data tables are present.
func (m *SchemaManager) TablesExist(ctx context.Context) (bool, error) {
	var count int
	err := m.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('players', 'gameweek_history')`)
	if err != nil {
		return false, fmt.Errorf("inspect sqlite_master: %w", err)
	}

	return count == 2, nil
}

// IsCurrent reports whether the on-disk schema matches the code's shape.
// Older databases predate the schema_meta table, so a missing version row
// counts as stale. The column probe catches databases written before
// versioning existed at all.
func (m *SchemaManager) IsCurrent(ctx context.Context) (bool, error) {
	exists, err := m.TablesExist(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	var version string
	err = m.db.GetContext(ctx, &version,
		`SELECT value FROM schema_meta WHERE key = 'schema_version'`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		if isMissingTable(err) {
			return false, nil
		}
		return false, fmt.Errorf("read schema version: %w", err)
	}
	if version != fmt.Sprintf("%d", schemaVersion) {
		return false, nil
	}

	var probe int
	err = m.db.GetContext(ctx, &probe,
		`SELECT COUNT(*) FROM pragma_table_info('players') WHERE name = 'points_per_million'`)
	if err != nil {
		return false, fmt.Errorf("probe players columns: %w", err)
	}

	return probe == 1, nil
}

// EnsureTables creates any missing tables and stamps the schema version.
func (m *SchemaManager) EnsureTables(ctx context.Context) error {
	for _, stmt := range []string{createPlayersTable, createHistoryTable, createSchemaMetaTable} {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	return m.stampVersion(ctx)
}

// Rebuild drops both data tables and recreates them at the current shape.
func (m *SchemaManager) Rebuild(ctx context.Context) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS gameweek_history`,
		`DROP TABLE IF EXISTS players`,
		`DROP TABLE IF EXISTS schema_meta`,
	} {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}

	return m.EnsureTables(ctx)
}

func (m *SchemaManager) stampVersion(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO schema_meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", schemaVersion))
	if err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}

	return nil
}
