package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "fpl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	store := openTestStore(t)

	mtime, err := store.LastWriteTime()
	require.NoError(t, err)
	require.False(t, mtime.IsZero())
}

func TestSchemaManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	mgr := NewSchemaManager(store)

	exists, err := mgr.TablesExist(ctx)
	require.NoError(t, err)
	require.False(t, exists)

	current, err := mgr.IsCurrent(ctx)
	require.NoError(t, err)
	require.False(t, current)

	require.NoError(t, mgr.EnsureTables(ctx))

	exists, err = mgr.TablesExist(ctx)
	require.NoError(t, err)
	require.True(t, exists)

	current, err = mgr.IsCurrent(ctx)
	require.NoError(t, err)
	require.True(t, current)
}

func TestSchemaManager_IsCurrent_DetectsLegacyShape(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	mgr := NewSchemaManager(store)

	// A database written before points_per_million and schema_meta existed.
	_, err := store.DB().ExecContext(ctx, `
		CREATE TABLE players (
			id INTEGER PRIMARY KEY,
			web_name TEXT NOT NULL,
			team_name TEXT NOT NULL,
			position TEXT NOT NULL,
			cost REAL NOT NULL,
			total_points INTEGER NOT NULL,
			display_name TEXT NOT NULL
		)`)
	require.NoError(t, err)
	_, err = store.DB().ExecContext(ctx, `
		CREATE TABLE gameweek_history (
			player_id INTEGER NOT NULL,
			gameweek INTEGER NOT NULL,
			total_points INTEGER NOT NULL,
			minutes INTEGER NOT NULL,
			PRIMARY KEY (player_id, gameweek)
		)`)
	require.NoError(t, err)

	current, err := mgr.IsCurrent(ctx)
	require.NoError(t, err)
	require.False(t, current)

	require.NoError(t, mgr.Rebuild(ctx))

	current, err = mgr.IsCurrent(ctx)
	require.NoError(t, err)
	require.True(t, current)
}
