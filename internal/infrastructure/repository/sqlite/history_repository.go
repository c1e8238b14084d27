package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ennish0079/fpl-dashboard/internal/domain/history"
	qb "github.com/ennish0079/fpl-dashboard/internal/platform/querybuilder"
)

type HistoryRepository struct {
	db *sqlx.DB
}

var historySelectColumns = []string{
	"player_id",
	"gameweek",
	"total_points",
	"minutes",
}

const historyUpsertSuffix = "ON CONFLICT(player_id, gameweek) DO UPDATE SET " +
	"total_points = excluded.total_points, minutes = excluded.minutes"

func NewHistoryRepository(store *Store) *HistoryRepository {
	return &HistoryRepository{db: store.DB()}
}

func (r *HistoryRepository) ListAll(ctx context.Context) ([]history.Entry, error) {
	query, args, err := qb.Select(historySelectColumns...).From("gameweek_history").
		OrderBy("player_id", "gameweek").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select history query: %w", err)
	}

	var rows []historyTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select gameweek history: %w", err)
	}

	return entriesFromTableModels(rows), nil
}

func (r *HistoryRepository) ListByPlayerIDs(ctx context.Context, playerIDs []int) ([]history.Entry, error) {
	if len(playerIDs) == 0 {
		return []history.Entry{}, nil
	}

	query, args, err := qb.Select(historySelectColumns...).From("gameweek_history").
		Where(qb.In("player_id", intSliceToAny(playerIDs))).
		OrderBy("player_id", "gameweek").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select history by players query: %w", err)
	}

	var rows []historyTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select gameweek history by players: %w", err)
	}

	return entriesFromTableModels(rows), nil
}

// UpsertEntries writes gameweek rows keyed on (player_id, gameweek), so a
// re-fetch of an in-progress gameweek overwrites the earlier row instead of
// conflicting.
func (r *HistoryRepository) UpsertEntries(ctx context.Context, entries []history.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		row := historyTableModel{
			PlayerID:    e.PlayerID,
			Gameweek:    e.Gameweek,
			TotalPoints: e.TotalPoints,
			Minutes:     e.Minutes,
		}
		query, args, err := qb.InsertModel("gameweek_history", row, historyUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert history query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert history row (%d, %d): %w", e.PlayerID, e.Gameweek, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert history tx: %w", err)
	}

	return nil
}

func entriesFromTableModels(rows []historyTableModel) []history.Entry {
	out := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, history.Entry{
			PlayerID:    row.PlayerID,
			Gameweek:    row.Gameweek,
			TotalPoints: row.TotalPoints,
			Minutes:     row.Minutes,
		})
	}

	return out
}

func intSliceToAny(items []int) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
