package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ennish0079/fpl-dashboard/internal/domain/player"
	qb "github.com/ennish0079/fpl-dashboard/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

var playerSelectColumns = []string{
	"id",
	"web_name",
	"team_name",
	"position",
	"cost",
	"total_points",
	"display_name",
	"points_per_million",
	"ownership_percent",
}

func NewPlayerRepository(store *Store) *PlayerRepository {
	return &PlayerRepository{db: store.DB()}
}

func (r *PlayerRepository) ListAll(ctx context.Context) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromTableModel(row))
	}

	return out, nil
}

func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM players`); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}

	return count, nil
}

// ReplaceAll swaps the entire players table for the given snapshot in one
// transaction. History rows for removed players go with them via the
// cascading foreign key.
func (r *PlayerRepository) ReplaceAll(ctx context.Context, players []player.Player) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace players tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players`); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}

	for _, p := range players {
		row := playerToTableModel(p)
		query, args, err := qb.InsertModel("players", row, "")
		if err != nil {
			return fmt.Errorf("build insert player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert player %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace players tx: %w", err)
	}

	return nil
}

func playerFromTableModel(row playerTableModel) player.Player {
	return player.Player{
		ID:               row.ID,
		WebName:          row.WebName,
		TeamName:         row.TeamName,
		Position:         player.Position(row.Position),
		Cost:             row.Cost,
		TotalPoints:      row.TotalPoints,
		DisplayName:      row.DisplayName,
		PointsPerMillion: row.PointsPerMillion,
		OwnershipPercent: nullFloat64ToPtr(row.OwnershipPercent),
	}
}

func playerToTableModel(p player.Player) playerTableModel {
	return playerTableModel{
		ID:               p.ID,
		WebName:          p.WebName,
		TeamName:         p.TeamName,
		Position:         string(p.Position),
		Cost:             p.Cost,
		TotalPoints:      p.TotalPoints,
		DisplayName:      p.DisplayName,
		PointsPerMillion: p.PointsPerMillion,
		OwnershipPercent: nullableFloat64(p.OwnershipPercent),
	}
}
