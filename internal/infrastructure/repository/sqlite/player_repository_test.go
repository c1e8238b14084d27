package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ennish0079/fpl-dashboard/internal/domain/history"
	"github.com/ennish0079/fpl-dashboard/internal/domain/player"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func seedPlayers(t *testing.T, store *Store) *PlayerRepository {
	t.Helper()

	require.NoError(t, NewSchemaManager(store).EnsureTables(context.Background()))

	repo := NewPlayerRepository(store)
	require.NoError(t, repo.ReplaceAll(context.Background(), []player.Player{
		{
			ID:               1,
			WebName:          "Saka",
			TeamName:         "Arsenal",
			Position:         player.PositionMidfielder,
			Cost:             9.0,
			TotalPoints:      45,
			DisplayName:      "Saka (Arsenal)",
			PointsPerMillion: 5.0,
			OwnershipPercent: float64Ptr(38.2),
		},
		{
			ID:               2,
			WebName:          "Haaland",
			TeamName:         "Man City",
			Position:         player.PositionForward,
			Cost:             14.5,
			TotalPoints:      60,
			DisplayName:      "Haaland (Man City)",
			PointsPerMillion: 4.14,
			OwnershipPercent: nil,
		},
	}))

	return repo
}

func TestPlayerRepository_ReplaceAllAndListAll(t *testing.T) {
	store := openTestStore(t)
	repo := seedPlayers(t, store)

	players, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)

	require.Equal(t, "Saka (Arsenal)", players[0].DisplayName)
	require.Equal(t, player.PositionMidfielder, players[0].Position)
	require.NotNil(t, players[0].OwnershipPercent)
	require.InDelta(t, 38.2, *players[0].OwnershipPercent, 0.001)

	require.Nil(t, players[1].OwnershipPercent)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestPlayerRepository_ReplaceAll_DropsPreviousSnapshot(t *testing.T) {
	store := openTestStore(t)
	repo := seedPlayers(t, store)

	require.NoError(t, repo.ReplaceAll(context.Background(), []player.Player{
		{
			ID:          3,
			WebName:     "Palmer",
			TeamName:    "Chelsea",
			Position:    player.PositionMidfielder,
			Cost:        10.5,
			TotalPoints: 52,
			DisplayName: "Palmer (Chelsea)",
		},
	}))

	players, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 1)
	require.Equal(t, 3, players[0].ID)
}

func TestPlayerRepository_ReplaceAll_CascadesHistoryDeletes(t *testing.T) {
	store := openTestStore(t)
	repo := seedPlayers(t, store)
	histRepo := NewHistoryRepository(store)

	require.NoError(t, histRepo.UpsertEntries(context.Background(), []history.Entry{
		{PlayerID: 1, Gameweek: 1, TotalPoints: 8, Minutes: 90},
		{PlayerID: 2, Gameweek: 1, TotalPoints: 13, Minutes: 90},
	}))

	require.NoError(t, repo.ReplaceAll(context.Background(), []player.Player{
		{ID: 1, WebName: "Saka", TeamName: "Arsenal", Position: player.PositionMidfielder,
			Cost: 9.0, TotalPoints: 45, DisplayName: "Saka (Arsenal)", PointsPerMillion: 5.0},
	}))

	entries, err := histRepo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 0)
}
