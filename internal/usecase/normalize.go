package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ennish0079/fpl-dashboard/internal/domain/history"
	"github.com/ennish0079/fpl-dashboard/internal/domain/player"
)

// NormalizePlayers turns raw bootstrap elements into canonical player rows,
// resolving team names and computing the derived metrics.
func NormalizePlayers(snapshot ExternalBootstrap) []player.Player {
	teamNameByID := make(map[int]string, len(snapshot.Teams))
	for _, team := range snapshot.Teams {
		teamNameByID[team.ID] = team.Name
	}

	positionByTypeID := make(map[int]player.Position, len(snapshot.Positions))
	for _, pos := range snapshot.Positions {
		positionByTypeID[pos.ID] = player.Position(pos.ShortName)
	}

	out := make([]player.Player, 0, len(snapshot.Players))
	for _, raw := range snapshot.Players {
		// A team id missing from the lookup is a source inconsistency;
		// the row keeps an empty team name instead of failing the batch.
		teamName := teamNameByID[raw.TeamID]

		cost := float64(raw.NowCost) / 10
		out = append(out, player.Player{
			ID:               raw.ID,
			WebName:          raw.WebName,
			TeamName:         teamName,
			Position:         resolvePosition(positionByTypeID, raw.ElementType),
			Cost:             cost,
			TotalPoints:      raw.TotalPoints,
			DisplayName:      fmt.Sprintf("%s (%s)", raw.WebName, teamName),
			PointsPerMillion: pointsPerMillion(raw.TotalPoints, cost),
			OwnershipPercent: parseOwnership(raw.SelectedByPercent),
		})
	}

	return out
}

// NormalizeHistory turns an element-summary response into history entries
// for one player.
func NormalizeHistory(playerID int, entries []ExternalHistoryEntry) []history.Entry {
	out := make([]history.Entry, 0, len(entries))
	for _, raw := range entries {
		if raw.Gameweek <= 0 {
			continue
		}
		out = append(out, history.Entry{
			PlayerID:    playerID,
			Gameweek:    raw.Gameweek,
			TotalPoints: raw.TotalPoints,
			Minutes:     raw.Minutes,
		})
	}

	return out
}

// resolvePosition prefers the element_types catalog delivered with the
// snapshot; the well-known 1-4 codes are the fallback when the catalog is
// absent or lacks the id.
func resolvePosition(catalog map[int]player.Position, elementType int) player.Position {
	if pos, ok := catalog[elementType]; ok && pos != "" {
		return pos
	}
	return player.ParsePosition(elementType)
}

// pointsPerMillion is zero when cost is zero, not an error or infinity.
func pointsPerMillion(totalPoints int, cost float64) float64 {
	if cost == 0 {
		return 0
	}
	return float64(totalPoints) / cost
}

// parseOwnership reads the string-typed selected_by_percent field.
// Anything unparsable becomes nil rather than a fatal error.
func parseOwnership(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}

	return &value
}
