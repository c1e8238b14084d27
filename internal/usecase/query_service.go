package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ennish0079/fpl-dashboard/internal/domain/history"
	"github.com/ennish0079/fpl-dashboard/internal/domain/player"
	"github.com/ennish0079/fpl-dashboard/internal/platform/cache"
	"github.com/ennish0079/fpl-dashboard/internal/platform/logging"
)

const loadCacheKey = "stats:load"

// StatsData is the full in-memory view of both tables.
type StatsData struct {
	Players []player.Player
	History []history.Entry
}

// PlayerFilter narrows and orders the player list.
type PlayerFilter struct {
	Position string
	Team     string
	SortBy   string
	Order    string
}

// Progression is one player's round-by-round scoring with a running sum.
type Progression struct {
	PlayerID    int
	DisplayName string
	Gameweeks   []int
	Points      []int
	Cumulative  []int
}

var playerSortFields = map[string]func(a, b player.Player) bool{
	"total_points":       func(a, b player.Player) bool { return a.TotalPoints < b.TotalPoints },
	"cost":               func(a, b player.Player) bool { return a.Cost < b.Cost },
	"points_per_million": func(a, b player.Player) bool { return a.PointsPerMillion < b.PointsPerMillion },
	"ownership_percent": func(a, b player.Player) bool {
		return ownershipValue(a) < ownershipValue(b)
	},
	"web_name": func(a, b player.Player) bool { return a.WebName < b.WebName },
}

type StatsQueryService struct {
	players      player.Repository
	histories    history.Repository
	cache        *cache.Store
	cacheEnabled bool
	logger       *logging.Logger
}

func NewStatsQueryService(
	players player.Repository,
	histories history.Repository,
	cacheStore *cache.Store,
	cacheEnabled bool,
	logger *logging.Logger,
) *StatsQueryService {
	if logger == nil {
		logger = logging.Default()
	}

	return &StatsQueryService{
		players:      players,
		histories:    histories,
		cache:        cacheStore,
		cacheEnabled: cacheEnabled && cacheStore != nil,
		logger:       logger,
	}
}

// Load reads both tables in full, behind a time-bounded cache.
func (s *StatsQueryService) Load(ctx context.Context) (StatsData, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsQueryService.Load")
	defer span.End()

	if !s.cacheEnabled {
		return s.load(ctx)
	}

	out, err := s.cache.GetOrLoad(ctx, loadCacheKey, func(ctx context.Context) (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return StatsData{}, err
	}

	data, ok := out.(StatsData)
	if !ok {
		return StatsData{}, fmt.Errorf("unexpected cached payload type %T", out)
	}

	return data, nil
}

// Invalidate drops the cached load, forcing the next read to hit the store.
func (s *StatsQueryService) Invalidate(ctx context.Context) {
	if s.cacheEnabled {
		s.cache.Delete(ctx, loadCacheKey)
	}
}

// load reads the store in full. Read failures surface as the transient
// ErrStoreBusy condition so callers retry rather than treat them as fatal.
func (s *StatsQueryService) load(ctx context.Context) (StatsData, error) {
	players, err := s.players.ListAll(ctx)
	if err != nil {
		return StatsData{}, fmt.Errorf("%w: load players: %v", ErrStoreBusy, err)
	}

	entries, err := s.histories.ListAll(ctx)
	if err != nil {
		return StatsData{}, fmt.Errorf("%w: load gameweek history: %v", ErrStoreBusy, err)
	}

	return StatsData{Players: players, History: entries}, nil
}

// ListPlayers applies position/team filters and ordering on the cached load.
func (s *StatsQueryService) ListPlayers(ctx context.Context, filter PlayerFilter) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsQueryService.ListPlayers")
	defer span.End()

	position := player.Position(strings.ToUpper(strings.TrimSpace(filter.Position)))
	if position != "" {
		if _, ok := player.AllPositions[position]; !ok {
			return nil, fmt.Errorf("%w: unknown position %q", ErrInvalidInput, filter.Position)
		}
	}

	sortBy := strings.ToLower(strings.TrimSpace(filter.SortBy))
	if sortBy == "" {
		sortBy = "total_points"
	}
	less, ok := playerSortFields[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, filter.SortBy)
	}

	order := strings.ToLower(strings.TrimSpace(filter.Order))
	switch order {
	case "":
		order = "desc"
	case "asc", "desc":
	default:
		return nil, fmt.Errorf("%w: order must be asc or desc", ErrInvalidInput)
	}

	data, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	team := strings.TrimSpace(filter.Team)
	out := make([]player.Player, 0, len(data.Players))
	for _, p := range data.Players {
		if position != "" && p.Position != position {
			continue
		}
		if team != "" && !strings.EqualFold(p.TeamName, team) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if order == "asc" {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})

	return out, nil
}

// ListTeams returns the distinct team names present in the player table.
func (s *StatsQueryService) ListTeams(ctx context.Context) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsQueryService.ListTeams")
	defer span.End()

	data, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, 24)
	out := make([]string, 0, 24)
	for _, p := range data.Players {
		name := strings.TrimSpace(p.TeamName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)

	return out, nil
}

// PlayerProgression computes one player's cumulative points sequence.
func (s *StatsQueryService) PlayerProgression(ctx context.Context, playerID int) (Progression, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsQueryService.PlayerProgression")
	defer span.End()

	if playerID <= 0 {
		return Progression{}, fmt.Errorf("%w: player id must be greater than zero", ErrInvalidInput)
	}

	out, err := s.Comparison(ctx, []int{playerID})
	if err != nil {
		return Progression{}, err
	}

	return out[0], nil
}

// Comparison builds cumulative points sequences for several players at once.
// Every requested id must exist.
func (s *StatsQueryService) Comparison(ctx context.Context, playerIDs []int) ([]Progression, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsQueryService.Comparison")
	defer span.End()

	if len(playerIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one player id is required", ErrInvalidInput)
	}

	data, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	displayNameByID := make(map[int]string, len(data.Players))
	for _, p := range data.Players {
		displayNameByID[p.ID] = p.DisplayName
	}

	entriesByID := make(map[int][]history.Entry, len(playerIDs))
	for _, e := range data.History {
		entriesByID[e.PlayerID] = append(entriesByID[e.PlayerID], e)
	}

	out := make([]Progression, 0, len(playerIDs))
	for _, id := range playerIDs {
		displayName, ok := displayNameByID[id]
		if !ok {
			return nil, fmt.Errorf("%w: player %d", ErrNotFound, id)
		}

		entries := entriesByID[id]
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Gameweek < entries[j].Gameweek })

		row := Progression{
			PlayerID:    id,
			DisplayName: displayName,
			Gameweeks:   make([]int, 0, len(entries)),
			Points:      make([]int, 0, len(entries)),
			Cumulative:  make([]int, 0, len(entries)),
		}
		running := 0
		for _, e := range entries {
			running += e.TotalPoints
			row.Gameweeks = append(row.Gameweeks, e.Gameweek)
			row.Points = append(row.Points, e.TotalPoints)
			row.Cumulative = append(row.Cumulative, running)
		}
		out = append(out, row)
	}

	return out, nil
}

func ownershipValue(p player.Player) float64 {
	if p.OwnershipPercent == nil {
		return -1
	}
	return *p.OwnershipPercent
}
