package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ennish0079/fpl-dashboard/internal/domain/player"
	"github.com/ennish0079/fpl-dashboard/internal/platform/logging"
	"github.com/ennish0079/fpl-dashboard/internal/usecase"
)

const maxComparisonPlayers = 8

type Handler struct {
	queryService   *usecase.StatsQueryService
	refreshService *usecase.RefreshService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	queryService *usecase.StatsQueryService,
	refreshService *usecase.RefreshService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		queryService:   queryService,
		refreshService: refreshService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type listPlayersRequest struct {
	Position string `validate:"omitempty,oneof=GK DEF MID FWD"`
	Team     string `validate:"omitempty,max=100"`
	Sort     string `validate:"omitempty,oneof=total_points cost points_per_million ownership_percent web_name"`
	Order    string `validate:"omitempty,oneof=asc desc"`
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	query := r.URL.Query()
	req := listPlayersRequest{
		Position: strings.ToUpper(strings.TrimSpace(query.Get("position"))),
		Team:     strings.TrimSpace(query.Get("team")),
		Sort:     strings.ToLower(strings.TrimSpace(query.Get("sort"))),
		Order:    strings.ToLower(strings.TrimSpace(query.Get("order"))),
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	players, err := h.queryService.ListPlayers(ctx, usecase.PlayerFilter{
		Position: req.Position,
		Team:     req.Team,
		SortBy:   req.Sort,
		Order:    req.Order,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.queryService.ListTeams(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teams)
}

func (h *Handler) GetPlayerProgression(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerProgression")
	defer span.End()

	playerID, err := strconv.Atoi(r.PathValue("playerID"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: player id must be an integer", usecase.ErrInvalidInput))
		return
	}

	progression, err := h.queryService.PlayerProgression(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "player progression failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, progressionToDTO(progression))
}

func (h *Handler) GetComparison(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetComparison")
	defer span.End()

	playerIDs, err := parsePlayerIDs(r.URL.Query().Get("players"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	progressions, err := h.queryService.Comparison(ctx, playerIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "comparison failed", "player_ids", playerIDs, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]progressionDTO, 0, len(progressions))
	for _, p := range progressions {
		items = append(items, progressionToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// TriggerRefresh starts a full refresh in the background and acknowledges
// immediately. The refresh service itself rejects overlapping runs.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerRefresh")
	defer span.End()

	if h.refreshService.Progress().InProgress {
		writeError(ctx, w, fmt.Errorf("%w: a refresh is already running", usecase.ErrRefreshInProgress))
		return
	}

	// The refresh must outlive the triggering request.
	background := context.WithoutCancel(ctx)
	go func() {
		if err := h.refreshService.Refresh(background); err != nil {
			h.logger.ErrorContext(background, "background refresh failed", "error", err)
		}
	}()

	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func (h *Handler) GetRefreshStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRefreshStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.refreshService.Progress())
}

func parsePlayerIDs(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: players query parameter is required", usecase.ErrInvalidInput)
	}

	parts := strings.Split(raw, ",")
	if len(parts) > maxComparisonPlayers {
		return nil, fmt.Errorf("%w: at most %d players can be compared", usecase.ErrInvalidInput, maxComparisonPlayers)
	}

	out := make([]int, 0, len(parts))
	seen := make(map[int]struct{}, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: player ids must be positive integers", usecase.ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out, nil
}

type playerDTO struct {
	ID               int      `json:"id"`
	WebName          string   `json:"web_name"`
	TeamName         string   `json:"team_name"`
	Position         string   `json:"position"`
	Cost             float64  `json:"cost"`
	TotalPoints      int      `json:"total_points"`
	DisplayName      string   `json:"display_name"`
	PointsPerMillion float64  `json:"points_per_million"`
	OwnershipPercent *float64 `json:"ownership_percent"`
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		ID:               p.ID,
		WebName:          p.WebName,
		TeamName:         p.TeamName,
		Position:         string(p.Position),
		Cost:             p.Cost,
		TotalPoints:      p.TotalPoints,
		DisplayName:      p.DisplayName,
		PointsPerMillion: p.PointsPerMillion,
		OwnershipPercent: p.OwnershipPercent,
	}
}

type progressionDTO struct {
	PlayerID    int    `json:"player_id"`
	DisplayName string `json:"display_name"`
	Gameweeks   []int  `json:"gameweeks"`
	Points      []int  `json:"points"`
	Cumulative  []int  `json:"cumulative_points"`
}

func progressionToDTO(p usecase.Progression) progressionDTO {
	return progressionDTO{
		PlayerID:    p.PlayerID,
		DisplayName: p.DisplayName,
		Gameweeks:   p.Gameweeks,
		Points:      p.Points,
		Cumulative:  p.Cumulative,
	}
}
