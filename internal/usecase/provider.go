package usecase

import "context"

// ExternalTeam is a club row from the FPL bootstrap payload.
type ExternalTeam struct {
	ID   int
	Name string
}

// ExternalPlayer is a raw bootstrap element before normalization.
type ExternalPlayer struct {
	ID                int
	WebName           string
	TeamID            int
	ElementType       int
	NowCost           int
	TotalPoints       int
	SelectedByPercent string
}

// ExternalPositionType is one element-type row from the bootstrap payload,
// e.g. id 3 -> "MID".
type ExternalPositionType struct {
	ID        int
	ShortName string
}

// ExternalBootstrap bundles the bootstrap-static payload pieces the
// pipeline consumes.
type ExternalBootstrap struct {
	Teams     []ExternalTeam
	Positions []ExternalPositionType
	Players   []ExternalPlayer
}

// ExternalHistoryEntry is one gameweek row from an element-summary payload.
type ExternalHistoryEntry struct {
	Gameweek    int
	TotalPoints int
	Minutes     int
}

// StatsProvider describes what use cases need from the FPL API.
type StatsProvider interface {
	FetchBootstrap(ctx context.Context) (ExternalBootstrap, error)
	FetchPlayerHistory(ctx context.Context, playerID int) ([]ExternalHistoryEntry, error)
}
