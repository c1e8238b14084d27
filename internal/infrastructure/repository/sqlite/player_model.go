package sqlite

import "database/sql"

type playerTableModel struct {
	ID               int             `db:"id"`
	WebName          string          `db:"web_name"`
	TeamName         string          `db:"team_name"`
	Position         string          `db:"position"`
	Cost             float64         `db:"cost"`
	TotalPoints      int             `db:"total_points"`
	DisplayName      string          `db:"display_name"`
	PointsPerMillion float64         `db:"points_per_million"`
	OwnershipPercent sql.NullFloat64 `db:"ownership_percent"`
}
