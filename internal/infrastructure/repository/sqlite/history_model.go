package sqlite

type historyTableModel struct {
	PlayerID    int `db:"player_id"`
	Gameweek    int `db:"gameweek"`
	TotalPoints int `db:"total_points"`
	Minutes     int `db:"minutes"`
}
