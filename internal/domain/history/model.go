package history

import "fmt"

// Entry is one gameweek row of a player's season history.
type Entry struct {
	PlayerID    int
	Gameweek    int
	TotalPoints int
	Minutes     int
}

func (e Entry) Validate() error {
	if e.PlayerID <= 0 {
		return fmt.Errorf("history player id must be greater than zero")
	}
	if e.Gameweek <= 0 {
		return fmt.Errorf("history gameweek must be greater than zero")
	}

	return nil
}
