package player

import "fmt"

// Position represents football position categories used by the FPL game.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

const PositionUnknown Position = "UNK"

// ParsePosition maps an FPL element_type code to a position label.
// Unknown codes map to PositionUnknown rather than failing the row.
func ParsePosition(elementType int) Position {
	switch elementType {
	case 1:
		return PositionGoalkeeper
	case 2:
		return PositionDefender
	case 3:
		return PositionMidfielder
	case 4:
		return PositionForward
	default:
		return PositionUnknown
	}
}

// Player is one normalized row of the FPL bootstrap element list.
type Player struct {
	ID               int
	WebName          string
	TeamName         string
	Position         Position
	Cost             float64
	TotalPoints      int
	DisplayName      string
	PointsPerMillion float64
	OwnershipPercent *float64
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be greater than zero")
	}
	if p.WebName == "" {
		return fmt.Errorf("player web name is required")
	}
	if p.DisplayName == "" {
		return fmt.Errorf("player display name is required")
	}
	if p.Cost < 0 {
		return fmt.Errorf("player cost cannot be negative")
	}

	return nil
}
