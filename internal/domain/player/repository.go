package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	ListAll(ctx context.Context) ([]Player, error)
	ReplaceAll(ctx context.Context, players []Player) error
	Count(ctx context.Context) (int, error)
}
