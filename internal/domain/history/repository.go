package history

import "context"

// Repository describes gameweek history persistence needs from use cases.
type Repository interface {
	ListAll(ctx context.Context) ([]Entry, error)
	ListByPlayerIDs(ctx context.Context, playerIDs []int) ([]Entry, error)
	UpsertEntries(ctx context.Context, entries []Entry) error
}
