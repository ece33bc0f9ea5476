package visit

import "context"

// Repository is the whole-collection store contract. There are no partial
// writes: SaveAll atomically replaces the entire persisted collection.
// LoadAll recovers from an absent or unreadable blob by returning an empty
// collection; storage read failures never propagate to callers.
type Repository interface {
	LoadAll(ctx context.Context) []Record
	SaveAll(ctx context.Context, records []Record) error
	SortedByRecency(ctx context.Context) []Record
}
