package snapshot

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested city is not tracked.
var ErrNotFound = errors.New("city snapshot not found")

// Repository persists city snapshots.
type Repository interface {
	// Get retrieves one city by ID. Returns ErrNotFound when the city is
	// not tracked.
	Get(ctx context.Context, cityID int64) (*CitySnapshot, error)

	// GetMany retrieves several cities at once. Missing IDs are simply
	// absent from the result.
	GetMany(ctx context.Context, cityIDs []int64) ([]CitySnapshot, error)

	// List returns every tracked city ordered by name.
	List(ctx context.Context) ([]CitySnapshot, error)

	// Search returns tracked cities whose name contains the query,
	// case-insensitively, ordered by name.
	Search(ctx context.Context, query string) ([]CitySnapshot, error)

	// Save inserts or replaces a city snapshot.
	Save(ctx context.Context, snap *CitySnapshot) error
}
