package snapshot

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and local
// development.
type MemoryRepository struct {
	mu     sync.RWMutex
	cities map[int64]*CitySnapshot
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{cities: make(map[int64]*CitySnapshot)}
}

// Get retrieves one city by ID.
func (r *MemoryRepository) Get(ctx context.Context, cityID int64) (*CitySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.cities[cityID]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *snap
	return &copied, nil
}

// GetMany retrieves several cities at once.
func (r *MemoryRepository) GetMany(ctx context.Context, cityIDs []int64) ([]CitySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CitySnapshot, 0, len(cityIDs))
	for _, id := range cityIDs {
		if snap, ok := r.cities[id]; ok {
			out = append(out, *snap)
		}
	}
	return out, nil
}

// List returns every tracked city ordered by name.
func (r *MemoryRepository) List(ctx context.Context) ([]CitySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CitySnapshot, 0, len(r.cities))
	for _, snap := range r.cities {
		out = append(out, *snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Search returns tracked cities whose name contains the query.
func (r *MemoryRepository) Search(ctx context.Context, query string) ([]CitySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	out := make([]CitySnapshot, 0)
	for _, snap := range r.cities {
		if strings.Contains(strings.ToLower(snap.Name), needle) {
			out = append(out, *snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save inserts or replaces a city snapshot.
func (r *MemoryRepository) Save(ctx context.Context, snap *CitySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *snap
	r.cities[snap.CityID] = &copied
	return nil
}

// Ensure MemoryRepository implements Repository interface.
var _ Repository = (*MemoryRepository)(nil)
