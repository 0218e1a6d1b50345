package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/weather"
)

// PostgresRepository is a PostgreSQL implementation of Repository. The
// rolling observation windows are stored as JSONB arrays.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL snapshot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const snapshotColumns = `
	city_id, name, lat, lon, country,
	weather, aqi,
	last_synced_at, created_at, updated_at
`

// Get retrieves one city by ID.
func (r *PostgresRepository) Get(ctx context.Context, cityID int64) (*CitySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM city_snapshots WHERE city_id = $1`

	snap, err := scanSnapshot(r.pool.QueryRow(ctx, query, cityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

// GetMany retrieves several cities at once. Missing IDs are absent from
// the result.
func (r *PostgresRepository) GetMany(ctx context.Context, cityIDs []int64) ([]CitySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM city_snapshots WHERE city_id = ANY($1) ORDER BY name`

	rows, err := r.pool.Query(ctx, query, cityIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

// List returns every tracked city ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]CitySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM city_snapshots ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

// Search returns tracked cities whose name contains the query.
func (r *PostgresRepository) Search(ctx context.Context, query string) ([]CitySnapshot, error) {
	sql := `SELECT ` + snapshotColumns + ` FROM city_snapshots WHERE name ILIKE $1 ORDER BY name`

	rows, err := r.pool.Query(ctx, sql, "%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

// Save inserts or replaces a city snapshot.
func (r *PostgresRepository) Save(ctx context.Context, snap *CitySnapshot) error {
	query := `
		INSERT INTO city_snapshots (
			city_id, name, lat, lon, country,
			weather, aqi,
			last_synced_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (city_id) DO UPDATE SET
			name = EXCLUDED.name,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			country = EXCLUDED.country,
			weather = EXCLUDED.weather,
			aqi = EXCLUDED.aqi,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = EXCLUDED.updated_at
	`

	weatherJSON, err := json.Marshal(snap.Weather)
	if err != nil {
		return fmt.Errorf("marshaling weather window: %w", err)
	}
	aqiJSON, err := json.Marshal(snap.AQI)
	if err != nil {
		return fmt.Errorf("marshaling aqi window: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		snap.CityID,
		snap.Name,
		snap.Lat,
		snap.Lon,
		snap.Country,
		weatherJSON,
		aqiJSON,
		snap.LastSyncedAt,
		snap.CreatedAt,
		snap.UpdatedAt,
	)
	return err
}

func scanSnapshot(row pgx.Row) (*CitySnapshot, error) {
	var (
		snap        CitySnapshot
		weatherJSON []byte
		aqiJSON     []byte
	)

	err := row.Scan(
		&snap.CityID,
		&snap.Name,
		&snap.Lat,
		&snap.Lon,
		&snap.Country,
		&weatherJSON,
		&aqiJSON,
		&snap.LastSyncedAt,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(weatherJSON, &snap.Weather); err != nil {
		return nil, fmt.Errorf("unmarshaling weather window: %w", err)
	}
	if err := json.Unmarshal(aqiJSON, &snap.AQI); err != nil {
		return nil, fmt.Errorf("unmarshaling aqi window: %w", err)
	}
	if snap.Weather == nil {
		snap.Weather = []weather.Record{}
	}
	if snap.AQI == nil {
		snap.AQI = []airquality.Record{}
	}

	return &snap, nil
}

func collectSnapshots(rows pgx.Rows) ([]CitySnapshot, error) {
	out := make([]CitySnapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
