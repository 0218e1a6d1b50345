package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airlens/airlens/internal/snapshot"
)

// SnapshotRefresher is the slice of the snapshot service the refresh job needs.
type SnapshotRefresher interface {
	ListCities(ctx context.Context) ([]snapshot.CitySnapshot, error)
	IsStale(snap *snapshot.CitySnapshot) bool
	RefreshCity(ctx context.Context, cityID int64) error
}

// RefreshJob walks the tracked cities and refreshes stale snapshots
// through a bounded worker pool.
type RefreshJob struct {
	config    RefreshConfig
	snapshots SnapshotRefresher
	logger    zerolog.Logger

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	CitiesRefreshed int64
	CitiesSkipped   int64
	FailedRefreshes int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Snapshots SnapshotRefresher
	Logger    zerolog.Logger
}

// NewRefreshJob creates a new snapshot refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		snapshots: cfg.Snapshots,
		logger:    cfg.Logger,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh run.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalCities int
	Refreshed   int
	Skipped     int
	Failed      int
	Errors      []RefreshError
}

// RefreshError records a per-city refresh failure.
type RefreshError struct {
	CityID int64
	Name   string
	Error  string
}

// Run executes one refresh pass over every tracked city. Cities whose
// snapshot is still fresh are skipped unless ForceAll is set.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	cities, err := j.snapshots.ListCities(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to list tracked cities")
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		j.updateMetrics(result)
		return result
	}
	result.TotalCities = len(cities)

	j.logger.Info().
		Int("total_cities", result.TotalCities).
		Int("concurrency", j.config.Concurrency).
		Bool("force_all", j.config.ForceAll).
		Msg("starting snapshot refresh job")

	citiesChan := make(chan snapshot.CitySnapshot, len(cities))
	resultsChan := make(chan cityResult, len(cities))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, citiesChan, resultsChan)
		}()
	}

	for _, c := range cities {
		citiesChan <- c
	}
	close(citiesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for cr := range resultsChan {
		switch {
		case cr.skipped:
			result.Skipped++
		case cr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				CityID: cr.cityID,
				Name:   cr.name,
				Error:  cr.err.Error(),
			})
		default:
			result.Refreshed++
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("refreshed", result.Refreshed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("snapshot refresh job completed")

	return result
}

// RunPeriodic runs the refresh job on a ticker until the context is cancelled.
func (j *RefreshJob) RunPeriodic(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	j.logger.Info().
		Dur("interval", j.config.Interval).
		Msg("starting periodic snapshot refresh")

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("periodic refresh stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

type cityResult struct {
	cityID  int64
	name    string
	skipped bool
	err     error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, cities <-chan snapshot.CitySnapshot, results chan<- cityResult) {
	for city := range cities {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshCity(ctx, city)
		}
	}
}

func (j *RefreshJob) refreshCity(ctx context.Context, city snapshot.CitySnapshot) cityResult {
	result := cityResult{cityID: city.CityID, name: city.Name}

	if !j.config.ForceAll && !j.snapshots.IsStale(&city) {
		result.skipped = true
		return result
	}

	cityCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if err := j.snapshots.RefreshCity(cityCtx, city.CityID); err != nil {
		j.logger.Warn().
			Err(err).
			Int64("city_id", city.CityID).
			Str("city", city.Name).
			Msg("city refresh failed")
		result.err = err
	}
	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.CitiesRefreshed += int64(result.Refreshed)
	j.metrics.CitiesSkipped += int64(result.Skipped)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		CitiesRefreshed: j.metrics.CitiesRefreshed,
		CitiesSkipped:   j.metrics.CitiesSkipped,
		FailedRefreshes: j.metrics.FailedRefreshes,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for health endpoints.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"cities_refreshed":  m.CitiesRefreshed,
		"cities_skipped":    m.CitiesSkipped,
		"failed_refreshes":  m.FailedRefreshes,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
