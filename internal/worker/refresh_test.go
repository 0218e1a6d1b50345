package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlens/airlens/internal/snapshot"
	"github.com/airlens/airlens/internal/worker"
)

type fakeSnapshots struct {
	mu         sync.Mutex
	cities     []snapshot.CitySnapshot
	stale      map[int64]bool
	refreshErr map[int64]error
	listErr    error
	refreshed  []int64
}

func (f *fakeSnapshots) ListCities(context.Context) ([]snapshot.CitySnapshot, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.cities, nil
}

func (f *fakeSnapshots) IsStale(snap *snapshot.CitySnapshot) bool {
	return f.stale[snap.CityID]
}

func (f *fakeSnapshots) RefreshCity(_ context.Context, cityID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refreshErr[cityID]; err != nil {
		return err
	}
	f.refreshed = append(f.refreshed, cityID)
	return nil
}

func newJob(svc worker.SnapshotRefresher, cfg worker.RefreshConfig) *worker.RefreshJob {
	return worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    cfg,
		Snapshots: svc,
		Logger:    zerolog.Nop(),
	})
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.False(t, cfg.ForceAll)
}

func TestRefreshConfigFromEnv(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "5")
	t.Setenv("WORKER_REFRESH_TIMEOUT", "10s")
	t.Setenv("WORKER_REFRESH_INTERVAL", "1m")
	t.Setenv("WORKER_FORCE_ALL", "true")

	cfg := worker.RefreshConfigFromEnv()
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.True(t, cfg.ForceAll)
}

func TestRefreshConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "zero")
	t.Setenv("WORKER_REFRESH_TIMEOUT", "-5s")

	cfg := worker.RefreshConfigFromEnv()
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestRefreshJob_Run_RefreshesOnlyStale(t *testing.T) {
	svc := &fakeSnapshots{
		cities: []snapshot.CitySnapshot{
			{CityID: 1, Name: "Mumbai"},
			{CityID: 2, Name: "Delhi"},
			{CityID: 3, Name: "Pune"},
		},
		stale: map[int64]bool{2: true},
	}

	job := newJob(svc, worker.RefreshConfig{Concurrency: 1})
	result := job.Run(context.Background())

	assert.Equal(t, 3, result.TotalCities)
	assert.Equal(t, 1, result.Refreshed)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []int64{2}, svc.refreshed)
}

func TestRefreshJob_Run_ForceAll(t *testing.T) {
	svc := &fakeSnapshots{
		cities: []snapshot.CitySnapshot{
			{CityID: 1, Name: "Mumbai"},
			{CityID: 2, Name: "Delhi"},
		},
	}

	job := newJob(svc, worker.RefreshConfig{Concurrency: 1, ForceAll: true})
	result := job.Run(context.Background())

	assert.Equal(t, 2, result.Refreshed)
	assert.Equal(t, 0, result.Skipped)
	assert.Len(t, svc.refreshed, 2)
}

func TestRefreshJob_Run_CollectsErrors(t *testing.T) {
	svc := &fakeSnapshots{
		cities: []snapshot.CitySnapshot{
			{CityID: 1, Name: "Mumbai"},
			{CityID: 2, Name: "Delhi"},
		},
		stale:      map[int64]bool{1: true, 2: true},
		refreshErr: map[int64]error{2: errors.New("provider down")},
	}

	job := newJob(svc, worker.RefreshConfig{Concurrency: 1})
	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Refreshed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, int64(2), result.Errors[0].CityID)
	assert.Equal(t, "Delhi", result.Errors[0].Name)
	assert.Equal(t, "provider down", result.Errors[0].Error)
}

func TestRefreshJob_Run_ListFailure(t *testing.T) {
	svc := &fakeSnapshots{listErr: errors.New("db unavailable")}

	job := newJob(svc, worker.RefreshConfig{})
	result := job.Run(context.Background())

	assert.Equal(t, 0, result.TotalCities)
	assert.Equal(t, 0, result.Refreshed)
}

func TestRefreshJob_Run_WithConcurrency(t *testing.T) {
	cities := make([]snapshot.CitySnapshot, 20)
	stale := make(map[int64]bool, 20)
	for i := range cities {
		id := int64(i + 1)
		cities[i] = snapshot.CitySnapshot{CityID: id}
		stale[id] = true
	}
	svc := &fakeSnapshots{cities: cities, stale: stale}

	job := newJob(svc, worker.RefreshConfig{Concurrency: 4})
	result := job.Run(context.Background())

	assert.Equal(t, 20, result.Refreshed)
	assert.Len(t, svc.refreshed, 20)
}

func TestRefreshJob_Run_ContextCancellation(t *testing.T) {
	cities := make([]snapshot.CitySnapshot, 100)
	for i := range cities {
		cities[i] = snapshot.CitySnapshot{CityID: int64(i + 1)}
	}
	svc := &fakeSnapshots{cities: cities}

	job := newJob(svc, worker.RefreshConfig{Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)
	assert.NotNil(t, result)
}

func TestRefreshJob_GetMetrics(t *testing.T) {
	svc := &fakeSnapshots{
		cities: []snapshot.CitySnapshot{{CityID: 1, Name: "Mumbai"}},
		stale:  map[int64]bool{1: true},
	}

	job := newJob(svc, worker.RefreshConfig{Concurrency: 1})
	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalRuns)
	assert.Equal(t, int64(2), metrics.CitiesRefreshed)
	assert.NotZero(t, metrics.LastRunAt)
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	svc := &fakeSnapshots{}
	job := newJob(svc, worker.RefreshConfig{})
	_ = job.Run(context.Background())

	snap := job.MetricsSnapshot()
	assert.Contains(t, snap, "total_runs")
	assert.Contains(t, snap, "cities_refreshed")
	assert.Contains(t, snap, "failed_refreshes")
	assert.Contains(t, snap, "last_run_at")
	assert.Contains(t, snap, "last_run_duration")
}

func TestRefreshJob_RunPeriodic_StopsOnCancel(t *testing.T) {
	svc := &fakeSnapshots{}
	job := newJob(svc, worker.RefreshConfig{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.RunPeriodic(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("periodic refresh did not stop")
	}

	metrics := job.GetMetrics()
	assert.GreaterOrEqual(t, metrics.TotalRuns, int64(1))
}
