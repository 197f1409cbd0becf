package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/kyotei-backtest/internal/backtest"
	"github.com/yourusername/kyotei-backtest/internal/models"
)

type stubOutcomes struct{}

func (stubOutcomes) ListRaces(context.Context, time.Time, time.Time, []int) ([]models.RaceRef, error) {
	return nil, nil
}

func (stubOutcomes) GetOutcome(context.Context, models.RaceRef) (*models.RaceOutcome, error) {
	return nil, models.ErrNotFound
}

type stubPredictions struct{}

func (stubPredictions) GetPrediction(context.Context, string, models.RaceRef) (*models.Prediction, error) {
	return nil, models.ErrNotFound
}

func testDashboard(t *testing.T) *backtest.DashboardService {
	t.Helper()
	svc, err := backtest.NewDashboardService(
		stubOutcomes{}, stubPredictions{},
		models.NewBetScheme(models.BetTypeTrifectaBox, 100),
		[]string{"modelA"}, nil,
	)
	require.NoError(t, err)
	return svc
}

func TestSchedulerRequiresJobs(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(nil, testDashboard(t), nil)
	require.NoError(t, s.ScheduleDashboardRefresh(3600))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(), "double start must fail")
	assert.False(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(), "stopping a stopped scheduler is a no-op")
}

func TestSchedulerRejectsScheduleWhileRunning(t *testing.T) {
	s := NewScheduler(nil, testDashboard(t), nil)
	require.NoError(t, s.ScheduleDashboardRefresh(3600))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.ScheduleDashboardRefresh(3600))
}

func TestSchedulerNightlyRequiresDriver(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	assert.Error(t, s.ScheduleNightlyBacktest("0 3 * * *", 7, ""))
}

func TestSchedulerRefreshRequiresDashboard(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	assert.Error(t, s.ScheduleDashboardRefresh(60))
}

func TestSchedulerInvalidCronExpression(t *testing.T) {
	driver := testDriver(t)
	s := NewScheduler(driver, nil, nil)
	assert.Error(t, s.ScheduleNightlyBacktest("not a cron", 7, ""))
}

func testDriver(t *testing.T) *backtest.Driver {
	t.Helper()
	cfg := backtest.RunConfig{
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Scheme:    models.NewBetScheme(models.BetTypeTrifectaBox, 100),
		Models:    []string{"modelA"},
		Workers:   1,
	}
	driver, err := backtest.NewDriver(cfg, stubOutcomes{}, stubPredictions{}, nil)
	require.NoError(t, err)
	return driver
}
