// Package scheduler runs recurring backtests and dashboard refreshes.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/kyotei-backtest/internal/backtest"
)

// Scheduler manages recurring backtest and dashboard jobs
type Scheduler struct {
	cron      *cron.Cron
	driver    *backtest.Driver
	dashboard *backtest.DashboardService
	logger    *logrus.Logger
	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a new scheduler
func NewScheduler(driver *backtest.Driver, dashboard *backtest.DashboardService, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		driver:    driver,
		dashboard: dashboard,
		logger:    logger,
		jobIDs:    make([]cron.EntryID, 0),
	}
}

// ScheduleNightlyBacktest schedules a backtest over the trailing window,
// exporting the result to outputPath when it is non-empty.
func (s *Scheduler) ScheduleNightlyBacktest(cronExpression string, windowDays int, outputPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if s.driver == nil {
		return fmt.Errorf("backtest driver is required")
	}
	if windowDays < 1 {
		windowDays = 7
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()

		end := time.Now().UTC().Truncate(24 * time.Hour)
		start := end.AddDate(0, 0, -windowDays)

		s.logger.WithFields(logrus.Fields{
			"start": start.Format("2006-01-02"),
			"end":   end.Format("2006-01-02"),
		}).Info("Starting scheduled backtest")

		cfg := s.driver.Config()
		cfg.StartDate = start
		cfg.EndDate = end
		driver, err := backtest.NewDriver(cfg, s.driver.Outcomes(), s.driver.Predictions(), s.logger)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled backtest setup failed")
			return
		}

		result, err := driver.Run(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled backtest failed")
			return
		}
		if outputPath != "" {
			if err := backtest.ExportToJSON(result, outputPath); err != nil {
				s.logger.WithError(err).Error("Scheduled backtest export failed")
			}
		}
		s.logger.WithFields(logrus.Fields{
			"run_id":    result.RunID,
			"evaluated": result.EvaluatedCount,
		}).Info("Scheduled backtest completed")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled nightly backtest job")

	return nil
}

// ScheduleDashboardRefresh schedules a periodic summary of today's races
func (s *Scheduler) ScheduleDashboardRefresh(intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if s.dashboard == nil {
		return fmt.Errorf("dashboard service is required")
	}
	if intervalSeconds < 30 {
		intervalSeconds = 30
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(intervalSeconds-1)*time.Second)
		defer cancel()

		summary, err := s.dashboard.Summarize(ctx, time.Now().UTC())
		if err != nil {
			s.logger.WithError(err).Error("Dashboard refresh failed")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"date":     summary.Date.Format("2006-01-02"),
			"finished": summary.FinishedRaces,
			"pending":  summary.PendingRaces,
		}).Info("Dashboard refreshed")
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval_seconds", intervalSeconds).Info("Scheduled dashboard refresh job")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}
