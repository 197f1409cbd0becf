package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/kyotei-backtest/internal/models"
	"github.com/yourusername/kyotei-backtest/internal/repository"
)

// ModelDaySummary is one model's settled position for a single day
type ModelDaySummary struct {
	ModelName    string  `json:"model_name"`
	RaceCount    int     `json:"race_count"`
	HitCount     int     `json:"hit_count"`
	TotalBet     int64   `json:"total_bet"`
	TotalRefund  int64   `json:"total_refund"`
	TotalProfit  int64   `json:"total_profit"`
	RecoveryRate float64 `json:"recovery_rate"`
}

// DaySummary aggregates all models over one day's finished races.
// Unfinished races are reported as pending rather than settled at zero.
type DaySummary struct {
	Date          time.Time                   `json:"date"`
	RaceCount     int                         `json:"race_count"`
	FinishedRaces int                         `json:"finished_races"`
	PendingRaces  int                         `json:"pending_races"`
	Models        map[string]*ModelDaySummary `json:"models"`
}

// DashboardService produces the daily settled/pending view shown on the
// operations dashboard.
type DashboardService struct {
	outcomes    repository.OutcomeRepository
	predictions repository.PredictionRepository
	scheme      models.BetScheme
	modelNames  []string
	logger      *logrus.Logger
}

// NewDashboardService creates a dashboard service
func NewDashboardService(outcomes repository.OutcomeRepository, predictions repository.PredictionRepository, scheme models.BetScheme, modelNames []string, logger *logrus.Logger) (*DashboardService, error) {
	if outcomes == nil || predictions == nil {
		return nil, fmt.Errorf("outcome and prediction repositories are required")
	}
	if len(modelNames) == 0 {
		return nil, fmt.Errorf("at least one model is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &DashboardService{
		outcomes:    outcomes,
		predictions: predictions,
		scheme:      scheme,
		modelNames:  modelNames,
		logger:      logger,
	}, nil
}

// Summarize settles every finished race on the given date and counts the
// rest as pending. Races whose prediction is missing or fails to settle are
// logged and left out of that model's totals.
func (s *DashboardService) Summarize(ctx context.Context, date time.Time) (*DaySummary, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	races, err := s.outcomes.ListRaces(ctx, day, day, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list races for %s: %w", day.Format("2006-01-02"), err)
	}

	summary := &DaySummary{
		Date:      day,
		RaceCount: len(races),
		Models:    make(map[string]*ModelDaySummary, len(s.modelNames)),
	}
	for _, name := range s.modelNames {
		summary.Models[name] = &ModelDaySummary{ModelName: name}
	}

	for _, ref := range races {
		outcome, err := s.outcomes.GetOutcome(ctx, ref)
		if err != nil {
			s.logger.WithError(err).WithField("race", ref.String()).Warn("Outcome fetch failed")
			continue
		}
		if !outcome.IsFinished {
			summary.PendingRaces++
			continue
		}
		summary.FinishedRaces++

		for _, name := range s.modelNames {
			prediction, err := s.predictions.GetPrediction(ctx, name, ref)
			if err != nil {
				if !errors.Is(err, models.ErrNotFound) {
					s.logger.WithError(err).WithFields(logrus.Fields{
						"race":  ref.String(),
						"model": name,
					}).Warn("Prediction fetch failed")
				}
				continue
			}

			settlement, err := Settle(outcome, prediction, s.scheme)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"race":  ref.String(),
					"model": name,
				}).Warn("Settlement failed")
				continue
			}

			ms := summary.Models[name]
			ms.RaceCount++
			if settlement.Hit {
				ms.HitCount++
			}
			ms.TotalBet += settlement.BetAmount
			ms.TotalRefund += settlement.RefundAmount
			ms.TotalProfit += settlement.Profit
		}
	}

	for _, ms := range summary.Models {
		ms.RecoveryRate = recoveryRate(ms.TotalRefund, ms.TotalBet)
	}
	return summary, nil
}
