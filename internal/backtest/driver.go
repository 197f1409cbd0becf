package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/kyotei-backtest/internal/metrics"
	"github.com/yourusername/kyotei-backtest/internal/models"
	"github.com/yourusername/kyotei-backtest/internal/repository"
)

// Skip reasons reported through counters and Prometheus labels
const (
	skipReasonUnfinished        = "unfinished"
	skipReasonMissingPrediction = "missing_prediction"
	skipReasonDataError         = "data_error"
)

// UnitFailure records one race/model unit that could not be settled
type UnitFailure struct {
	Ref       models.RaceRef `json:"race"`
	ModelName string         `json:"model_name"`
	Reason    string         `json:"reason"`
	Err       error          `json:"-"`
}

// ModelResult bundles one model's aggregates from a run
type ModelResult struct {
	Metrics    *AggregateMetrics `json:"metrics"`
	TimeSeries []TimeSeriesPoint `json:"time_series"`
}

// RunResult is the terminal state of one backtest run
type RunResult struct {
	RunID     uuid.UUID `json:"run_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Models     map[string]*ModelResult `json:"models"`
	Comparison *ComparisonResult       `json:"comparison"`

	EvaluatedCount           int  `json:"evaluated_count"`
	SkippedUnfinished        int  `json:"skipped_unfinished"`
	SkippedMissingPrediction int  `json:"skipped_missing_prediction"`
	SkippedDataError         int  `json:"skipped_data_error"`
	Cancelled                bool `json:"cancelled"`

	Failures []UnitFailure `json:"failures,omitempty"`
}

// Driver orchestrates a backtest run: it iterates the date range, fans the
// per-race fetch+settle work out across workers, and merges the partial
// aggregates in a sequential date-ordered reduce per model.
type Driver struct {
	outcomes    repository.OutcomeRepository
	predictions repository.PredictionRepository
	config      RunConfig
	logger      *logrus.Logger
}

// NewDriver creates a backtest driver
func NewDriver(cfg RunConfig, outcomes repository.OutcomeRepository, predictions repository.PredictionRepository, logger *logrus.Logger) (*Driver, error) {
	if outcomes == nil {
		return nil, fmt.Errorf("outcome repository is required")
	}
	if predictions == nil {
		return nil, fmt.Errorf("prediction repository is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Driver{
		outcomes:    outcomes,
		predictions: predictions,
		config:      cfg,
		logger:      logger,
	}, nil
}

// Config returns the run configuration
func (d *Driver) Config() RunConfig {
	return d.config
}

// Outcomes returns the outcome repository the driver reads from
func (d *Driver) Outcomes() repository.OutcomeRepository {
	return d.outcomes
}

// Predictions returns the prediction repository the driver reads from
func (d *Driver) Predictions() repository.PredictionRepository {
	return d.predictions
}

// raceUnit is the output of one parallel unit of work: everything a single
// race produced across all selected models.
type raceUnit struct {
	ref         models.RaceRef
	unfinished  bool
	settlements []*models.Settlement
	predictions map[string]*models.Prediction
	missing     int
	failures    []UnitFailure
}

// Run executes the backtest over the configured date range. Cancelling the
// context stops dispatching new races; work already completed is still
// reduced and returned with Cancelled set.
func (d *Driver) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{
		RunID:     uuid.New(),
		StartDate: d.config.StartDate,
		EndDate:   d.config.EndDate,
		Models:    make(map[string]*ModelResult, len(d.config.Models)),
	}

	races, err := d.outcomes.ListRaces(ctx, d.config.StartDate, d.config.EndDate, d.config.StadiumIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	if d.config.RaceFilter != nil {
		filtered := races[:0]
		for _, ref := range races {
			if d.config.RaceFilter(ref) {
				filtered = append(filtered, ref)
			}
		}
		races = filtered
	}

	d.logger.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"races":  len(races),
		"models": d.config.Models,
		"start":  d.config.StartDate.Format("2006-01-02"),
		"end":    d.config.EndDate.Format("2006-01-02"),
	}).Info("Starting backtest run")

	units := d.runParallel(ctx, races)
	result.Cancelled = ctx.Err() != nil

	d.reduce(units, result)

	metrics.RunDuration.Observe(time.Since(started).Seconds())
	for name, mr := range result.Models {
		metrics.RecordRunResult(name, mr.Metrics.RecoveryRate, mr.Metrics.TotalProfit)
	}

	d.logger.WithFields(logrus.Fields{
		"run_id":    result.RunID,
		"evaluated": result.EvaluatedCount,
		"skipped_unfinished": result.SkippedUnfinished,
		"skipped_missing":    result.SkippedMissingPrediction,
		"skipped_data_error": result.SkippedDataError,
		"cancelled":          result.Cancelled,
		"duration":           time.Since(started).String(),
	}).Info("Backtest run completed")

	return result, nil
}

// runParallel fans race units out across workers. Settlement computation is
// order-independent, so only the reduce phase needs chronological ordering.
func (d *Driver) runParallel(ctx context.Context, races []models.RaceRef) []*raceUnit {
	workers := d.config.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan models.RaceRef)
	results := make(chan *raceUnit, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				results <- d.processRace(ctx, ref)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, ref := range races {
			select {
			case jobs <- ref:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	units := make([]*raceUnit, 0, len(races))
	for unit := range results {
		units = append(units, unit)
	}
	return units
}

// processRace is one parallel unit of work: fetch the outcome, then fetch
// and settle every selected model's prediction for the race.
func (d *Driver) processRace(ctx context.Context, ref models.RaceRef) *raceUnit {
	unit := &raceUnit{ref: ref}

	outcome, err := d.outcomes.GetOutcome(ctx, ref)
	if err != nil {
		for _, modelName := range d.config.Models {
			unit.failures = append(unit.failures, UnitFailure{
				Ref:       ref,
				ModelName: modelName,
				Reason:    "outcome fetch failed",
				Err:       err,
			})
		}
		return unit
	}
	if !outcome.IsFinished {
		unit.unfinished = true
		return unit
	}

	unit.predictions = make(map[string]*models.Prediction, len(d.config.Models))
	for _, modelName := range d.config.Models {
		prediction, err := d.predictions.GetPrediction(ctx, modelName, ref)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				unit.missing++
				continue
			}
			unit.failures = append(unit.failures, UnitFailure{
				Ref:       ref,
				ModelName: modelName,
				Reason:    "prediction fetch failed",
				Err:       err,
			})
			continue
		}
		unit.predictions[modelName] = prediction

		settlement, err := Settle(outcome, prediction, d.config.Scheme)
		if err != nil {
			unit.failures = append(unit.failures, UnitFailure{
				Ref:       ref,
				ModelName: modelName,
				Reason:    err.Error(),
				Err:       err,
			})
			continue
		}
		unit.settlements = append(unit.settlements, settlement)
	}
	return unit
}

// reduce merges race units into the run result: comparator fragments in any
// order, settlements in a sequential sorted-by-date fold per model.
func (d *Driver) reduce(units []*raceUnit, result *RunResult) {
	comparator := NewComparator()
	perModel := make(map[string][]*models.Settlement, len(d.config.Models))

	for _, unit := range units {
		if unit.unfinished {
			result.SkippedUnfinished += len(d.config.Models)
			metrics.RacesSkippedTotal.WithLabelValues(skipReasonUnfinished).Add(float64(len(d.config.Models)))
			continue
		}
		result.SkippedMissingPrediction += unit.missing
		if unit.missing > 0 {
			metrics.RacesSkippedTotal.WithLabelValues(skipReasonMissingPrediction).Add(float64(unit.missing))
		}
		for _, failure := range unit.failures {
			result.SkippedDataError++
			result.Failures = append(result.Failures, failure)
			metrics.RecordSkipped(skipReasonDataError)
			metrics.SettlementFailuresTotal.Inc()
			d.logger.WithFields(logrus.Fields{
				"race":  failure.Ref.String(),
				"model": failure.ModelName,
			}).WithError(failure.Err).Warn("Race/model unit failed")
		}

		if len(unit.predictions) >= 2 {
			comparator.Observe(unit.predictions)
		}
		for _, settlement := range unit.settlements {
			perModel[settlement.ModelName] = append(perModel[settlement.ModelName], settlement)
		}
	}

	for _, modelName := range d.config.Models {
		settlements := perModel[modelName]
		sort.Slice(settlements, func(i, j int) bool {
			a, b := settlements[i], settlements[j]
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			if a.StadiumID != b.StadiumID {
				return a.StadiumID < b.StadiumID
			}
			return a.RaceIndex < b.RaceIndex
		})

		aggregate := NewAggregateMetrics(modelName)
		series := NewTimeSeries()
		for _, settlement := range settlements {
			aggregate.Fold(settlement)
			if err := series.Fold(settlement); err != nil {
				// Cannot happen after the sort above; surface it rather
				// than corrupt the series.
				result.Failures = append(result.Failures, UnitFailure{
					Ref: models.RaceRef{
						Date:      settlement.Date,
						StadiumID: settlement.StadiumID,
						RaceIndex: settlement.RaceIndex,
					},
					ModelName: modelName,
					Reason:    err.Error(),
					Err:       err,
				})
				continue
			}
			result.EvaluatedCount++
			metrics.RecordEvaluated()
		}
		result.Models[modelName] = &ModelResult{
			Metrics:    aggregate,
			TimeSeries: series.Finalize(),
		}
	}

	result.Comparison = comparator.Result()
}
