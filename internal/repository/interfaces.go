package repository

import (
	"context"
	"time"

	"github.com/yourusername/kyotei-backtest/internal/models"
)

// OutcomeRepository defines the interface for race outcome data access
type OutcomeRepository interface {
	// ListRaces returns the races held in [start, end], optionally restricted
	// to the given stadiums, ordered by date, stadium and race index.
	ListRaces(ctx context.Context, start, end time.Time, stadiumIDs []int) ([]models.RaceRef, error)

	// GetOutcome returns the outcome for one race. Future or incomplete races
	// come back with IsFinished=false rather than an error.
	GetOutcome(ctx context.Context, ref models.RaceRef) (*models.RaceOutcome, error)
}

// PredictionRepository defines the interface for model prediction access.
// Implementations may call a model-serving backend, read precomputed rows
// from storage, or wrap either in a cache; the engine only needs the shape.
type PredictionRepository interface {
	// GetPrediction returns one model's prediction for one race, or
	// models.ErrNotFound when the model has no prediction for it.
	GetPrediction(ctx context.Context, modelName string, ref models.RaceRef) (*models.Prediction, error)
}
