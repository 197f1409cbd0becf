package models

import (
	"fmt"
	"time"
)

// Prediction is the shape every model backend must produce for one race.
// The engine does not care whether it came from a gradient-boosted,
// attention-based or Bayesian predictor.
type Prediction struct {
	ModelName string    `json:"model_name" validate:"required"`
	Date      time.Time `json:"race_date" validate:"required"`
	StadiumID int       `json:"stadium_id" validate:"required,min=1,max=24"`
	RaceIndex int       `json:"race_index" validate:"required,min=1,max=12"`

	// BoatProbabilities maps boat number (1..6) to the model's probability.
	// Models normalize differently, so the values need not sum to 1.
	BoatProbabilities map[int]float64 `json:"boat_probabilities"`

	// BoatUncertainty carries per-boat standard deviations from Bayesian
	// backends. Display-only: settlement arithmetic never reads it.
	BoatUncertainty map[int]float64 `json:"boat_uncertainty,omitempty"`

	// RecommendedBoats is the model's ordered top-K pick: 3 boats for
	// trifecta schemes, 2 for quinella schemes.
	RecommendedBoats []int `json:"recommended_boats"`

	BetType BetType `json:"bet_type"`
}

// RecommendedSet returns the recommendation as a membership set
func (p *Prediction) RecommendedSet() map[int]bool {
	set := make(map[int]bool, len(p.RecommendedBoats))
	for _, boat := range p.RecommendedBoats {
		set[boat] = true
	}
	return set
}

// Validate checks the recommendation against the bet type's requirements
func (p *Prediction) Validate() error {
	want := p.BetType.BoatCount()
	if len(p.RecommendedBoats) != want {
		return fmt.Errorf("%w: %s needs %d boats, got %d",
			ErrInvalidBetSpec, p.BetType, want, len(p.RecommendedBoats))
	}
	if len(p.RecommendedSet()) != len(p.RecommendedBoats) {
		return fmt.Errorf("%w: duplicate boats in %v", ErrInvalidBetSpec, p.RecommendedBoats)
	}
	return nil
}
