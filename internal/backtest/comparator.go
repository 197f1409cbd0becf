package backtest

import (
	"math"
	"sort"
	"sync"

	"github.com/yourusername/kyotei-backtest/internal/models"
)

// BoatProbabilityStats summarizes cross-model probabilities for one boat
type BoatProbabilityStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ComparisonResult is the merged cross-model view over a whole run
type ComparisonResult struct {
	// AgreementMatrix holds one canonical "A_vs_B" entry (A < B) per model
	// pair: the fraction of jointly-predicted races where both models
	// recommended the identical boat set, order-independent.
	AgreementMatrix map[string]float64 `json:"agreement_matrix"`

	BoatAvgProbabilities map[int]BoatProbabilityStats `json:"boat_avg_probabilities"`
}

// Comparator folds per-race prediction sets from multiple models into a
// running agreement matrix and per-boat probability statistics. Per-race
// fragments are commutative, so Observe may be called from any goroutine.
type Comparator struct {
	mu    sync.Mutex
	pairs map[string]*pairTally
	boats map[int]*welford
}

type pairTally struct {
	races  int
	agreed int
}

// NewComparator creates an empty comparator
func NewComparator() *Comparator {
	return &Comparator{
		pairs: make(map[string]*pairTally),
		boats: make(map[int]*welford),
	}
}

// Observe folds one race's predictions. Races with fewer than two models
// contribute nothing to the agreement matrix, but single-model probability
// samples still feed the per-boat statistics when present.
func (c *Comparator) Observe(predictions map[string]*models.Prediction) {
	if len(predictions) == 0 {
		return
	}

	names := make([]string, 0, len(predictions))
	for name := range predictions {
		names = append(names, name)
	}
	sort.Strings(names)

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, nameA := range names {
		for _, nameB := range names[i+1:] {
			key := nameA + "_vs_" + nameB
			tally, ok := c.pairs[key]
			if !ok {
				tally = &pairTally{}
				c.pairs[key] = tally
			}
			tally.races++
			if sameBoatSet(predictions[nameA].RecommendedBoats, predictions[nameB].RecommendedBoats) {
				tally.agreed++
			}
		}
	}

	for _, name := range names {
		for boat, prob := range predictions[name].BoatProbabilities {
			w, ok := c.boats[boat]
			if !ok {
				w = newWelford()
				c.boats[boat] = w
			}
			w.push(prob)
		}
	}
}

// Result snapshots the merged comparison
func (c *Comparator) Result() *ComparisonResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := &ComparisonResult{
		AgreementMatrix:      make(map[string]float64, len(c.pairs)),
		BoatAvgProbabilities: make(map[int]BoatProbabilityStats, len(c.boats)),
	}
	for key, tally := range c.pairs {
		result.AgreementMatrix[key] = float64(tally.agreed) / float64(tally.races)
	}
	for boat, w := range c.boats {
		result.BoatAvgProbabilities[boat] = w.stats()
	}
	return result
}

func sameBoatSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, boat := range a {
		set[boat] = true
	}
	for _, boat := range b {
		if !set[boat] {
			return false
		}
	}
	return true
}

// welford is an incremental mean/variance accumulator (Welford's algorithm),
// so statistics never require re-scanning prediction history.
type welford struct {
	count int
	mean  float64
	m2    float64
	min   float64
	max   float64
}

func newWelford() *welford {
	return &welford{min: math.Inf(1), max: math.Inf(-1)}
}

func (w *welford) push(x float64) {
	w.count++
	delta := x - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (x - w.mean)
	if x < w.min {
		w.min = x
	}
	if x > w.max {
		w.max = x
	}
}

func (w *welford) stats() BoatProbabilityStats {
	if w.count == 0 {
		return BoatProbabilityStats{}
	}
	return BoatProbabilityStats{
		Mean: w.mean,
		Std:  math.Sqrt(w.m2 / float64(w.count)),
		Min:  w.min,
		Max:  w.max,
	}
}
