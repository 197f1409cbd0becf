package backtest

import (
	"math"
	"testing"

	"github.com/yourusername/kyotei-backtest/internal/models"
)

func comparisonPrediction(model string, boats []int, probs map[int]float64) *models.Prediction {
	return &models.Prediction{
		ModelName:         model,
		RecommendedBoats:  boats,
		BoatProbabilities: probs,
		BetType:           models.BetTypeTrifectaBox,
	}
}

func TestComparatorCanonicalPairKey(t *testing.T) {
	c := NewComparator()
	c.Observe(map[string]*models.Prediction{
		"lightgbm":    comparisonPrediction("lightgbm", []int{1, 2, 4}, nil),
		"transformer": comparisonPrediction("transformer", []int{4, 2, 1}, nil),
	})

	result := c.Result()
	if len(result.AgreementMatrix) != 1 {
		t.Fatalf("expected one canonical pair entry, got %d", len(result.AgreementMatrix))
	}
	agreement, ok := result.AgreementMatrix["lightgbm_vs_transformer"]
	if !ok {
		t.Fatalf("expected key lightgbm_vs_transformer, got %v", result.AgreementMatrix)
	}
	// Same boat set in a different order still counts as agreement.
	if agreement != 1 {
		t.Errorf("expected agreement 1, got %f", agreement)
	}
}

func TestComparatorAgreementFraction(t *testing.T) {
	c := NewComparator()
	// Race 1: identical sets. Race 2: different sets.
	c.Observe(map[string]*models.Prediction{
		"a": comparisonPrediction("a", []int{1, 2, 3}, nil),
		"b": comparisonPrediction("b", []int{3, 2, 1}, nil),
	})
	c.Observe(map[string]*models.Prediction{
		"a": comparisonPrediction("a", []int{1, 2, 3}, nil),
		"b": comparisonPrediction("b", []int{1, 2, 5}, nil),
	})

	result := c.Result()
	if got := result.AgreementMatrix["a_vs_b"]; got != 0.5 {
		t.Errorf("expected agreement 0.5, got %f", got)
	}
}

func TestComparatorThreeModels(t *testing.T) {
	c := NewComparator()
	c.Observe(map[string]*models.Prediction{
		"a": comparisonPrediction("a", []int{1, 2, 3}, nil),
		"b": comparisonPrediction("b", []int{1, 2, 3}, nil),
		"c": comparisonPrediction("c", []int{4, 5, 6}, nil),
	})

	result := c.Result()
	if len(result.AgreementMatrix) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(result.AgreementMatrix))
	}
	if result.AgreementMatrix["a_vs_b"] != 1 {
		t.Errorf("expected a_vs_b agreement 1, got %f", result.AgreementMatrix["a_vs_b"])
	}
	if result.AgreementMatrix["a_vs_c"] != 0 || result.AgreementMatrix["b_vs_c"] != 0 {
		t.Error("expected zero agreement against model c")
	}
}

func TestComparatorBoatStats(t *testing.T) {
	c := NewComparator()
	c.Observe(map[string]*models.Prediction{
		"a": comparisonPrediction("a", []int{1, 2, 3}, map[int]float64{1: 0.5}),
		"b": comparisonPrediction("b", []int{1, 2, 3}, map[int]float64{1: 0.3}),
	})
	c.Observe(map[string]*models.Prediction{
		"a": comparisonPrediction("a", []int{1, 2, 3}, map[int]float64{1: 0.4}),
	})

	stats, ok := c.Result().BoatAvgProbabilities[1]
	if !ok {
		t.Fatal("expected stats for boat 1")
	}
	if math.Abs(stats.Mean-0.4) > 1e-9 {
		t.Errorf("expected mean 0.4, got %f", stats.Mean)
	}
	wantStd := math.Sqrt(0.02 / 3) // population std of {0.5, 0.3, 0.4}
	if math.Abs(stats.Std-wantStd) > 1e-9 {
		t.Errorf("expected std %f, got %f", wantStd, stats.Std)
	}
	if stats.Min != 0.3 || stats.Max != 0.5 {
		t.Errorf("unexpected min/max: %f/%f", stats.Min, stats.Max)
	}
}

func TestComparatorEmpty(t *testing.T) {
	result := NewComparator().Result()
	if len(result.AgreementMatrix) != 0 || len(result.BoatAvgProbabilities) != 0 {
		t.Error("expected empty result")
	}
}
