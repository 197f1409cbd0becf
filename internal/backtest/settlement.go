package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yourusername/kyotei-backtest/internal/models"
)

// Settle computes the monetary outcome of one race for one model under one
// bet scheme. The caller must have filtered out unfinished races already;
// passing one is a contract violation, not a recoverable condition.
//
// A box bet is a hit when the unordered recommended set equals the actual
// set, but only the one combo matching the exact finishing order returns
// money. The other purchased combos are sunk cost, already charged through
// BetAmount.
func Settle(outcome *models.RaceOutcome, prediction *models.Prediction, scheme models.BetScheme) (*models.Settlement, error) {
	if !outcome.IsFinished {
		return nil, fmt.Errorf("%w: %s", models.ErrRaceNotFinished, outcome.RaceRef)
	}
	if err := outcome.Validate(); err != nil {
		return nil, err
	}

	combos, err := Combinations(prediction.RecommendedBoats, scheme.BetType)
	if err != nil {
		return nil, err
	}

	winningKey := outcome.WinningKey(scheme.BetType)
	hit := false
	for _, combo := range combos {
		if combo == winningKey {
			hit = true
			break
		}
	}

	settlement := &models.Settlement{
		Date:         outcome.Date,
		StadiumID:    outcome.StadiumID,
		RaceIndex:    outcome.RaceIndex,
		ModelName:    prediction.ModelName,
		Hit:          hit,
		BetAmount:    scheme.BetAmount(),
		PartialMatch: partialMatch(prediction.RecommendedBoats, outcome.TopThree()),
	}

	if hit {
		odds, ok := outcome.PayoutTable[winningKey]
		if !ok {
			return nil, fmt.Errorf("%w: %s key %s", models.ErrMissingPayoutData, outcome.RaceRef, winningKey)
		}
		settlement.RefundAmount = decimal.NewFromInt(scheme.StakePerCombo).Mul(odds).Round(0).IntPart()
	}
	settlement.Profit = settlement.RefundAmount - settlement.BetAmount

	return settlement, nil
}

// partialMatch counts recommended boats that finished in the top-3,
// order-independent. At most the first three recommended boats count.
func partialMatch(recommended, topThree []int) int {
	if len(recommended) > 3 {
		recommended = recommended[:3]
	}
	actual := make(map[int]bool, len(topThree))
	for _, boat := range topThree {
		actual[boat] = true
	}
	matched := 0
	for _, boat := range recommended {
		if actual[boat] {
			matched++
		}
	}
	return matched
}
