package backtest

import (
	"fmt"

	"github.com/yourusername/kyotei-backtest/internal/models"
)

// Combinations expands a recommended boat set into the concrete wager keys
// implied by the bet type: a single ordered key for exact types, every
// permutation of the chosen boats for box types.
func Combinations(boats []int, betType models.BetType) ([]models.ComboKey, error) {
	if err := validateBoats(boats, betType); err != nil {
		return nil, err
	}

	switch betType {
	case models.BetTypeTrifectaExact:
		return []models.ComboKey{models.TrifectaKey(boats[0], boats[1], boats[2])}, nil
	case models.BetTypeQuinellaExact:
		return []models.ComboKey{models.QuinellaKey(boats[0], boats[1])}, nil
	case models.BetTypeQuinellaBox:
		return []models.ComboKey{
			models.QuinellaKey(boats[0], boats[1]),
			models.QuinellaKey(boats[1], boats[0]),
		}, nil
	case models.BetTypeTrifectaBox:
		keys := make([]models.ComboKey, 0, 6)
		for _, p := range trifectaPermutations {
			keys = append(keys, models.TrifectaKey(boats[p[0]], boats[p[1]], boats[p[2]]))
		}
		return keys, nil
	}
	return nil, fmt.Errorf("%w: unsupported bet type %q", models.ErrInvalidBetSpec, betType)
}

// Index permutations of a 3-boat set, in lexicographic order
var trifectaPermutations = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

func validateBoats(boats []int, betType models.BetType) error {
	want := betType.BoatCount()
	if len(boats) != want {
		return fmt.Errorf("%w: %s requires %d boats, got %d",
			models.ErrInvalidBetSpec, betType, want, len(boats))
	}
	seen := make(map[int]bool, len(boats))
	for _, boat := range boats {
		if boat < 1 || boat > 6 {
			return fmt.Errorf("%w: boat number %d out of range", models.ErrInvalidBetSpec, boat)
		}
		if seen[boat] {
			return fmt.Errorf("%w: duplicate boat %d", models.ErrInvalidBetSpec, boat)
		}
		seen[boat] = true
	}
	return nil
}
