package models

import "fmt"

// BetType identifies the wagering scheme being simulated
type BetType string

// Supported bet types
const (
	BetTypeTrifectaExact BetType = "trifecta_exact"
	BetTypeTrifectaBox   BetType = "trifecta_box"
	BetTypeQuinellaExact BetType = "quinella_exact"
	BetTypeQuinellaBox   BetType = "quinella_box"
)

// DefaultStakePerCombo is the standard 100-yen unit stake
const DefaultStakePerCombo int64 = 100

// ParseBetType parses a bet type string
func ParseBetType(s string) (BetType, error) {
	switch BetType(s) {
	case BetTypeTrifectaExact, BetTypeTrifectaBox, BetTypeQuinellaExact, BetTypeQuinellaBox:
		return BetType(s), nil
	}
	return "", fmt.Errorf("unknown bet type %q", s)
}

// BoatCount returns how many boats a recommendation must contain for this type
func (t BetType) BoatCount() int {
	switch t {
	case BetTypeQuinellaExact, BetTypeQuinellaBox:
		return 2
	default:
		return 3
	}
}

// IsBox reports whether the type covers every ordering of the chosen boats
func (t BetType) IsBox() bool {
	return t == BetTypeTrifectaBox || t == BetTypeQuinellaBox
}

// BetScheme is an immutable wagering configuration threaded through settlement
type BetScheme struct {
	BetType       BetType `json:"bet_type"`
	StakePerCombo int64   `json:"stake_per_combo"`
}

// NewBetScheme creates a scheme with the default stake when stake <= 0
func NewBetScheme(betType BetType, stakePerCombo int64) BetScheme {
	if stakePerCombo <= 0 {
		stakePerCombo = DefaultStakePerCombo
	}
	return BetScheme{BetType: betType, StakePerCombo: stakePerCombo}
}

// ComboCount returns the number of combinations the scheme purchases
func (s BetScheme) ComboCount() int {
	switch s.BetType {
	case BetTypeTrifectaBox:
		return 6
	case BetTypeQuinellaBox:
		return 2
	default:
		return 1
	}
}

// BetAmount returns the total amount charged per race, independent of outcome
func (s BetScheme) BetAmount() int64 {
	return int64(s.ComboCount()) * s.StakePerCombo
}
