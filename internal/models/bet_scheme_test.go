package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBetType(t *testing.T) {
	for _, valid := range []string{"trifecta_exact", "trifecta_box", "quinella_exact", "quinella_box"} {
		parsed, err := ParseBetType(valid)
		require.NoError(t, err)
		assert.Equal(t, BetType(valid), parsed)
	}

	_, err := ParseBetType("win")
	assert.Error(t, err)
	_, err = ParseBetType("")
	assert.Error(t, err)
}

func TestBetTypeBoatCount(t *testing.T) {
	assert.Equal(t, 3, BetTypeTrifectaExact.BoatCount())
	assert.Equal(t, 3, BetTypeTrifectaBox.BoatCount())
	assert.Equal(t, 2, BetTypeQuinellaExact.BoatCount())
	assert.Equal(t, 2, BetTypeQuinellaBox.BoatCount())
}

func TestBetSchemeComboCount(t *testing.T) {
	assert.Equal(t, 1, NewBetScheme(BetTypeTrifectaExact, 100).ComboCount())
	assert.Equal(t, 6, NewBetScheme(BetTypeTrifectaBox, 100).ComboCount())
	assert.Equal(t, 1, NewBetScheme(BetTypeQuinellaExact, 100).ComboCount())
	assert.Equal(t, 2, NewBetScheme(BetTypeQuinellaBox, 100).ComboCount())
}

func TestBetSchemeBetAmount(t *testing.T) {
	assert.Equal(t, int64(600), NewBetScheme(BetTypeTrifectaBox, 100).BetAmount())
	assert.Equal(t, int64(1200), NewBetScheme(BetTypeTrifectaBox, 200).BetAmount())
	assert.Equal(t, int64(100), NewBetScheme(BetTypeTrifectaExact, 100).BetAmount())
	assert.Equal(t, int64(200), NewBetScheme(BetTypeQuinellaBox, 100).BetAmount())
}

func TestNewBetSchemeDefaultStake(t *testing.T) {
	assert.Equal(t, DefaultStakePerCombo, NewBetScheme(BetTypeTrifectaBox, 0).StakePerCombo)
	assert.Equal(t, DefaultStakePerCombo, NewBetScheme(BetTypeTrifectaBox, -50).StakePerCombo)
	assert.Equal(t, int64(500), NewBetScheme(BetTypeTrifectaBox, 500).StakePerCombo)
}
