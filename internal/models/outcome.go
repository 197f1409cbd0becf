package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ComboKey is the wire representation of one ordered wager combination,
// e.g. "2-4-1" for a trifecta or "2-4" for a quinella.
type ComboKey string

// TrifectaKey builds the ordered three-boat combination key
func TrifectaKey(first, second, third int) ComboKey {
	return ComboKey(fmt.Sprintf("%d-%d-%d", first, second, third))
}

// QuinellaKey builds the ordered two-boat combination key
func QuinellaKey(first, second int) ComboKey {
	return ComboKey(fmt.Sprintf("%d-%d", first, second))
}

// Boats returns the boat numbers of the combination in key order
func (k ComboKey) Boats() []int {
	parts := strings.Split(string(k), "-")
	boats := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil
		}
		boats = append(boats, n)
	}
	return boats
}

// RaceRef identifies a single race at a stadium on a date
type RaceRef struct {
	Date      time.Time `db:"race_date" json:"race_date"`
	StadiumID int       `db:"stadium_id" json:"stadium_id" validate:"required,min=1,max=24"`
	RaceIndex int       `db:"race_index" json:"race_index" validate:"required,min=1,max=12"`
	RaceName  string    `db:"race_name" json:"race_name,omitempty"`
}

// String returns a compact identifier used in logs and failure reports
func (r RaceRef) String() string {
	return fmt.Sprintf("%s/%d/%dR", r.Date.Format("2006-01-02"), r.StadiumID, r.RaceIndex)
}

// RaceOutcome is the official result of one race, including the payout table
// for the combinations that actually paid.
type RaceOutcome struct {
	RaceRef
	// ActualOrder is a permutation of boats 1..6 sorted by finishing position;
	// the first three entries are the official top-3.
	ActualOrder []int                        `json:"actual_order"`
	PayoutTable map[ComboKey]decimal.Decimal `json:"payout_table"`
	IsFinished  bool                         `json:"is_finished"`
}

// TopThree returns the official top-3 boats in finishing order
func (o *RaceOutcome) TopThree() []int {
	if len(o.ActualOrder) < 3 {
		return nil
	}
	return o.ActualOrder[:3]
}

// WinningKey derives the single paying combination key for a bet type
func (o *RaceOutcome) WinningKey(betType BetType) ComboKey {
	if len(o.ActualOrder) < 3 {
		return ""
	}
	if betType.BoatCount() == 2 {
		return QuinellaKey(o.ActualOrder[0], o.ActualOrder[1])
	}
	return TrifectaKey(o.ActualOrder[0], o.ActualOrder[1], o.ActualOrder[2])
}

// Validate checks the structural invariants of a finished outcome
func (o *RaceOutcome) Validate() error {
	if !o.IsFinished {
		return nil
	}
	if len(o.ActualOrder) != 6 {
		return fmt.Errorf("%w: actual order has %d entries", ErrInvalidRaceOutcome, len(o.ActualOrder))
	}
	seen := make(map[int]bool, 6)
	for _, boat := range o.ActualOrder {
		if boat < 1 || boat > 6 || seen[boat] {
			return fmt.Errorf("%w: actual order %v is not a permutation of 1..6", ErrInvalidRaceOutcome, o.ActualOrder)
		}
		seen[boat] = true
	}
	return nil
}
