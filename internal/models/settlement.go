package models

import "time"

// Settlement is the monetary outcome of one race for one model under one
// bet scheme. Computed once per finished race and never mutated afterwards;
// aggregators only fold copies of it.
type Settlement struct {
	Date      time.Time `json:"race_date"`
	StadiumID int       `json:"stadium_id"`
	RaceIndex int       `json:"race_index"`
	ModelName string    `json:"model_name"`

	Hit          bool  `json:"hit"`
	BetAmount    int64 `json:"bet_amount"`
	RefundAmount int64 `json:"refund_amount"`
	Profit       int64 `json:"profit"`

	// PartialMatch is the size of the intersection between the recommended
	// boats and the actual top-3, independent of bet type. Diagnostic only.
	PartialMatch int `json:"partial_match"`
}
