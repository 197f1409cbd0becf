package models

import "errors"

// Custom errors
var (
	ErrInvalidBetSpec     = errors.New("recommended boats do not satisfy the bet type")
	ErrRaceNotFinished    = errors.New("race is not finished")
	ErrMissingPayoutData  = errors.New("payout table has no entry for the winning combination")
	ErrUnorderedInput     = errors.New("settlements must be folded in date order")
	ErrNotFound           = errors.New("record not found")
	ErrInvalidRaceOutcome = errors.New("invalid race outcome data")
)
