package modelservice

import "errors"

// Custom errors
var (
	ErrServiceUnavailable = errors.New("model service unavailable")
	ErrInvalidPrediction  = errors.New("model service returned an invalid prediction")
)
