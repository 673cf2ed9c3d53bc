package eligibility

import "errors"

// Sentinel kinds for eligibility configuration errors.
var (
	ErrInvalidRange = errors.New("invalid jersey range")
	ErrInvalidRule  = errors.New("invalid jersey rule")
)
