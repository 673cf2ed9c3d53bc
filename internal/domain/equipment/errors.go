package equipment

import "errors"

// Sentinel kinds for equipment errors.
var (
	ErrInvalidTemplate = errors.New("invalid equipment template")
)
