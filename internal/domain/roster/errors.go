package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidCell   = errors.New("invalid integer cell")
	ErrRowOutOfRange = errors.New("row out of range")
)
