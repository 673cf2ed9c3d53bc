package csvio

import "errors"

// Sentinel error kinds for this package.
var (
	ErrEmpty     = errors.New("roster file is empty")
	ErrMalformed = errors.New("malformed roster csv")
	ErrNoInput   = errors.New("no roster csv found")
	ErrWrite     = errors.New("write roster csv")
)
