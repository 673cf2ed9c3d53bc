package logic

import "errors"

// Sentinel error kinds for this package.
var (
	ErrMissingFile = errors.New("rule file not found")
	ErrDecode      = errors.New("decode rule file")
)
