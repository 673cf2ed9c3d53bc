package service

import "errors"

// Sentinel error kinds for this package.
var (
	ErrConfig = errors.New("configuration error")
	ErrInput  = errors.New("input error")
	ErrOutput = errors.New("output error")
)

// Run error kinds reported to metrics.
const (
	kindConfig     = "config"
	kindInput      = "input"
	kindAllocation = "allocation"
	kindOutput     = "output"
)
