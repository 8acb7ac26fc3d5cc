package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrMalformedRule    = errors.New("malformed rule")
	ErrCombinationLimit = errors.New("combination limit exceeded")
	ErrNoCompleter      = errors.New("no language model configured")
)
