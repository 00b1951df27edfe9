package generator

import "errors"

// Input errors are returned at construction. ErrDegenerateZeroSeed is only
// returned in strict mode.
var (
	ErrInvalidSeed           = errors.New("invalid seed")
	ErrInvalidIterationCount = errors.New("invalid iteration count")
	ErrDegenerateZeroSeed    = errors.New("seed collapsed to zero")
	ErrExhausted             = errors.New("generator exhausted")
)
