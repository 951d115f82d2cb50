package domain

import "errors"

// Error kinds surfaced by the core services. Callers (the web layer,
// CLI tools) branch on these with errors.Is; everything else wraps them
// with fmt.Errorf("...: %w", Err...).
var (
	// ErrNotFound is returned when a referenced position does not exist
	// in the store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParameter is returned for malformed numeric inputs:
	// non-positive prices or sizes, fast period >= slow period, risk
	// percent outside (0, 10].
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidState is returned when an operation is attempted against
	// a position whose status disallows it, e.g. closing an already
	// closed position.
	ErrInvalidState = errors.New("invalid state")

	// ErrInsufficientData is returned when a historical candle series is
	// shorter than the minimum window a calculation requires.
	ErrInsufficientData = errors.New("insufficient data")
)
