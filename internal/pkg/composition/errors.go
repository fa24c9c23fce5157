package composition

import "errors"

var (
	// ErrValidation marks malformed input: unknown enums, bad colors, empty required fields.
	ErrValidation = errors.New("validation error")
	// ErrInvariantViolation marks a mutation that would break a structural rule.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrNotFound marks a reference to a color or layer id that does not exist.
	ErrNotFound = errors.New("not found")
)
