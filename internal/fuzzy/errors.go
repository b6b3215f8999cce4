package fuzzy

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRangeInput is returned when a crisp input lies outside its
	// variable's universe. Callers are expected to clamp first.
	ErrOutOfRangeInput = errors.New("fuzzy: input outside universe of discourse")

	// ErrCompute is the parent of every failure raised while computing the
	// aggregated output.
	ErrCompute = errors.New("fuzzy: compute failed")

	// ErrNoRuleFired means the aggregated output is zero everywhere, so the
	// centroid is undefined.
	ErrNoRuleFired = fmt.Errorf("%w: no rule fired for the given inputs", ErrCompute)

	ErrUnknownVariable  = errors.New("fuzzy: unknown variable")
	ErrUnknownTerm      = errors.New("fuzzy: unknown linguistic term")
	ErrInvalidUniverse  = errors.New("fuzzy: invalid universe")
	ErrInvalidTriangle  = errors.New("fuzzy: invalid triangle break points")
	ErrInputsIncomplete = errors.New("fuzzy: not every input variable has been set")
	ErrNotComputed      = errors.New("fuzzy: output requested before compute")
)
