package lspiv

import "github.com/pkg/errors"

var (
	// ErrPrecondition is returned when the caller violates an input contract
	// (mismatched array lengths, frame time going backwards). Not retried.
	ErrPrecondition = errors.New("precondition violated")
	// ErrConfiguration is returned for unknown method names and invalid parameters
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidObservation is returned for observations breaking track invariants:
	// non-increasing timestamps or degenerate geometry
	ErrInvalidObservation = errors.New("invalid observation")
)
