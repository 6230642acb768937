package domain

import "errors"

// Error kinds from spec.md §7, all fatal to a single solve call.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmptyPool        = errors.New("empty candidate pool")
	ErrInsufficientDays = errors.New("insufficient distinct days")
)

// SolverFailure reports a terminal non-feasibility code from the backing
// solver that wasn't accompanied by a captured solution.
type SolverFailure struct {
	Status string
}

func (e *SolverFailure) Error() string {
	return "solver failure: " + e.Status
}
