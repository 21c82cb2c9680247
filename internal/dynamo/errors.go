package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates an invalid setup: duplicate ids, non-positive
	// masses, time steps or constants, or a roster change after stepping began.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrDegenerateGeometry indicates two bodies at the same position during
	// force computation.
	ErrDegenerateGeometry = errors.New("dynamo: coincident bodies (degenerate geometry)")

	// ErrNumericInstability indicates a non-finite value at the commit boundary.
	ErrNumericInstability = errors.New("dynamo: simulation unstable (NaN or Inf detected)")

	// ErrFinished indicates the iteration budget is exhausted.
	ErrFinished = errors.New("dynamo: iteration budget exhausted")

	// ErrIterationBudget indicates a run request larger than the remaining budget.
	ErrIterationBudget = errors.New("dynamo: iterations exceed remaining budget")
)

// Configf returns an ErrConfiguration carrying a formatted reason.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// StepError wraps an error with the step and body it occurred on.
type StepError struct {
	Step    int
	Body    string
	Wrapped error
}

func (e *StepError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
	}
	return fmt.Sprintf("step %d (body %q): %v", e.Step, e.Body, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
