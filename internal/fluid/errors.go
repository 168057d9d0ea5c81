package fluid

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrUnstable indicates projection failed to reduce divergence, which
	// means dt, iters or vort_strength pushed the solve out of its stable range.
	ErrUnstable = errors.New("fluid: projection increased divergence (numerically unstable)")

	// ErrParameterBounds indicates a parameter value is outside its valid range.
	ErrParameterBounds = errors.New("fluid: parameter out of valid bounds")

	// ErrUnknownParam indicates a parameter name that is not recognized.
	ErrUnknownParam = errors.New("fluid: unknown parameter")

	// ErrGridSize indicates a grid too small to have an interior.
	ErrGridSize = errors.New("fluid: grid size must be at least 3")
)

// divergenceSlack is the tolerance allowed on the post-projection norm.
const divergenceSlack = 1e-6

// InstabilityError reports the step at which projection failed to reduce
// the divergence norm.
type InstabilityError struct {
	Step int
	Pre  float64
	Post float64
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("step %d: divergence %.6g -> %.6g: %v", e.Step, e.Pre, e.Post, ErrUnstable)
}

func (e *InstabilityError) Unwrap() error {
	return ErrUnstable
}
