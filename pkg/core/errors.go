package core

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed model data: probability vectors that do
// not sum to one, dimension mismatches between cuts and state vectors, or
// inconsistent stage wiring. It is raised before any solving begins, or when
// sampling detects a distribution that was mutated after validation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InfeasibleError reports that the solve service found a subproblem
// infeasible at a reachable state. A well-posed model is expected to remain
// feasible for every reachable state/noise combination, so this aborts the
// solve rather than being absorbed.
type InfeasibleError struct {
	// Stage is the index of the stage that failed to solve.
	Stage int

	// MarkovIndex is the Markov state within the stage.
	MarkovIndex int

	// NoiseIndex is the noise branch being solved, or -1 if not applicable.
	NoiseIndex int

	// Incoming is the incoming state vector at which the subproblem was solved.
	Incoming []float64
}

func (e *InfeasibleError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "subproblem infeasible at stage %d, markov state %d", e.Stage, e.MarkovIndex)
	if e.NoiseIndex >= 0 {
		fmt.Fprintf(&sb, ", noise %d", e.NoiseIndex)
	}
	fmt.Fprintf(&sb, ", incoming state %v", e.Incoming)
	return sb.String()
}

// SolverError wraps a failure of the external solve service itself. It is
// propagated as-is; retry semantics belong to the service, not this layer.
type SolverError struct {
	Stage       int
	MarkovIndex int
	Err         error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solve service failed at stage %d, markov state %d: %v", e.Stage, e.MarkovIndex, e.Err)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}
