package core

import "context"

// RiskMeasure transforms the nominal probabilities p over realized objective
// values z into the modified vector q used when aggregating duals into a cut.
// Implementations must leave a single-support-point distribution unchanged
// and return a vector of the same length summing to one.
//
// "Worse" is sense-dependent: numerically larger objectives under Minimize,
// smaller under Maximize. Implementations receive the sense explicitly so the
// same measure serves both.
type RiskMeasure interface {
	// Adjust writes the modified probabilities into q. q, p and z have equal
	// length; q may alias neither p nor z.
	Adjust(q, p, z []float64, sense Sense) error
}

// SolveResult is the outcome of one successful external solve.
type SolveResult struct {
	// Objective is the optimal objective including the future-cost term.
	Objective float64

	// StageCost is the objective excluding the future-cost term, used for
	// simulated-trajectory totals.
	StageCost float64

	// Outgoing holds the optimal values of the state variables, fed to the
	// next stage as its incoming state.
	Outgoing []float64

	// Duals holds the dual price of each state's linking constraint, in
	// state order.
	Duals []float64
}

// SolveService solves one subproblem at an incoming state under one noise
// realization. The core treats model construction, solver selection and
// tuning as opaque; the service reads active cuts from the subproblem's
// oracle when building the relaxation.
//
// Infeasibility must surface as *InfeasibleError and any other solver
// failure as *SolverError; neither is retried here.
type SolveService interface {
	Solve(ctx context.Context, sp *Subproblem, incoming []float64, noise int) (SolveResult, error)
}

// ModelBuilder is the model-building collaborator: it binds a resolved model
// handle to a subproblem from symbolic declarations, populating its state
// list and creating its cut oracle. The core never parses or builds
// constraints itself.
type ModelBuilder interface {
	Bind(sp *Subproblem) error
}
