// Package core provides the policy-graph data model for the SDDP engine.
//
// A multistage stochastic program is represented as a PolicyGraph: an ordered
// sequence of Stages, each holding one Subproblem per Markov state, linked by
// transition-probability matrices. Each subproblem owns its state variables,
// its discrete noise terms with nominal probabilities, a CutOracle holding
// the affine approximation of its future-cost value function, and a
// RiskMeasure.
//
// Key components:
//
//   - CachedVector: append-only buffer with logical length distinct from
//     capacity, reused across iterations
//   - Cut / CutOracle: supporting hyperplanes of a value function and the
//     selection of the active subset
//   - Stage / Subproblem / PolicyGraph: the graph structure and its
//     validation
//   - Storage: per-iteration scratch shared by a forward/backward pass pair
//   - SolutionRecord: the per-iteration solution log
//
// The two external collaborators are expressed as interfaces here:
// SolveService ("solve this subproblem at this state, return objective and
// dual prices") and ModelBuilder ("bind a resolved model to this
// subproblem"). Package linear ships reference implementations of both.
//
// Example usage:
//
//	stage := &core.Stage{Subproblems: []*core.Subproblem{sp}}
//	graph, err := core.NewPolicyGraph(core.Minimize, []*core.Stage{stage, last})
//	if err != nil {
//	    return err
//	}
//
// All structural invariants are checked by NewPolicyGraph before any solving
// begins: probability rows summing to one, transition dimensions matching
// adjacent stages, and noise lists matching their probability vectors.
// Violations surface as *ValidationError.
package core
