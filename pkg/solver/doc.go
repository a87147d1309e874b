// Package solver implements the SDDP iteration engine over a policy graph.
//
// Each iteration is a forward/backward pair. The forward pass samples one
// trajectory through the graph with the current value-function
// approximation, solving each visited subproblem through the external solve
// service. The backward pass walks that trajectory in reverse, resolves
// every noise branch of every Markov state at the recorded incoming states,
// aggregates objectives and dual prices through each subproblem's risk
// measure and the transition probabilities, and installs the resulting cuts
// in the predecessor oracles. The next forward pass then sees the improved
// approximation.
//
// Stopping rules, evaluated once per completed iteration:
//
//   - Bound stalling: the deterministic bound's deviation over a trailing
//     window falls within the configured tolerances
//   - Statistical bound: a Monte-Carlo simulation schedule builds a
//     Student-t confidence interval for the policy value; with terminate
//     enabled, a bound inside the interval at the full schedule converges
//     the solve
//   - Hard caps: iteration count and wall-clock limits, checked every
//     iteration regardless
//
// Example usage:
//
//	sddp, err := solver.New(graph, linear.NewService(), config.Default())
//	if err != nil {
//	    return err
//	}
//	result, err := sddp.Solve(ctx)
//	if err != nil {
//	    return err
//	}
//	log.Info("solved", "status", result.Status, "bound", result.Bound)
//
// Serial mode is single-threaded and deterministic given a fixed seed.
// Asynchronous mode runs the cycle on independent workers against shared
// cut oracles; iteration counts and exact cut sets are then
// non-deterministic, and only the convergence guarantee (monotonic bound
// improvement within each worker's own view) is preserved.
package solver
