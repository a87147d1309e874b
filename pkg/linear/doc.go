// Package linear ships reference implementations of the two collaborator
// services the SDDP core consumes: a linear stage-model builder and a solve
// service backed by the built-in dense simplex.
//
// A Model declares nonnegative decision variables (optionally with upper
// bounds), linear constraint rows, and state-variable pairs whose incoming
// half is fixed at solve time. Noise terms refer to constraint rows by index
// for right-hand-side overrides and carry optional objective perturbations.
//
// Example:
//
//	sp, err := linear.NewSubproblem(core.Minimize, 0, noises, probs, risk.Expectation{},
//	    func(m *linear.Model) error {
//	        volume := m.State("volume", 200)
//	        thermal := m.BoundedVariable("thermal", 100, 150)
//	        hydro := m.BoundedVariable("hydro", 0, 150)
//	        spill := m.Variable("spill", 0)
//	        m.Constraint([]linear.Term{
//	            {volume.Out, 1}, {volume.In, -1}, {hydro, 1}, {spill, 1},
//	        }, linear.Equal, 0) // RHS overridden per-noise with the inflow
//	        m.Constraint([]linear.Term{{thermal, 1}, {hydro, 1}}, linear.Equal, 150)
//	        return nil
//	    })
//
// The solve service rebuilds the relaxation on every call, reading the
// active cuts from the subproblem's oracle, and reports the dual price of
// each state's fixing row. Infeasibility surfaces as *core.InfeasibleError
// with the offending stage, Markov index and incoming state.
//
// The backend handles pure linear programs only; integrality is out of
// scope.
package linear
