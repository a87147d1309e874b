package linear

import (
	"context"
	"fmt"
	"math"

	"github.com/optistoch/sddp/internal/simplex"
	"github.com/optistoch/sddp/pkg/core"
)

// Service solves stage models with the built-in simplex backend. It
// implements core.SolveService.
//
// For every solve the service rebuilds the relaxation from the bound model:
// the subproblem's rows with the noise's right-hand-side overrides applied,
// upper-bound rows, one fixing row per state's incoming variable, and one
// row per active cut from the subproblem's oracle. The future-cost variable
// theta is shifted by the subproblem's bound so it fits the nonnegative
// variable space of the backend.
type Service struct{}

var (
	_ core.SolveService = (*Service)(nil)
	_ core.ModelBuilder = (*Model)(nil)
)

// NewService returns a simplex-backed solve service.
func NewService() *Service {
	return &Service{}
}

func rowSense(s RowSense) simplex.RowSense {
	switch s {
	case LessEqual:
		return simplex.LessEqual
	case GreaterEqual:
		return simplex.GreaterEqual
	default:
		return simplex.Equal
	}
}

// Solve implements core.SolveService.
func (s *Service) Solve(ctx context.Context, sp *core.Subproblem, incoming []float64, noise int) (core.SolveResult, error) {
	if err := ctx.Err(); err != nil {
		return core.SolveResult{}, err
	}
	m, ok := sp.Model.(*Model)
	if !ok {
		return core.SolveResult{}, core.Validationf("stage %d markov %d: subproblem model is not a linear.Model", sp.StageIndex, sp.MarkovIndex)
	}
	if len(incoming) != len(m.states) {
		return core.SolveResult{}, core.Validationf("stage %d markov %d: incoming state has %d entries, model has %d states",
			sp.StageIndex, sp.MarkovIndex, len(incoming), len(m.states))
	}
	if noise < 0 || noise >= len(sp.Noises) {
		return core.SolveResult{}, core.Validationf("stage %d markov %d: noise index %d out of range", sp.StageIndex, sp.MarkovIndex, noise)
	}
	nz := sp.Noises[noise]

	numVars := len(m.costs)
	thetaVar := -1
	if !sp.Terminal {
		thetaVar = numVars
		numVars++
	}

	lp := simplex.NewProblem(numVars)

	obj := make([]float64, numVars)
	copy(obj, m.costs)
	if nz.ObjectiveDelta != nil {
		for j, d := range nz.ObjectiveDelta {
			obj[j] += d
		}
	}
	// theta = Bound + t under Minimize, Bound - t under Maximize, with
	// t >= 0; the Bound constant is added back after the solve.
	if thetaVar >= 0 {
		if sp.Sense == core.Minimize {
			obj[thetaVar] = 1
		} else {
			obj[thetaVar] = -1
		}
	}
	if err := lp.SetObjective(obj, sp.Sense == core.Maximize); err != nil {
		return core.SolveResult{}, &core.SolverError{Stage: sp.StageIndex, MarkovIndex: sp.MarkovIndex, Err: err}
	}

	// Model rows with noise overrides.
	rhs := make([]float64, len(m.rows))
	for i, r := range m.rows {
		rhs[i] = r.rhs
	}
	for _, o := range nz.RHS {
		rhs[o.Row] = o.Value
	}
	coeffs := make([]float64, numVars)
	addRow := func(fill func([]float64), sense simplex.RowSense, b float64) error {
		for j := range coeffs {
			coeffs[j] = 0
		}
		fill(coeffs)
		_, err := lp.AddRow(coeffs, sense, b)
		return err
	}
	for i, r := range m.rows {
		terms := r.terms
		if err := addRow(func(c []float64) {
			for _, t := range terms {
				c[t.Var] += t.Coeff
			}
		}, rowSense(r.sense), rhs[i]); err != nil {
			return core.SolveResult{}, &core.SolverError{Stage: sp.StageIndex, MarkovIndex: sp.MarkovIndex, Err: err}
		}
	}

	// Upper bounds.
	for j, ub := range m.uppers {
		if math.IsInf(ub, 1) {
			continue
		}
		jj := j
		if err := addRow(func(c []float64) { c[jj] = 1 }, simplex.LessEqual, ub); err != nil {
			return core.SolveResult{}, &core.SolverError{Stage: sp.StageIndex, MarkovIndex: sp.MarkovIndex, Err: err}
		}
	}

	// Linking rows: fix each incoming state variable. Their duals are the
	// cut coefficients.
	linkRows := make([]int, len(m.states))
	for si, st := range m.states {
		in := st.in
		for j := range coeffs {
			coeffs[j] = 0
		}
		coeffs[in] = 1
		r, err := lp.AddRow(coeffs, simplex.Equal, incoming[si])
		if err != nil {
			return core.SolveResult{}, &core.SolverError{Stage: sp.StageIndex, MarkovIndex: sp.MarkovIndex, Err: err}
		}
		linkRows[si] = r
	}

	// Cut rows from the oracle snapshot.
	if thetaVar >= 0 {
		for _, cut := range sp.Oracle.ActiveCuts() {
			c := cut
			if sp.Sense == core.Minimize {
				// Bound + t >= alpha + beta.x_out
				if err := addRow(func(cf []float64) {
					for si, st := range m.states {
						cf[st.out] = c.Coefficients[si]
					}
					cf[thetaVar] = -1
				}, simplex.LessEqual, sp.Bound-c.Intercept); err != nil {
					return core.SolveResult{}, &core.SolverError{Stage: sp.StageIndex, MarkovIndex: sp.MarkovIndex, Err: err}
				}
			} else {
				// Bound - t <= alpha + beta.x_out
				if err := addRow(func(cf []float64) {
					for si, st := range m.states {
						cf[st.out] = c.Coefficients[si]
					}
					cf[thetaVar] = 1
				}, simplex.GreaterEqual, sp.Bound-c.Intercept); err != nil {
					return core.SolveResult{}, &core.SolverError{Stage: sp.StageIndex, MarkovIndex: sp.MarkovIndex, Err: err}
				}
			}
		}
	}

	sol, err := lp.Solve()
	if err != nil {
		return core.SolveResult{}, &core.SolverError{Stage: sp.StageIndex, MarkovIndex: sp.MarkovIndex, Err: err}
	}
	switch {
	case sol.IsInfeasible():
		state := make([]float64, len(incoming))
		copy(state, incoming)
		return core.SolveResult{}, &core.InfeasibleError{
			Stage:       sp.StageIndex,
			MarkovIndex: sp.MarkovIndex,
			NoiseIndex:  noise,
			Incoming:    state,
		}
	case !sol.IsOptimal():
		return core.SolveResult{}, &core.SolverError{
			Stage:       sp.StageIndex,
			MarkovIndex: sp.MarkovIndex,
			Err:         fmt.Errorf("simplex returned %v", sol.Status),
		}
	}

	res := core.SolveResult{
		Objective: sol.Objective,
		StageCost: sol.Objective,
		Outgoing:  make([]float64, len(m.states)),
		Duals:     make([]float64, len(m.states)),
	}
	if thetaVar >= 0 {
		t := sol.Value(thetaVar)
		res.Objective += sp.Bound
		if sp.Sense == core.Minimize {
			res.StageCost = res.Objective - (sp.Bound + t)
		} else {
			res.StageCost = res.Objective - (sp.Bound - t)
		}
	}
	for si, st := range m.states {
		res.Outgoing[si] = sol.Value(int(st.out))
		res.Duals[si] = sol.RowDuals[linkRows[si]]
	}
	return res, nil
}
