package solver

import (
	"context"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/optistoch/sddp/pkg/core"
)

// branchValue is the risk-adjusted aggregation of one subproblem's noise
// branches at a fixed incoming state: the expected objective and expected
// dual vector under the modified probabilities, plus the modified
// probabilities themselves.
type branchValue struct {
	objective float64
	duals     []float64
	weights   []float64
}

// resolveBranches solves every noise branch of sp at the incoming state and
// aggregates the per-branch objectives and duals through the subproblem's
// risk measure. The modified probabilities are checked before use: malformed
// risk weights abort the solve rather than degrade the cut.
func (s *SDDP) resolveBranches(ctx context.Context, sp *core.Subproblem, incoming []float64) (branchValue, error) {
	n := len(sp.Noises)
	objs := make([]float64, n)
	duals := make([][]float64, n)
	for k := 0; k < n; k++ {
		res, err := s.service.Solve(ctx, sp, incoming, k)
		if err != nil {
			return branchValue{}, err
		}
		objs[k] = res.Objective
		duals[k] = res.Duals
	}

	q := make([]float64, n)
	if err := sp.Risk.Adjust(q, sp.NoiseProbs, objs, sp.Sense); err != nil {
		return branchValue{}, err
	}
	if err := core.CheckDistribution(q); err != nil {
		return branchValue{}, core.Validationf("stage %d markov %d: risk-adjusted probabilities: %v",
			sp.StageIndex, sp.MarkovIndex, err)
	}

	bv := branchValue{
		objective: floats.Dot(q, objs),
		duals:     make([]float64, len(incoming)),
		weights:   q,
	}
	for k := 0; k < n; k++ {
		if q[k] == 0 {
			continue
		}
		floats.AddScaled(bv.duals, q[k], duals[k])
	}
	return bv, nil
}

// backwardPass walks the trajectory recorded by the most recent forward pass
// in reverse stage order, terminal stage excluded. At each visited stage it
// resolves every noise branch of every Markov state at the incoming state
// the forward pass recorded, aggregates objectives and duals through each
// subproblem's risk measure, weights the per-successor aggregates by the
// transition row, and installs the resulting cut in each predecessor
// subproblem's oracle.
//
// Cuts are valid bounds by construction: the duals come from a correctly
// solved convex relaxation, so a Minimize cut never exceeds the true value
// function and a Maximize cut never falls below it. That property is not
// re-verified here.
//
// It returns the deterministic bound: the risk-adjusted first-stage value
// under the initial Markov distribution.
func (s *SDDP) backwardPass(ctx context.Context, st *core.Storage) (float64, error) {
	g := s.graph

	for t := len(g.Stages) - 1; t >= 1; t-- {
		stage := g.Stages[t]
		incoming := st.At(t - 1).Outgoing

		values := make([]branchValue, len(stage.Subproblems))
		for j, sp := range stage.Subproblems {
			bv, err := s.resolveBranches(ctx, sp, incoming)
			if err != nil {
				return 0, err
			}
			values[j] = bv
		}
		recordModified(st.Ptr(t), stage, values)

		prev := g.Stages[t-1]
		for i, psp := range prev.Subproblems {
			row := prev.Transition[i]
			expected := 0.0
			coeffs := make([]float64, len(psp.States))
			for j := range stage.Subproblems {
				if row[j] == 0 {
					continue
				}
				expected += row[j] * values[j].objective
				floats.AddScaled(coeffs, row[j], values[j].duals)
			}
			// Supporting hyperplane at the sampled point:
			// theta >= expected + coeffs . (x - incoming).
			intercept := expected - floats.Dot(coeffs, incoming)
			cut, err := core.NewCut(intercept, coeffs, len(psp.States))
			if err != nil {
				return 0, err
			}
			if err := psp.Oracle.AddCut(cut); err != nil {
				return 0, err
			}
			s.met.ObserveCut(strconv.Itoa(t - 1))
		}
	}

	return s.deterministicBound(ctx, st)
}

// recordModified writes the risk-adjusted probability of the sampled
// (markov, noise) step back into its visit record. The record's nominal
// probability factors as markov weight times noise weight; the risk measure
// reweights only the noise part, so the markov factor is recovered by
// division. A sampled branch always has positive nominal probability.
func recordModified(rec *core.VisitRecord, stage *core.Stage, values []branchValue) {
	sp := stage.Subproblems[rec.MarkovIndex]
	markovProb := rec.Probability / sp.NoiseProbs[rec.NoiseIndex]
	rec.ModifiedProbability = markovProb * values[rec.MarkovIndex].weights[rec.NoiseIndex]
}

// deterministicBound resolves the first stage under the initial Markov
// distribution with the current value-function approximation. It also fills
// the first visit record's risk-adjusted probability, which the cut loop
// above never reaches.
func (s *SDDP) deterministicBound(ctx context.Context, st *core.Storage) (float64, error) {
	g := s.graph
	bound := 0.0
	for i, sp := range g.Stages[0].Subproblems {
		w := g.InitialMarkov[i]
		if w == 0 {
			continue
		}
		bv, err := s.resolveBranches(ctx, sp, g.InitialState(i))
		if err != nil {
			return 0, err
		}
		if rec := st.Ptr(0); rec.MarkovIndex == i {
			markovProb := rec.Probability / sp.NoiseProbs[rec.NoiseIndex]
			rec.ModifiedProbability = markovProb * bv.weights[rec.NoiseIndex]
		}
		bound += w * bv.objective
	}
	return bound, nil
}
