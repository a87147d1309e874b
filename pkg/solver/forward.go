package solver

import (
	"context"
	"math/rand"

	"github.com/optistoch/sddp/pkg/core"
)

// sample draws an index from the discrete distribution p. The distribution
// is checked on every draw: sampling against entries that do not sum to one
// is a validation error, never silently normalized.
func sample(rng *rand.Rand, p []float64) (int, error) {
	if err := core.CheckDistribution(p); err != nil {
		return 0, err
	}
	r := rng.Float64()
	cum := 0.0
	last := 0
	for i, pi := range p {
		if pi == 0 {
			continue
		}
		cum += pi
		last = i
		if r < cum {
			return i, nil
		}
	}
	// r landed in the rounding slack past the final cumulative value.
	return last, nil
}

// forwardPass samples one trajectory through the policy graph: at each stage
// it draws the Markov state from the previous subproblem's transition row,
// draws a noise term, solves the subproblem at the realized incoming state,
// and records the visit in st. It returns the sampled trajectory's total
// stage cost.
//
// An infeasible or failed solve aborts the pass; a production model is
// expected to stay feasible at every reachable state, so infeasibility is a
// modeling bug and is never absorbed.
func (s *SDDP) forwardPass(ctx context.Context, rng *rand.Rand, st *core.Storage, recordPoints bool) (float64, error) {
	st.Reset()
	g := s.graph

	markov, err := sample(rng, g.InitialMarkov)
	if err != nil {
		return 0, err
	}
	incoming := g.InitialState(markov)
	prob := g.InitialMarkov[markov]
	total := 0.0

	for t, stage := range g.Stages {
		if t > 0 {
			row := g.Stages[t-1].Transition[markov]
			next, err := sample(rng, row)
			if err != nil {
				return 0, err
			}
			prob = row[next]
			markov = next
		}
		sp := stage.Subproblems[markov]

		noise, err := sample(rng, sp.NoiseProbs)
		if err != nil {
			return 0, err
		}

		res, err := s.service.Solve(ctx, sp, incoming, noise)
		if err != nil {
			return 0, err
		}

		in := make([]float64, len(incoming))
		copy(in, incoming)
		st.Append(core.VisitRecord{
			MarkovIndex: markov,
			NoiseIndex:  noise,
			Incoming:    in,
			Outgoing:    res.Outgoing,
			Objective:   res.Objective,
			StageCost:   res.StageCost,
			Duals:       res.Duals,
			Probability: prob * sp.NoiseProbs[noise],
		})
		if recordPoints && !sp.Terminal {
			sp.Oracle.AddSamplePoint(res.Outgoing)
		}

		total += res.StageCost
		incoming = res.Outgoing
	}
	return total, nil
}
