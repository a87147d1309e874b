package solver

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/optistoch/sddp/pkg/config"
	"github.com/optistoch/sddp/pkg/core"
)

// stalled evaluates the bound-stalling rule over the trailing window of the
// solution log: the maximum absolute deviation of the deterministic bound
// from its window mean must be within atol or rtol*|mean|. Disabled when
// the window length is zero, and never fires before the window fills.
func stalled(log []core.SolutionRecord, rule config.Stalling) bool {
	w := rule.Iterations
	if w == 0 || len(log) < w {
		return false
	}
	window := make([]float64, w)
	for i := 0; i < w; i++ {
		window[i] = log[len(log)-w+i].Bound
	}
	mean := stat.Mean(window, nil)
	dev := 0.0
	for _, b := range window {
		if d := math.Abs(b - mean); d > dev {
			dev = d
		}
	}
	return dev <= rule.Atol || dev <= rule.Rtol*math.Abs(mean)
}

// confidenceInterval returns the Student-t interval for the mean of the
// samples at the given confidence level. Fewer than two samples yield an
// unbounded interval.
func confidenceInterval(samples []float64, confidence float64) (lower, upper float64) {
	n := len(samples)
	if n < 2 {
		return math.Inf(-1), math.Inf(1)
	}
	mean := stat.Mean(samples, nil)
	sd := stat.StdDev(samples, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	half := t.Quantile(0.5+confidence/2) * sd / math.Sqrt(float64(n))
	return mean - half, mean + half
}

// simulationRound runs the Monte-Carlo schedule: starting at the minimum
// sample count, it simulates the current policy and widens the sample set by
// the step while the deterministic bound stays inside the confidence
// interval, up to the maximum. It reports whether the bound was still inside
// the interval at the full schedule, which is the statistical convergence
// signal.
func (s *SDDP) simulationRound(ctx context.Context, rng *rand.Rand, bound float64) (n int, lower, upper float64, inside bool, err error) {
	sched := s.settings.Simulation
	samples := make([]float64, 0, sched.Max)
	scratch := core.NewStorage()

	target := sched.Min
	for {
		for len(samples) < target {
			total, err := s.forwardPass(ctx, rng, scratch, false)
			if err != nil {
				return len(samples), 0, 0, false, err
			}
			samples = append(samples, total)
		}
		lower, upper = confidenceInterval(samples, sched.Confidence)
		if bound < lower || bound > upper {
			return len(samples), lower, upper, false, nil
		}
		if target >= sched.Max {
			return len(samples), lower, upper, true, nil
		}
		target += sched.Step
		if target > sched.Max {
			target = sched.Max
		}
	}
}
