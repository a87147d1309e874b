package solver

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/optistoch/sddp/internal/logging"
	"github.com/optistoch/sddp/internal/metrics"
	"github.com/optistoch/sddp/pkg/config"
	"github.com/optistoch/sddp/pkg/core"
)

// TerminationStatus indicates why a solve call stopped.
type TerminationStatus int

const (
	StatusIterationLimit TerminationStatus = iota
	StatusTimeLimit
	StatusBoundStalling
	StatusConverged
	StatusError
)

func (s TerminationStatus) String() string {
	switch s {
	case StatusIterationLimit:
		return "iteration_limit"
	case StatusTimeLimit:
		return "time_limit"
	case StatusBoundStalling:
		return "bound_stalling"
	case StatusConverged:
		return "converged"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result summarizes one solve call.
type Result struct {
	Status     TerminationStatus
	Bound      float64
	Iterations int
	Elapsed    time.Duration

	// Log aliases the policy graph's solution log for convenience.
	Log []core.SolutionRecord
}

// Option customizes an SDDP instance.
type Option func(*SDDP)

// WithLogger sets the logger. Without it the solver pulls one from the solve
// context, falling back to discard.
func WithLogger(l logr.Logger) Option {
	return func(s *SDDP) {
		s.logger = l
		s.loggerSet = true
	}
}

// WithPrometheus registers the solver's collectors with reg and emits
// iteration, bound, cut and timing metrics during solves.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(s *SDDP) {
		s.met = metrics.New(reg)
	}
}

// SDDP orchestrates repeated forward/backward iterations over a policy
// graph until a stopping rule or hard cap fires.
type SDDP struct {
	graph    *core.PolicyGraph
	service  core.SolveService
	settings config.Settings

	logger    logr.Logger
	loggerSet bool
	met       *metrics.Metrics
}

// New validates the settings and returns a solver for the graph. The graph
// must come from core.NewPolicyGraph, which has already validated its
// structure.
func New(graph *core.PolicyGraph, service core.SolveService, settings config.Settings, opts ...Option) (*SDDP, error) {
	if graph == nil {
		return nil, core.Validationf("solver needs a policy graph")
	}
	if service == nil {
		return nil, core.Validationf("solver needs a solve service")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &SDDP{graph: graph, service: service, settings: settings}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *SDDP) log(ctx context.Context) logr.Logger {
	if s.loggerSet {
		return s.logger
	}
	return logr.FromContextOrDiscard(ctx)
}

func (s *SDDP) seed() int64 {
	if s.settings.Seed != 0 {
		return s.settings.Seed
	}
	return time.Now().UnixNano()
}

// Solve runs iterations until a stopping rule fires and returns the
// termination status. The solution log is left on the policy graph; it is
// reset at the start of every call, so independent solves do not observe
// each other.
//
// Serial mode is deterministic for a fixed Seed. Asynchronous mode trades
// that reproducibility for throughput: iteration counts and exact cut sets
// vary between runs, while each worker still observes monotonic bound
// improvement within its own view.
func (s *SDDP) Solve(ctx context.Context) (Result, error) {
	s.graph.ResetLog()
	start := time.Now()

	var (
		res Result
		err error
	)
	if s.settings.Async {
		res, err = s.solveAsync(ctx, start)
	} else {
		res, err = s.solveSerial(ctx, start)
	}
	res.Elapsed = time.Since(start)
	res.Log = s.graph.Log
	if err != nil {
		res.Status = StatusError
		return res, err
	}
	s.log(ctx).Info("solve finished",
		"status", res.Status.String(),
		"iterations", res.Iterations,
		"bound", res.Bound,
		"elapsed", res.Elapsed)
	return res, nil
}

// iterate runs one forward/backward pair and returns the new deterministic
// bound and the sampled trajectory cost.
func (s *SDDP) iterate(ctx context.Context, rng *rand.Rand, st *core.Storage) (bound, simulated float64, err error) {
	fwdStart := time.Now()
	simulated, err = s.forwardPass(ctx, rng, st, true)
	if err != nil {
		return 0, 0, err
	}
	s.met.ObserveForward(time.Since(fwdStart).Seconds())

	bwdStart := time.Now()
	bound, err = s.backwardPass(ctx, st)
	if err != nil {
		return 0, 0, err
	}
	s.met.ObserveBackward(time.Since(bwdStart).Seconds())
	return bound, simulated, nil
}

// selectCuts runs level-one selection on every non-terminal oracle.
func (s *SDDP) selectCuts() {
	for _, stage := range s.graph.Stages {
		for _, sp := range stage.Subproblems {
			if !sp.Terminal {
				sp.Oracle.Select()
			}
		}
	}
}

// checkHardCaps evaluates the iteration and wall-clock caps.
func (s *SDDP) checkHardCaps(iter int, start time.Time) (TerminationStatus, bool) {
	if s.settings.MaxIterations > 0 && iter >= s.settings.MaxIterations {
		return StatusIterationLimit, true
	}
	if s.settings.TimeLimit > 0 && time.Since(start) >= s.settings.TimeLimit {
		return StatusTimeLimit, true
	}
	return 0, false
}

func (s *SDDP) solveSerial(ctx context.Context, start time.Time) (Result, error) {
	logger := s.log(ctx)
	rng := rand.New(rand.NewSource(s.seed()))
	st := s.graph.Storage

	iter := 0
	for {
		// Iteration boundaries are the cancellation points; mid-iteration
		// cancellation is not supported.
		if err := ctx.Err(); err != nil {
			return Result{Iterations: iter}, err
		}

		iterStart := time.Now()
		bound, simulated, err := s.iterate(ctx, rng, st)
		if err != nil {
			return Result{Iterations: iter}, err
		}
		iter++
		s.met.ObserveIteration(bound)

		rec := core.SolutionRecord{
			Iteration: iter,
			Bound:     bound,
			Simulated: simulated,
		}

		converged := false
		if f := s.settings.Simulation.Frequency; f > 0 && iter%f == 0 {
			n, lower, upper, inside, err := s.simulationRound(ctx, rng, bound)
			if err != nil {
				return Result{Iterations: iter}, err
			}
			rec.Simulations = n
			rec.SimLower, rec.SimUpper = lower, upper
			s.met.ObserveSimulation(n, lower, upper)
			converged = inside && s.settings.Simulation.Terminate
		}

		rec.Elapsed = time.Since(iterStart)
		s.graph.Log = append(s.graph.Log, rec)

		if f := s.settings.CutSelectionFrequency; f > 0 && iter%f == 0 {
			s.selectCuts()
		}

		logger.V(logging.DEBUG).Info("iteration complete",
			"iteration", iter,
			"bound", bound,
			"simulated", simulated)

		if converged {
			return Result{Status: StatusConverged, Bound: bound, Iterations: iter}, nil
		}
		if stalled(s.graph.Log, s.settings.Stalling) {
			return Result{Status: StatusBoundStalling, Bound: bound, Iterations: iter}, nil
		}
		if status, stop := s.checkHardCaps(iter, start); stop {
			return Result{Status: status, Bound: bound, Iterations: iter}, nil
		}
	}
}

// solveAsync distributes the iteration cycle across independent workers,
// each with a private RNG and Storage. The only shared mutable state is the
// per-subproblem cut oracles, which support concurrent append with snapshot
// reads, and the solution log guarded here. A worker sees cuts produced by
// others no earlier than its next subproblem solve, never mid-append.
func (s *SDDP) solveAsync(ctx context.Context, start time.Time) (Result, error) {
	var (
		mu    sync.Mutex
		iter  int
		final Result
		done  bool
	)

	stop := func(status TerminationStatus, bound float64) {
		if !done {
			done = true
			final = Result{Status: status, Bound: bound, Iterations: iter}
		}
	}

	group, ctx := errgroup.WithContext(ctx)
	seed := s.seed()
	for w := 0; w < s.settings.Workers; w++ {
		rng := rand.New(rand.NewSource(seed + int64(w)))
		worker := w
		group.Go(func() error {
			logger := s.log(ctx).WithValues("worker", worker)
			st := core.NewStorage()
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				mu.Lock()
				if done {
					mu.Unlock()
					return nil
				}
				mu.Unlock()

				bound, simulated, err := s.iterate(ctx, rng, st)
				if err != nil {
					return err
				}

				mu.Lock()
				if done {
					mu.Unlock()
					return nil
				}
				iter++
				it := iter
				s.met.ObserveIteration(bound)
				rec := core.SolutionRecord{Iteration: it, Bound: bound, Simulated: simulated}
				simulate := s.settings.Simulation.Frequency > 0 && it%s.settings.Simulation.Frequency == 0
				if !simulate {
					s.graph.Log = append(s.graph.Log, rec)
					if stalled(s.graph.Log, s.settings.Stalling) {
						stop(StatusBoundStalling, bound)
					}
					if status, hit := s.checkHardCaps(it, start); hit {
						stop(status, bound)
					}
				}
				mu.Unlock()

				if simulate {
					n, lower, upper, inside, err := s.simulationRound(ctx, rng, bound)
					if err != nil {
						return err
					}
					rec.Simulations = n
					rec.SimLower, rec.SimUpper = lower, upper
					s.met.ObserveSimulation(n, lower, upper)

					mu.Lock()
					s.graph.Log = append(s.graph.Log, rec)
					if inside && s.settings.Simulation.Terminate {
						stop(StatusConverged, bound)
					}
					if stalled(s.graph.Log, s.settings.Stalling) {
						stop(StatusBoundStalling, bound)
					}
					if status, hit := s.checkHardCaps(it, start); hit {
						stop(status, bound)
					}
					mu.Unlock()
				}

				if f := s.settings.CutSelectionFrequency; f > 0 && it%f == 0 {
					s.selectCuts()
				}
				logger.V(logging.DEBUG).Info("iteration complete", "iteration", it, "bound", bound)
			}
		})
	}
	if err := group.Wait(); err != nil {
		mu.Lock()
		defer mu.Unlock()
		return Result{Iterations: iter}, err
	}
	mu.Lock()
	defer mu.Unlock()
	return final, nil
}
