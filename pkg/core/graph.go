package core

import (
	"math"
)

// ProbabilityTolerance is the absolute slack allowed when checking that a
// probability vector sums to one.
const ProbabilityTolerance = 1e-6

// Sense is the optimization sense of a subproblem.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	switch s {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return "unknown"
	}
}

// Better reports whether objective a is better than b under the sense.
func (s Sense) Better(a, b float64) bool {
	if s == Minimize {
		return a < b
	}
	return a > b
}

// Worse reports whether objective a is worse than b under the sense.
func (s Sense) Worse(a, b float64) bool {
	if s == Minimize {
		return a > b
	}
	return a < b
}

// RHSOverride replaces the right-hand side of one constraint row for a noise
// realization.
type RHSOverride struct {
	Row   int
	Value float64
}

// Noise is one discrete scenario outcome: an optional objective-coefficient
// perturbation and a set of right-hand-side overrides. Immutable once
// attached to a subproblem.
type Noise struct {
	// ObjectiveDelta is added to the subproblem's objective coefficients,
	// indexed by decision variable. Nil means no perturbation.
	ObjectiveDelta []float64

	// RHS lists the constraint rows whose right-hand side this outcome
	// overrides.
	RHS []RHSOverride
}

// StateVariable links consecutive stages: its outgoing value at stage t is
// the incoming value at stage t+1, fixed there by a linking constraint whose
// dual price feeds cut coefficients.
type StateVariable struct {
	Name string

	// Initial is the incoming value at the first stage.
	Initial float64
}

// Subproblem is one Markov state of a stage: an optimization sense, a bound
// on its value function, state variables, noise terms with their nominal
// probabilities, a cut oracle and a risk measure. The Model field is an
// opaque handle owned by the model-building service; the core never reads
// it.
type Subproblem struct {
	StageIndex  int
	MarkovIndex int

	Sense Sense

	// Bound initializes the future-cost variable: a lower bound under
	// Minimize, an upper bound under Maximize. It must not cut off the true
	// optimum.
	Bound float64

	States []StateVariable

	Noises     []Noise
	NoiseProbs []float64

	Oracle *CutOracle
	Risk   RiskMeasure

	// Terminal is set during graph wiring: the last stage carries no
	// future-cost term and contributes no cut.
	Terminal bool

	// Model is the handle returned by the model-building service.
	Model any
}

// validate checks the subproblem invariants that do not depend on its
// neighbors.
func (sp *Subproblem) validate() error {
	if len(sp.Noises) == 0 {
		return Validationf("stage %d markov %d: subproblem has no noise terms", sp.StageIndex, sp.MarkovIndex)
	}
	if len(sp.NoiseProbs) != len(sp.Noises) {
		return Validationf("stage %d markov %d: %d noise probabilities for %d noises",
			sp.StageIndex, sp.MarkovIndex, len(sp.NoiseProbs), len(sp.Noises))
	}
	if err := CheckDistribution(sp.NoiseProbs); err != nil {
		return Validationf("stage %d markov %d: noise probabilities: %v", sp.StageIndex, sp.MarkovIndex, err)
	}
	if sp.Oracle == nil && !sp.Terminal {
		return Validationf("stage %d markov %d: subproblem has no cut oracle", sp.StageIndex, sp.MarkovIndex)
	}
	if sp.Risk == nil {
		return Validationf("stage %d markov %d: subproblem has no risk measure", sp.StageIndex, sp.MarkovIndex)
	}
	return nil
}

// Stage is one decision epoch of the policy graph.
type Stage struct {
	Index int

	// Subproblems holds one subproblem per Markov state.
	Subproblems []*Subproblem

	// Transition is the transition-probability matrix into the next stage:
	// Transition[i][j] is the probability of moving from Markov state i here
	// to Markov state j at the next stage. Empty for the terminal stage.
	Transition [][]float64
}

// PolicyGraph is the ordered stage sequence plus the per-solve scratch
// storage and the solution log. It owns its stages; stages own their
// subproblems.
type PolicyGraph struct {
	Sense  Sense
	Stages []*Stage

	// InitialMarkov is the distribution over the first stage's Markov
	// states. Defaults to all mass on state 0.
	InitialMarkov []float64

	// Storage is the scratch state shared by the serial solve loop.
	// Asynchronous workers use private instances.
	Storage *Storage

	// Log collects one record per completed iteration.
	Log []SolutionRecord
}

// NewPolicyGraph wires and validates a policy graph. It assigns stage and
// markov indices, marks the terminal stage, fills a default initial Markov
// distribution, and checks every structural invariant: stage count, matching
// transition dimensions, probability rows summing to one, and per-subproblem
// noise invariants.
func NewPolicyGraph(sense Sense, stages []*Stage) (*PolicyGraph, error) {
	if len(stages) == 0 {
		return nil, Validationf("policy graph needs at least one stage")
	}
	g := &PolicyGraph{
		Sense:   sense,
		Stages:  stages,
		Storage: NewStorage(),
	}
	stateDim := -1
	for t, stage := range stages {
		stage.Index = t
		if len(stage.Subproblems) == 0 {
			return nil, Validationf("stage %d has no subproblems", t)
		}
		terminal := t == len(stages)-1
		for i, sp := range stage.Subproblems {
			sp.StageIndex = t
			sp.MarkovIndex = i
			sp.Sense = sense
			sp.Terminal = terminal
			if err := sp.validate(); err != nil {
				return nil, err
			}
			// Cut coefficients flow across stage boundaries, so the state
			// dimension must be uniform over the whole graph.
			if stateDim < 0 {
				stateDim = len(sp.States)
			} else if len(sp.States) != stateDim {
				return nil, Validationf("stage %d markov %d: %d state variables, graph uses %d",
					t, i, len(sp.States), stateDim)
			}
		}
		if terminal {
			if len(stage.Transition) != 0 {
				return nil, Validationf("terminal stage %d has a transition matrix", t)
			}
			continue
		}
		next := stages[t+1]
		if len(stage.Transition) != len(stage.Subproblems) {
			return nil, Validationf("stage %d: transition matrix has %d rows for %d subproblems",
				t, len(stage.Transition), len(stage.Subproblems))
		}
		for i, row := range stage.Transition {
			if len(row) != len(next.Subproblems) {
				return nil, Validationf("stage %d: transition row %d has %d columns, next stage has %d subproblems",
					t, i, len(row), len(next.Subproblems))
			}
			if err := CheckDistribution(row); err != nil {
				return nil, Validationf("stage %d: transition row %d: %v", t, i, err)
			}
		}
	}
	if g.InitialMarkov == nil {
		g.InitialMarkov = make([]float64, len(stages[0].Subproblems))
		g.InitialMarkov[0] = 1
	}
	if len(g.InitialMarkov) != len(stages[0].Subproblems) {
		return nil, Validationf("initial markov distribution has %d entries for %d subproblems",
			len(g.InitialMarkov), len(stages[0].Subproblems))
	}
	if err := CheckDistribution(g.InitialMarkov); err != nil {
		return nil, Validationf("initial markov distribution: %v", err)
	}
	return g, nil
}

// InitialState returns the incoming state vector of the first stage, taken
// from the state variables of the given Markov state.
func (g *PolicyGraph) InitialState(markov int) []float64 {
	states := g.Stages[0].Subproblems[markov].States
	x := make([]float64, len(states))
	for i, s := range states {
		x[i] = s.Initial
	}
	return x
}

// ResetLog discards the solution log between independent solve calls.
func (g *PolicyGraph) ResetLog() {
	g.Log = g.Log[:0]
}

// CheckDistribution verifies that p is a probability vector: nonnegative
// entries summing to one within ProbabilityTolerance. Distributions that fail
// are rejected, never silently normalized.
func CheckDistribution(p []float64) error {
	sum := 0.0
	for i, v := range p {
		if v < 0 || math.IsNaN(v) {
			return Validationf("entry %d is %v, want nonnegative", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > ProbabilityTolerance {
		return Validationf("probabilities sum to %v, want 1", sum)
	}
	return nil
}
