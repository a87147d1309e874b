package core

import (
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Cut is one supporting hyperplane of a subproblem's future-cost value
// function:
//
//	theta >= Intercept + Coefficients . state   (Minimize)
//	theta <= Intercept + Coefficients . state   (Maximize)
//
// Cuts are immutable once constructed.
type Cut struct {
	Intercept    float64
	Coefficients []float64
}

// NewCut validates the coefficient vector against the subproblem's state
// count and returns the cut. A length mismatch is a ValidationError.
func NewCut(intercept float64, coefficients []float64, stateCount int) (Cut, error) {
	if len(coefficients) != stateCount {
		return Cut{}, Validationf("cut has %d coefficients, subproblem has %d states", len(coefficients), stateCount)
	}
	return Cut{Intercept: intercept, Coefficients: coefficients}, nil
}

// Evaluate returns the height of the cut at the given state.
func (c Cut) Evaluate(state []float64) float64 {
	return c.Intercept + floats.Dot(c.Coefficients, state)
}

// CutOracle stores the cuts installed in one subproblem's relaxation and
// selects which of them are active. Cuts are append-only: selection may
// deactivate a cut but never deletes it, so correctness of the relaxation is
// preserved while the solved model stays bounded in size.
//
// AddCut and AddSamplePoint may be called concurrently from multiple solve
// workers. ActiveCuts returns a copied snapshot: a caller sees a possibly
// stale but always consistent cut set, never a partially appended cut.
type CutOracle struct {
	mu sync.RWMutex

	stateCount int
	sense      Sense

	cuts   CachedVector[Cut]
	active CachedVector[bool]

	// points are the outgoing states visited by forward passes, used by
	// level-one selection to decide which cuts dominate somewhere.
	points CachedVector[[]float64]
}

// NewCutOracle returns an oracle for a subproblem with the given optimization
// sense and state count.
func NewCutOracle(sense Sense, stateCount int) *CutOracle {
	return &CutOracle{stateCount: stateCount, sense: sense}
}

// AddCut appends a cut. O(1) amortized; backing storage is reused across
// Reset cycles. A coefficient-dimension mismatch is a ValidationError.
func (o *CutOracle) AddCut(c Cut) error {
	if len(c.Coefficients) != o.stateCount {
		return Validationf("cut has %d coefficients, oracle expects %d", len(c.Coefficients), o.stateCount)
	}
	o.mu.Lock()
	o.cuts.Append(c)
	o.active.Append(true)
	o.mu.Unlock()
	return nil
}

// AddSamplePoint records an outgoing state visited by a forward pass. The
// slice is copied.
func (o *CutOracle) AddSamplePoint(state []float64) {
	p := make([]float64, len(state))
	copy(p, state)
	o.mu.Lock()
	o.points.Append(p)
	o.mu.Unlock()
}

// Len returns the number of stored cuts, active or not.
func (o *CutOracle) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cuts.Len()
}

// ActiveCuts returns a snapshot of the cuts currently installed in the
// relaxation. By default that is every stored cut; after a Select pass it is
// the dominating subset.
func (o *CutOracle) ActiveCuts() []Cut {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Cut, 0, o.cuts.Len())
	for i := 0; i < o.cuts.Len(); i++ {
		if o.active.At(i) {
			out = append(out, o.cuts.At(i))
		}
	}
	return out
}

// Select runs level-one cut selection: a cut stays active if it attains the
// dominating value at at least one recorded sample point. With no recorded
// points every cut stays active.
func (o *CutOracle) Select() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.points.Len() == 0 || o.cuts.Len() == 0 {
		return
	}
	for i := 0; i < o.active.Len(); i++ {
		*o.active.Ptr(i) = false
	}
	for pi := 0; pi < o.points.Len(); pi++ {
		state := o.points.At(pi)
		best := 0
		bestVal := o.cuts.At(0).Evaluate(state)
		for ci := 1; ci < o.cuts.Len(); ci++ {
			v := o.cuts.At(ci).Evaluate(state)
			if o.sense.Better(bestVal, v) {
				best, bestVal = ci, v
			}
		}
		*o.active.Ptr(best) = true
	}
}

// Reset clears the logical cut and sample-point lengths without deallocating
// backing storage, supporting memory-bounded long runs that rebuild oracles.
func (o *CutOracle) Reset() {
	o.mu.Lock()
	o.cuts.Reset()
	o.active.Reset()
	o.points.Reset()
	o.mu.Unlock()
}
