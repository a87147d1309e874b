package core

import "time"

// VisitRecord is one slot of per-iteration scratch state, appended for each
// stage visited by the current forward pass and consumed by the paired
// backward pass.
type VisitRecord struct {
	MarkovIndex int
	NoiseIndex  int

	// Incoming and Outgoing are the state vectors entering and leaving the
	// visited subproblem.
	Incoming []float64
	Outgoing []float64

	Objective float64
	StageCost float64

	// Duals is the dual vector retrieved from the solve, one entry per state.
	Duals []float64

	// Probability is the nominal probability of the sampled (markov, noise)
	// step; ModifiedProbability is its risk-adjusted counterpart, filled by
	// the backward pass.
	Probability         float64
	ModifiedProbability float64
}

// Storage is the per-solve scratch state: one VisitRecord per stage visited
// in the current forward pass. It is reset at the start of each forward pass
// and never persisted across iterations; backing storage is reused via
// CachedVector semantics.
type Storage struct {
	visits CachedVector[VisitRecord]
}

// NewStorage returns empty scratch storage.
func NewStorage() *Storage {
	return &Storage{}
}

// Reset clears the visit trail, retaining backing storage.
func (s *Storage) Reset() {
	s.visits.Reset()
}

// Append records one visited stage.
func (s *Storage) Append(r VisitRecord) {
	s.visits.Append(r)
}

// Len returns the number of stages visited so far.
func (s *Storage) Len() int {
	return s.visits.Len()
}

// At returns the record for the i-th visited stage.
func (s *Storage) At(i int) VisitRecord {
	return s.visits.At(i)
}

// Ptr returns a pointer to the i-th record for in-place updates by the
// backward pass.
func (s *Storage) Ptr(i int) *VisitRecord {
	return s.visits.Ptr(i)
}

// SolutionRecord is one immutable entry of the solution log, appended per
// completed iteration. It is the canonical input to convergence decisions
// and progress reporting.
type SolutionRecord struct {
	Iteration int

	// Bound is the deterministic bound after the iteration's backward pass.
	Bound float64

	// Simulated is the sampled total cost of the iteration's forward pass.
	Simulated float64

	// SimLower and SimUpper delimit the statistical bound interval when a
	// Monte-Carlo round ran this iteration; both zero otherwise.
	SimLower float64
	SimUpper float64

	// Simulations is the number of policy simulations run this iteration.
	Simulations int

	Elapsed time.Duration
}
