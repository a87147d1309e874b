package simplex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveMaximizeKnownOptimum(t *testing.T) {
	// max 3x + 5y
	// s.t. x <= 4, 2y <= 12, 3x + 2y <= 18
	p := NewProblem(2)
	require.NoError(t, p.SetObjective([]float64{3, 5}, true))
	_, err := p.AddRow([]float64{1, 0}, LessEqual, 4)
	require.NoError(t, err)
	_, err = p.AddRow([]float64{0, 2}, LessEqual, 12)
	require.NoError(t, err)
	_, err = p.AddRow([]float64{3, 2}, LessEqual, 18)
	require.NoError(t, err)

	sol, err := p.Solve()
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 36, sol.Objective, 1e-9)
	assert.InDelta(t, 2, sol.Value(0), 1e-9)
	assert.InDelta(t, 6, sol.Value(1), 1e-9)

	// Shadow prices: only the second and third rows bind.
	assert.InDelta(t, 0, sol.RowDuals[0], 1e-9)
	assert.InDelta(t, 1.5, sol.RowDuals[1], 1e-9)
	assert.InDelta(t, 1, sol.RowDuals[2], 1e-9)
}

func TestSolveMinimizeWithGreaterEqual(t *testing.T) {
	// min 2x + 3y  s.t.  x + y >= 4
	p := NewProblem(2)
	require.NoError(t, p.SetObjective([]float64{2, 3}, false))
	_, err := p.AddRow([]float64{1, 1}, GreaterEqual, 4)
	require.NoError(t, err)

	sol, err := p.Solve()
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 8, sol.Objective, 1e-9)
	assert.InDelta(t, 4, sol.Value(0), 1e-9)
	assert.InDelta(t, 0, sol.Value(1), 1e-9)
	assert.InDelta(t, 2, sol.RowDuals[0], 1e-9)
}

func TestSolveEqualityFixingRowDual(t *testing.T) {
	// min 2a  s.t.  a = 3. The dual of the fixing row is the cost slope.
	p := NewProblem(1)
	require.NoError(t, p.SetObjective([]float64{2}, false))
	_, err := p.AddRow([]float64{1}, Equal, 3)
	require.NoError(t, err)

	sol, err := p.Solve()
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 6, sol.Objective, 1e-9)
	assert.InDelta(t, 3, sol.Value(0), 1e-9)
	assert.InDelta(t, 2, sol.RowDuals[0], 1e-9)
}

func TestSolveNegativeRHS(t *testing.T) {
	// min y  s.t.  x - y <= -2, so y >= x + 2.
	p := NewProblem(2)
	require.NoError(t, p.SetObjective([]float64{0, 1}, false))
	_, err := p.AddRow([]float64{1, -1}, LessEqual, -2)
	require.NoError(t, err)

	sol, err := p.Solve()
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 2, sol.Objective, 1e-9)
	assert.InDelta(t, 2, sol.Value(1), 1e-9)

	// Relaxing the right-hand side by one unit lowers the optimum by one.
	assert.InDelta(t, -1, sol.RowDuals[0], 1e-9)
}

func TestSolveInfeasible(t *testing.T) {
	p := NewProblem(1)
	require.NoError(t, p.SetObjective([]float64{1}, false))
	_, err := p.AddRow([]float64{1}, LessEqual, 1)
	require.NoError(t, err)
	_, err = p.AddRow([]float64{1}, GreaterEqual, 2)
	require.NoError(t, err)

	sol, err := p.Solve()
	require.NoError(t, err)
	assert.True(t, sol.IsInfeasible())
	assert.Equal(t, "infeasible", sol.Status.String())
}

func TestSolveUnbounded(t *testing.T) {
	p := NewProblem(2)
	require.NoError(t, p.SetObjective([]float64{1, 0}, true))
	_, err := p.AddRow([]float64{0, 1}, LessEqual, 1)
	require.NoError(t, err)

	sol, err := p.Solve()
	require.NoError(t, err)
	assert.True(t, sol.IsUnbounded())
}

func TestSolveDegenerateTerminates(t *testing.T) {
	// Multiple rows binding at the origin; Bland's rule must still finish.
	p := NewProblem(2)
	require.NoError(t, p.SetObjective([]float64{-1, -1}, false))
	_, err := p.AddRow([]float64{1, 0}, LessEqual, 0)
	require.NoError(t, err)
	_, err = p.AddRow([]float64{1, 1}, LessEqual, 0)
	require.NoError(t, err)
	_, err = p.AddRow([]float64{0, 1}, LessEqual, 2)
	require.NoError(t, err)

	sol, err := p.Solve()
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 0, sol.Value(0), 1e-9)
	assert.InDelta(t, 0, sol.Value(1), 1e-9)
}

func TestSolveRedundantEquality(t *testing.T) {
	// The second row repeats the first; its artificial stays basic at zero.
	p := NewProblem(2)
	require.NoError(t, p.SetObjective([]float64{1, 2}, false))
	_, err := p.AddRow([]float64{1, 1}, Equal, 3)
	require.NoError(t, err)
	_, err = p.AddRow([]float64{1, 1}, Equal, 3)
	require.NoError(t, err)

	sol, err := p.Solve()
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 3, sol.Objective, 1e-9)
	assert.InDelta(t, 3, sol.Value(0), 1e-9)
}

func TestDimensionChecks(t *testing.T) {
	p := NewProblem(2)
	assert.Error(t, p.SetObjective([]float64{1}, false))
	_, err := p.AddRow([]float64{1, 2, 3}, LessEqual, 1)
	assert.Error(t, err)
	assert.Equal(t, 2, p.NumVars())
	assert.Equal(t, 0, p.NumRows())
}

func TestValueOutOfRange(t *testing.T) {
	sol := &Solution{ColValues: []float64{7}}
	assert.Equal(t, 7.0, sol.Value(0))
	assert.Equal(t, 0.0, sol.Value(1))
	assert.Equal(t, 0.0, sol.Value(-1))
}
