package simplex

import (
	"fmt"
	"math"
)

// pivotTol is the magnitude below which a tableau entry is treated as zero.
const pivotTol = 1e-9

// Status indicates the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusIterationLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusIterationLimit:
		return "iteration_limit"
	default:
		return "unknown"
	}
}

// RowSense is the relation of one constraint row.
type RowSense int

const (
	LessEqual RowSense = iota
	GreaterEqual
	Equal
)

// Problem is a dense linear program over nonnegative variables:
//
//	min (or max)  c . x
//	subject to    A[i] . x  (<=|=|>=)  b[i]   for every row i
//	              x >= 0
//
// Variables with other lower bounds or with upper bounds are modeled with
// explicit rows by the caller.
type Problem struct {
	numVars  int
	obj      []float64
	maximize bool

	rows   [][]float64
	senses []RowSense
	rhs    []float64
}

// NewProblem returns an empty problem over numVars nonnegative variables.
func NewProblem(numVars int) *Problem {
	return &Problem{
		numVars: numVars,
		obj:     make([]float64, numVars),
	}
}

// NumVars returns the number of structural variables.
func (p *Problem) NumVars() int { return p.numVars }

// NumRows returns the number of constraint rows added so far.
func (p *Problem) NumRows() int { return len(p.rows) }

// SetObjective sets the objective coefficients and direction.
func (p *Problem) SetObjective(coeffs []float64, maximize bool) error {
	if len(coeffs) != p.numVars {
		return fmt.Errorf("simplex: objective has %d coefficients, problem has %d variables", len(coeffs), p.numVars)
	}
	copy(p.obj, coeffs)
	p.maximize = maximize
	return nil
}

// AddRow appends a constraint row and returns its index. The coefficient
// slice is copied.
func (p *Problem) AddRow(coeffs []float64, sense RowSense, rhs float64) (int, error) {
	if len(coeffs) != p.numVars {
		return 0, fmt.Errorf("simplex: row has %d coefficients, problem has %d variables", len(coeffs), p.numVars)
	}
	row := make([]float64, p.numVars)
	copy(row, coeffs)
	p.rows = append(p.rows, row)
	p.senses = append(p.senses, sense)
	p.rhs = append(p.rhs, rhs)
	return len(p.rows) - 1, nil
}

// Solution contains the results from solving a problem.
type Solution struct {
	// Status indicates the outcome of the solve.
	Status Status

	// Objective is the value of the objective function at the solution.
	Objective float64

	// ColValues contains the primal solution values for each variable.
	ColValues []float64

	// RowDuals contains the dual price of each constraint row, signed with
	// respect to the original right-hand side: the rate of change of the
	// optimal objective per unit of b[i].
	RowDuals []float64
}

// IsOptimal returns true if the solution is optimal.
func (s *Solution) IsOptimal() bool { return s.Status == StatusOptimal }

// IsInfeasible returns true if the problem is infeasible.
func (s *Solution) IsInfeasible() bool { return s.Status == StatusInfeasible }

// IsUnbounded returns true if the problem is unbounded.
func (s *Solution) IsUnbounded() bool { return s.Status == StatusUnbounded }

// Value returns the solution value for a variable by index, or 0 if the
// index is out of range.
func (s *Solution) Value(index int) float64 {
	if index < 0 || index >= len(s.ColValues) {
		return 0
	}
	return s.ColValues[index]
}

// tableau is the dense two-phase working state.
type tableau struct {
	m, n    int // rows, structural columns
	cols    int // structural + slack/surplus + artificial
	numReal int // structural + slack/surplus: columns allowed to enter in phase 2

	t       [][]float64 // m x (cols+1); last column is the rhs
	objRow  []float64   // cols+1; last entry is the negated objective value
	basis   []int
	unitCol []int // per row: initial +e_i column, read for duals
	flipped []bool
	isArt   []bool

	unbounded bool
}

// Solve runs the two-phase primal simplex with Bland's rule and returns the
// solution. Bland's rule trades speed for guaranteed termination, which is
// the right trade for the small stage relaxations solved here.
func (p *Problem) Solve() (*Solution, error) {
	tb := p.build()

	// Phase 1: minimize the sum of artificials.
	if !tb.iterate(tb.cols) {
		return &Solution{Status: StatusIterationLimit}, nil
	}
	if -tb.objRow[tb.cols] > 1e-7 {
		return &Solution{Status: StatusInfeasible}, nil
	}
	tb.driveOutArtificials()

	// Phase 2: original costs, artificial columns barred from entering.
	tb.installObjective(p)
	if !tb.iterate(tb.numReal) {
		return &Solution{Status: StatusIterationLimit}, nil
	}
	if tb.unbounded {
		return &Solution{Status: StatusUnbounded}, nil
	}
	return tb.extract(p), nil
}

func (p *Problem) build() *tableau {
	m, n := len(p.rows), p.numVars

	numSlack, numArt := 0, 0
	senses := make([]RowSense, m)
	flipped := make([]bool, m)
	for i, s := range p.senses {
		senses[i] = s
		if p.rhs[i] < 0 {
			flipped[i] = true
			switch s {
			case LessEqual:
				senses[i] = GreaterEqual
			case GreaterEqual:
				senses[i] = LessEqual
			}
		}
		switch senses[i] {
		case LessEqual:
			numSlack++
		case GreaterEqual:
			numSlack++
			numArt++
		case Equal:
			numArt++
		}
	}

	cols := n + numSlack + numArt
	tb := &tableau{
		m:       m,
		n:       n,
		cols:    cols,
		numReal: n + numSlack,
		objRow:  make([]float64, cols+1),
		basis:   make([]int, m),
		unitCol: make([]int, m),
		flipped: flipped,
		isArt:   make([]bool, cols),
	}
	tb.t = make([][]float64, m)

	slack, art := n, n+numSlack
	for i := 0; i < m; i++ {
		row := make([]float64, cols+1)
		sign := 1.0
		if flipped[i] {
			sign = -1
		}
		for j := 0; j < n; j++ {
			row[j] = sign * p.rows[i][j]
		}
		row[cols] = sign * p.rhs[i]
		switch senses[i] {
		case LessEqual:
			row[slack] = 1
			tb.basis[i] = slack
			tb.unitCol[i] = slack
			slack++
		case GreaterEqual:
			row[slack] = -1
			slack++
			row[art] = 1
			tb.isArt[art] = true
			tb.basis[i] = art
			tb.unitCol[i] = art
			art++
		case Equal:
			row[art] = 1
			tb.isArt[art] = true
			tb.basis[i] = art
			tb.unitCol[i] = art
			art++
		}
		tb.t[i] = row
	}

	// Phase-1 reduced costs: cost 1 on artificials, reduced against the
	// artificial basis.
	for j := range tb.isArt {
		if tb.isArt[j] {
			tb.objRow[j] = 1
		}
	}
	for i := 0; i < m; i++ {
		if tb.isArt[tb.basis[i]] {
			for j := 0; j <= cols; j++ {
				tb.objRow[j] -= tb.t[i][j]
			}
		}
	}
	return tb
}

// installObjective rebuilds the reduced-cost row from the problem's real
// costs against the current basis. Maximize is handled by negating costs.
func (tb *tableau) installObjective(p *Problem) {
	cost := func(j int) float64 {
		if j >= tb.n {
			return 0
		}
		if p.maximize {
			return -p.obj[j]
		}
		return p.obj[j]
	}
	for j := 0; j <= tb.cols; j++ {
		tb.objRow[j] = 0
	}
	for j := 0; j < tb.cols; j++ {
		tb.objRow[j] = cost(j)
	}
	for i := 0; i < tb.m; i++ {
		cb := cost(tb.basis[i])
		if cb == 0 {
			continue
		}
		for j := 0; j <= tb.cols; j++ {
			tb.objRow[j] -= cb * tb.t[i][j]
		}
	}
}

// iterate pivots until no reduced cost is negative, considering only the
// first allowedCols columns for entering. Returns false on iteration limit.
func (tb *tableau) iterate(allowedCols int) bool {
	maxIter := 100 * (tb.m + tb.cols + 10)
	for iter := 0; iter < maxIter; iter++ {
		// Bland: first improving column.
		enter := -1
		for j := 0; j < allowedCols; j++ {
			if tb.objRow[j] < -pivotTol {
				enter = j
				break
			}
		}
		if enter < 0 {
			return true
		}
		// Ratio test, Bland tie-break on the smallest basis column.
		leave := -1
		best := math.Inf(1)
		for i := 0; i < tb.m; i++ {
			a := tb.t[i][enter]
			if a <= pivotTol {
				continue
			}
			ratio := tb.t[i][tb.cols] / a
			if ratio < best-pivotTol || (ratio < best+pivotTol && (leave < 0 || tb.basis[i] < tb.basis[leave])) {
				best = ratio
				leave = i
			}
		}
		if leave < 0 {
			tb.unbounded = true
			return true
		}
		tb.pivot(leave, enter)
	}
	return false
}

func (tb *tableau) pivot(row, col int) {
	pr := tb.t[row]
	inv := 1 / pr[col]
	for j := 0; j <= tb.cols; j++ {
		pr[j] *= inv
	}
	for i := 0; i < tb.m; i++ {
		if i == row {
			continue
		}
		f := tb.t[i][col]
		if f == 0 {
			continue
		}
		for j := 0; j <= tb.cols; j++ {
			tb.t[i][j] -= f * pr[j]
		}
	}
	f := tb.objRow[col]
	if f != 0 {
		for j := 0; j <= tb.cols; j++ {
			tb.objRow[j] -= f * pr[j]
		}
	}
	tb.basis[row] = col
}

// driveOutArtificials pivots basic artificials onto real columns where
// possible. A row whose real entries are all zero is redundant; its
// artificial stays basic at value zero and never passes a ratio test again.
func (tb *tableau) driveOutArtificials() {
	for i := 0; i < tb.m; i++ {
		if !tb.isArt[tb.basis[i]] {
			continue
		}
		for j := 0; j < tb.numReal; j++ {
			if math.Abs(tb.t[i][j]) > pivotTol {
				tb.pivot(i, j)
				break
			}
		}
	}
}

func (tb *tableau) extract(p *Problem) *Solution {
	sol := &Solution{
		Status:    StatusOptimal,
		ColValues: make([]float64, tb.n),
		RowDuals:  make([]float64, tb.m),
	}
	for i, b := range tb.basis {
		if b < tb.n {
			sol.ColValues[b] = tb.t[i][tb.cols]
		}
	}
	obj := -tb.objRow[tb.cols]
	// The initial +e_i column of row i carries zero phase-2 cost, so its
	// reduced cost equals -y_i.
	for i := 0; i < tb.m; i++ {
		y := -tb.objRow[tb.unitCol[i]]
		if tb.flipped[i] {
			y = -y
		}
		if p.maximize {
			y = -y
		}
		sol.RowDuals[i] = y
	}
	if p.maximize {
		obj = -obj
	}
	sol.Objective = obj
	return sol
}
