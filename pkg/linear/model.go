package linear

import (
	"math"

	"github.com/optistoch/sddp/pkg/core"
)

// Variable is an index into a Model's decision variables.
type Variable int

// Term is one coefficient of a linear expression.
type Term struct {
	Var   Variable
	Coeff float64
}

// RowSense is the relation of one constraint row.
type RowSense int

const (
	LessEqual RowSense = iota
	GreaterEqual
	Equal
)

// State pairs the incoming and outgoing decision variables of one state
// variable. The incoming variable is fixed to the realized incoming value at
// solve time; the dual of that fixing row is the state's cut coefficient.
type State struct {
	In  Variable
	Out Variable
}

type row struct {
	terms []Term
	sense RowSense
	rhs   float64
}

type stateInfo struct {
	name    string
	initial float64
	in, out Variable
}

// Model is one subproblem's linear stage model: nonnegative decision
// variables with optional upper bounds, linear constraint rows, and
// state-variable pairs. Noise terms refer to rows by the index returned from
// Constraint and to variables by their Variable handle.
type Model struct {
	names  []string
	costs  []float64
	uppers []float64

	rows   []row
	states []stateInfo
}

// NewModel returns an empty stage model.
func NewModel() *Model {
	return &Model{}
}

// Variable adds a nonnegative decision variable with the given objective
// coefficient.
func (m *Model) Variable(name string, cost float64) Variable {
	m.names = append(m.names, name)
	m.costs = append(m.costs, cost)
	m.uppers = append(m.uppers, math.Inf(1))
	return Variable(len(m.names) - 1)
}

// BoundedVariable adds a nonnegative decision variable with an upper bound.
func (m *Model) BoundedVariable(name string, cost float64, upper float64) Variable {
	v := m.Variable(name, cost)
	m.uppers[v] = upper
	return v
}

// State adds a state variable: an incoming variable fixed at solve time and
// an outgoing variable whose optimal value becomes the next stage's incoming
// state. initial is the incoming value at the first stage.
func (m *Model) State(name string, initial float64) State {
	in := m.Variable(name+"_in", 0)
	out := m.Variable(name+"_out", 0)
	m.states = append(m.states, stateInfo{name: name, initial: initial, in: in, out: out})
	return State{In: in, Out: out}
}

// Constraint adds a linear row and returns its index, which noise terms use
// for right-hand-side overrides.
func (m *Model) Constraint(terms []Term, sense RowSense, rhs float64) int {
	cp := make([]Term, len(terms))
	copy(cp, terms)
	m.rows = append(m.rows, row{terms: cp, sense: sense, rhs: rhs})
	return len(m.rows) - 1
}

// NumVariables returns the number of decision variables, state pairs
// included.
func (m *Model) NumVariables() int { return len(m.names) }

// NumRows returns the number of constraint rows.
func (m *Model) NumRows() int { return len(m.rows) }

// stateVariables resolves the core-facing state list.
func (m *Model) stateVariables() []core.StateVariable {
	out := make([]core.StateVariable, len(m.states))
	for i, s := range m.states {
		out[i] = core.StateVariable{Name: s.name, Initial: s.initial}
	}
	return out
}

// validateNoises checks that every noise term refers to existing rows and
// matches the variable count.
func (m *Model) validateNoises(noises []core.Noise) error {
	for ni, noise := range noises {
		if noise.ObjectiveDelta != nil && len(noise.ObjectiveDelta) != len(m.costs) {
			return core.Validationf("noise %d: objective perturbation has %d entries, model has %d variables",
				ni, len(noise.ObjectiveDelta), len(m.costs))
		}
		for _, o := range noise.RHS {
			if o.Row < 0 || o.Row >= len(m.rows) {
				return core.Validationf("noise %d: RHS override refers to row %d, model has %d rows", ni, o.Row, len(m.rows))
			}
		}
	}
	return nil
}

// Bind attaches the model to a subproblem: it populates the state list,
// creates the cut oracle and validates the noise terms against the model.
// Bind implements the model-building half of the core's collaborator
// contract.
func (m *Model) Bind(sp *core.Subproblem) error {
	if err := m.validateNoises(sp.Noises); err != nil {
		return err
	}
	sp.States = m.stateVariables()
	sp.Oracle = core.NewCutOracle(sp.Sense, len(sp.States))
	sp.Model = m
	return nil
}

// NewSubproblem builds a stage model through build and returns a subproblem
// bound to it.
func NewSubproblem(
	sense core.Sense,
	bound float64,
	noises []core.Noise,
	probs []float64,
	measure core.RiskMeasure,
	build func(m *Model) error,
) (*core.Subproblem, error) {
	m := NewModel()
	if err := build(m); err != nil {
		return nil, err
	}
	sp := &core.Subproblem{
		Sense:      sense,
		Bound:      bound,
		Noises:     noises,
		NoiseProbs: probs,
		Risk:       measure,
	}
	if err := m.Bind(sp); err != nil {
		return nil, err
	}
	return sp, nil
}
