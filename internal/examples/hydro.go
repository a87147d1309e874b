// Package examples bundles ready-made policy graphs used by the CLI and the
// end-to-end tests.
package examples

import (
	"github.com/optistoch/sddp/pkg/core"
	"github.com/optistoch/sddp/pkg/linear"
)

// HydroGraph builds the classic hydro-thermal scheduling model: one
// reservoir feeding a hydro generator, a thermal unit with stage-increasing
// fuel cost, fixed demand, and a three-point inflow distribution.
func HydroGraph(numStages int, measure core.RiskMeasure) (*core.PolicyGraph, error) {
	if numStages < 2 {
		return nil, core.Validationf("hydro example needs at least 2 stages, got %d", numStages)
	}
	const (
		initialVolume = 200.0
		maxVolume     = 300.0
		demand        = 150.0
	)
	inflows := []float64{0, 50, 100}
	probs := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}

	stages := make([]*core.Stage, numStages)
	for t := 0; t < numStages; t++ {
		fuelCost := 50.0 * float64(t+1)

		m := linear.NewModel()
		volume := m.State("volume", initialVolume)
		thermal := m.BoundedVariable("thermal", fuelCost, demand)
		hydro := m.BoundedVariable("hydro", 0, demand)
		spill := m.Variable("spill", 0)

		balanceRow := m.Constraint([]linear.Term{
			{Var: volume.Out, Coeff: 1},
			{Var: volume.In, Coeff: -1},
			{Var: hydro, Coeff: 1},
			{Var: spill, Coeff: 1},
		}, linear.Equal, 0)
		m.Constraint([]linear.Term{
			{Var: thermal, Coeff: 1},
			{Var: hydro, Coeff: 1},
		}, linear.Equal, demand)
		m.Constraint([]linear.Term{
			{Var: volume.Out, Coeff: 1},
		}, linear.LessEqual, maxVolume)

		noises := make([]core.Noise, len(inflows))
		for k, inflow := range inflows {
			noises[k] = core.Noise{RHS: []core.RHSOverride{{Row: balanceRow, Value: inflow}}}
		}
		sp := &core.Subproblem{
			Sense:      core.Minimize,
			Noises:     noises,
			NoiseProbs: probs,
			Risk:       measure,
		}
		if err := m.Bind(sp); err != nil {
			return nil, err
		}

		transition := [][]float64{{1}}
		if t == numStages-1 {
			transition = nil
		}
		stages[t] = &core.Stage{
			Subproblems: []*core.Subproblem{sp},
			Transition:  transition,
		}
	}
	return core.NewPolicyGraph(core.Minimize, stages)
}
