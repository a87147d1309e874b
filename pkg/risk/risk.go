package risk

import (
	"sort"

	"github.com/optistoch/sddp/pkg/core"
)

// Expectation is the risk-neutral measure: the modified distribution equals
// the nominal one.
type Expectation struct{}

// Adjust copies p into q.
func (Expectation) Adjust(q, p, z []float64, _ core.Sense) error {
	if err := checkLengths(q, p, z); err != nil {
		return err
	}
	copy(q, p)
	return nil
}

// WorstCase places all probability mass on the single worst outcome for the
// subproblem's sense: the largest objective under Minimize, the smallest
// under Maximize.
type WorstCase struct{}

// Adjust writes the degenerate worst-outcome distribution into q.
func (WorstCase) Adjust(q, p, z []float64, sense core.Sense) error {
	if err := checkLengths(q, p, z); err != nil {
		return err
	}
	if len(p) == 1 {
		copy(q, p)
		return nil
	}
	worst := 0
	for i := 1; i < len(z); i++ {
		if p[i] > 0 && (p[worst] == 0 || sense.Worse(z[i], z[worst])) {
			worst = i
		}
	}
	for i := range q {
		q[i] = 0
	}
	q[worst] = 1
	return nil
}

// AVaR is the average value-at-risk (CVaR-style) measure over the worst
// Beta fraction of outcomes. Beta = 1 recovers Expectation; Beta -> 0
// approaches WorstCase.
type AVaR struct {
	Beta float64
}

// NewAVaR validates Beta and returns the measure.
func NewAVaR(beta float64) (AVaR, error) {
	if beta < 0 || beta > 1 {
		return AVaR{}, core.Validationf("AVaR beta is %v, want [0, 1]", beta)
	}
	return AVaR{Beta: beta}, nil
}

// Adjust reweights the nominal distribution toward the worst Beta tail:
// outcomes are ranked worst first for the sense, and nominal mass is
// consumed in that order, scaled by 1/Beta, until Beta mass is spent.
func (m AVaR) Adjust(q, p, z []float64, sense core.Sense) error {
	if err := checkLengths(q, p, z); err != nil {
		return err
	}
	if len(p) == 1 {
		copy(q, p)
		return nil
	}
	if m.Beta == 0 {
		return WorstCase{}.Adjust(q, p, z, sense)
	}
	if m.Beta == 1 {
		copy(q, p)
		return nil
	}
	order := make([]int, len(z))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sense.Worse(z[order[a]], z[order[b]])
	})
	for i := range q {
		q[i] = 0
	}
	remaining := m.Beta
	for _, i := range order {
		if remaining <= 0 {
			break
		}
		take := p[i]
		if take > remaining {
			take = remaining
		}
		q[i] = take / m.Beta
		remaining -= take
	}
	return nil
}

// EAVaR is the convex combination Lambda*Expectation + (1-Lambda)*AVaR(Beta),
// trading expected performance against tail protection.
type EAVaR struct {
	Lambda float64
	Beta   float64
}

// NewEAVaR validates both parameters and returns the measure.
func NewEAVaR(lambda, beta float64) (EAVaR, error) {
	if lambda < 0 || lambda > 1 {
		return EAVaR{}, core.Validationf("EAVaR lambda is %v, want [0, 1]", lambda)
	}
	if beta < 0 || beta > 1 {
		return EAVaR{}, core.Validationf("EAVaR beta is %v, want [0, 1]", beta)
	}
	return EAVaR{Lambda: lambda, Beta: beta}, nil
}

// Adjust blends the nominal distribution with the AVaR-adjusted one.
func (m EAVaR) Adjust(q, p, z []float64, sense core.Sense) error {
	if err := checkLengths(q, p, z); err != nil {
		return err
	}
	if len(p) == 1 {
		copy(q, p)
		return nil
	}
	tail := make([]float64, len(p))
	if err := (AVaR{Beta: m.Beta}).Adjust(tail, p, z, sense); err != nil {
		return err
	}
	for i := range q {
		q[i] = m.Lambda*p[i] + (1-m.Lambda)*tail[i]
	}
	return nil
}

func checkLengths(q, p, z []float64) error {
	if len(q) != len(p) || len(p) != len(z) {
		return core.Validationf("risk measure length mismatch: q=%d p=%d z=%d", len(q), len(p), len(z))
	}
	if len(p) == 0 {
		return core.Validationf("risk measure called with empty distribution")
	}
	return nil
}
