package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optistoch/sddp/pkg/config"
	"github.com/optistoch/sddp/pkg/core"
)

func boundLog(bounds ...float64) []core.SolutionRecord {
	log := make([]core.SolutionRecord, len(bounds))
	for i, b := range bounds {
		log[i] = core.SolutionRecord{Iteration: i + 1, Bound: b}
	}
	return log
}

func TestStalled(t *testing.T) {
	tests := []struct {
		name   string
		bounds []float64
		rule   config.Stalling
		want   bool
	}{
		{
			name:   "flat window fires with zero tolerances",
			bounds: []float64{1, 5, 10, 10, 10},
			rule:   config.Stalling{Iterations: 3},
			want:   true,
		},
		{
			name:   "still improving",
			bounds: []float64{1, 5, 10, 11, 12},
			rule:   config.Stalling{Iterations: 3, Atol: 0.1},
			want:   false,
		},
		{
			name:   "window not filled yet",
			bounds: []float64{10, 10},
			rule:   config.Stalling{Iterations: 3},
			want:   false,
		},
		{
			name:   "disabled rule never fires",
			bounds: []float64{10, 10, 10, 10},
			rule:   config.Stalling{},
			want:   false,
		},
		{
			name:   "absolute tolerance absorbs small wiggle",
			bounds: []float64{10, 10.05, 9.95},
			rule:   config.Stalling{Iterations: 3, Atol: 0.1},
			want:   true,
		},
		{
			name:   "relative tolerance scales with the bound",
			bounds: []float64{1000, 1000.05, 999.95},
			rule:   config.Stalling{Iterations: 3, Rtol: 1e-3},
			want:   true,
		},
		{
			name:   "relative tolerance too tight",
			bounds: []float64{1000, 1010, 990},
			rule:   config.Stalling{Iterations: 3, Rtol: 1e-3},
			want:   false,
		},
		{
			name:   "only trailing window considered",
			bounds: []float64{0, 100, 7, 7, 7},
			rule:   config.Stalling{Iterations: 3},
			want:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stalled(boundLog(tt.bounds...), tt.rule))
		})
	}
}

func TestConfidenceIntervalSmallSamples(t *testing.T) {
	lower, upper := confidenceInterval(nil, 0.95)
	assert.True(t, math.IsInf(lower, -1))
	assert.True(t, math.IsInf(upper, 1))

	lower, upper = confidenceInterval([]float64{3}, 0.95)
	assert.True(t, math.IsInf(lower, -1))
	assert.True(t, math.IsInf(upper, 1))
}

func TestConfidenceIntervalKnownValue(t *testing.T) {
	// Samples {1, 2, 3}: mean 2, sd 1, t(0.975, df=2) = 4.3027, so the
	// half-width is 4.3027/sqrt(3) = 2.4842.
	lower, upper := confidenceInterval([]float64{1, 2, 3}, 0.95)
	assert.InDelta(t, 2-2.4842, lower, 1e-3)
	assert.InDelta(t, 2+2.4842, upper, 1e-3)
}

func TestConfidenceIntervalDegenerateSamples(t *testing.T) {
	lower, upper := confidenceInterval([]float64{7, 7, 7, 7}, 0.95)
	assert.InDelta(t, 7, lower, 1e-12)
	assert.InDelta(t, 7, upper, 1e-12)
}
