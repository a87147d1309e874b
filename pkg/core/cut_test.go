package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCutDimensionCheck(t *testing.T) {
	_, err := NewCut(1.0, []float64{1, 2}, 3)
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	c, err := NewCut(1.0, []float64{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Intercept)
}

func TestCutEvaluate(t *testing.T) {
	c := Cut{Intercept: 2, Coefficients: []float64{1, -0.5}}
	assert.InDelta(t, 2+3-1, c.Evaluate([]float64{3, 2}), 1e-12)
}

func TestCutOracleAddAndSnapshot(t *testing.T) {
	o := NewCutOracle(Minimize, 1)

	err := o.AddCut(Cut{Intercept: 1, Coefficients: []float64{2, 3}})
	require.Error(t, err, "dimension mismatch must be rejected")

	require.NoError(t, o.AddCut(Cut{Intercept: 1, Coefficients: []float64{2}}))
	require.NoError(t, o.AddCut(Cut{Intercept: 4, Coefficients: []float64{0}}))
	assert.Equal(t, 2, o.Len())

	snap := o.ActiveCuts()
	require.Len(t, snap, 2)

	// The snapshot must not observe later appends.
	require.NoError(t, o.AddCut(Cut{Intercept: 9, Coefficients: []float64{1}}))
	assert.Len(t, snap, 2)
	assert.Len(t, o.ActiveCuts(), 3)
}

func TestCutOracleSamplePointCopied(t *testing.T) {
	o := NewCutOracle(Minimize, 1)
	state := []float64{5}
	o.AddSamplePoint(state)
	state[0] = 1000

	require.NoError(t, o.AddCut(Cut{Intercept: 0, Coefficients: []float64{1}}))
	require.NoError(t, o.AddCut(Cut{Intercept: 100, Coefficients: []float64{0}}))
	o.Select()

	// At the recorded point x=5 the flat cut at 100 dominates; mutating the
	// caller's slice must not change that.
	active := o.ActiveCuts()
	require.Len(t, active, 1)
	assert.Equal(t, 100.0, active[0].Intercept)
}

func TestCutOracleSelectLevelOne(t *testing.T) {
	tests := []struct {
		name   string
		sense  Sense
		cuts   []Cut
		points [][]float64
		want   []float64 // intercepts of the cuts expected to stay active
	}{
		{
			name:  "minimize keeps highest cut per point",
			sense: Minimize,
			cuts: []Cut{
				{Intercept: 0, Coefficients: []float64{1}},  // best for large x
				{Intercept: 10, Coefficients: []float64{0}}, // best for small x
				{Intercept: -5, Coefficients: []float64{0}}, // dominated everywhere
			},
			points: [][]float64{{0}, {100}},
			want:   []float64{0, 10},
		},
		{
			name:  "maximize keeps lowest cut per point",
			sense: Maximize,
			cuts: []Cut{
				{Intercept: 0, Coefficients: []float64{1}},
				{Intercept: 10, Coefficients: []float64{0}},
			},
			points: [][]float64{{0}},
			want:   []float64{0},
		},
		{
			name:  "no points keeps everything",
			sense: Minimize,
			cuts: []Cut{
				{Intercept: 1, Coefficients: []float64{0}},
				{Intercept: 2, Coefficients: []float64{0}},
			},
			points: nil,
			want:   []float64{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewCutOracle(tt.sense, 1)
			for _, c := range tt.cuts {
				require.NoError(t, o.AddCut(c))
			}
			for _, p := range tt.points {
				o.AddSamplePoint(p)
			}
			o.Select()

			var got []float64
			for _, c := range o.ActiveCuts() {
				got = append(got, c.Intercept)
			}
			assert.ElementsMatch(t, tt.want, got)
			assert.Equal(t, len(tt.cuts), o.Len(), "selection must never delete cuts")
		})
	}
}

func TestCutOracleConcurrentAppend(t *testing.T) {
	o := NewCutOracle(Minimize, 2)
	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_ = o.AddCut(Cut{Intercept: float64(w), Coefficients: []float64{1, float64(i)}})
				o.AddSamplePoint([]float64{float64(w), float64(i)})
				_ = o.ActiveCuts()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, o.Len())
	assert.Len(t, o.ActiveCuts(), workers*perWorker)
}

func BenchmarkCutOracleAddCut(b *testing.B) {
	o := NewCutOracle(Minimize, 4)
	coeffs := []float64{1, 2, 3, 4}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if i%1024 == 0 {
			o.Reset()
		}
		_ = o.AddCut(Cut{Intercept: float64(i), Coefficients: coeffs})
	}
}

func BenchmarkCutEvaluate(b *testing.B) {
	c := Cut{Intercept: 1, Coefficients: []float64{1, 2, 3, 4}}
	state := []float64{4, 3, 2, 1}
	var sink float64
	for i := 0; i < b.N; i++ {
		sink += c.Evaluate(state)
	}
	_ = sink
}

func TestCutOracleReset(t *testing.T) {
	o := NewCutOracle(Minimize, 1)
	require.NoError(t, o.AddCut(Cut{Intercept: 1, Coefficients: []float64{1}}))
	o.AddSamplePoint([]float64{1})
	o.Reset()
	assert.Equal(t, 0, o.Len())
	assert.Empty(t, o.ActiveCuts())
}
