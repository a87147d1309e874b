package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationfMessage(t *testing.T) {
	err := Validationf("got %d, want %d", 2, 3)
	assert.EqualError(t, err, "validation: got 2, want 3")
}

func TestInfeasibleErrorMessage(t *testing.T) {
	withNoise := &InfeasibleError{Stage: 2, MarkovIndex: 1, NoiseIndex: 3, Incoming: []float64{1.5}}
	assert.Contains(t, withNoise.Error(), "stage 2")
	assert.Contains(t, withNoise.Error(), "noise 3")

	noNoise := &InfeasibleError{Stage: 0, MarkovIndex: 0, NoiseIndex: -1}
	assert.NotContains(t, noNoise.Error(), "noise")
}

func TestSolverErrorUnwrap(t *testing.T) {
	cause := errors.New("backend exploded")
	err := &SolverError{Stage: 1, MarkovIndex: 0, Err: cause}
	assert.ErrorIs(t, fmt.Errorf("solve: %w", err), cause)
	assert.Contains(t, err.Error(), "stage 1")
}
