package utility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverage(t *testing.T) {
	assert.InDelta(t, 0.5, ReduceSlice(Average, []float64{0.25, 0.75}, 1), 1e-12)
	assert.Equal(t, 0.0, ReduceSlice(Average, nil, 1), "empty average contributes nothing")
	assert.Equal(t, 0.0, ReduceSlice(Average, []float64{}, 7), "seed is not used by average")
}

func TestMultiplicative(t *testing.T) {
	assert.InDelta(t, 0.125, ReduceSlice(Multiplicative, []float64{0.5, 0.5, 0.5}, 1), 1e-12)
	assert.InDelta(t, 0.25, ReduceSlice(Multiplicative, []float64{0.5, 0.5}, 1), 1e-12)
	assert.Equal(t, 1.0, ReduceSlice(Multiplicative, nil, 1))
	assert.Equal(t, 2.5, ReduceSlice(Multiplicative, nil, 2.5), "empty product is the bonus factor")
	assert.InDelta(t, 1.0, ReduceSlice(Multiplicative, []float64{0.5}, 2), 1e-12)
}

func TestThresholdAccumulate(t *testing.T) {
	m, err := ThresholdAccumulate(0.3)
	require.NoError(t, err)

	tests := []struct {
		name   string
		scores []float64
		seed   float64
		want   float64
	}{
		{"all above", []float64{0.5, 0.4}, 1, 1.9},
		{"stops at first low score", []float64{0.5, 0.1, 0.9}, 1, 1.5},
		{"first score low", []float64{0.2, 0.9, 0.9}, 1, 1},
		{"empty returns seed", nil, 1, 1},
		{"custom seed", []float64{0.5}, 0, 0.5},
		{"equal to threshold is kept", []float64{0.3, 0.3}, 1, 1.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ReduceSlice(m, tt.scores, tt.seed), 1e-12)
		})
	}
}

func TestThresholdAccumulateRejectsBadThreshold(t *testing.T) {
	_, err := ThresholdAccumulate(-0.1)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = ThresholdAccumulate(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	assert.Panics(t, func() { MustThresholdAccumulate(-1) })

	m, err := ThresholdAccumulate(0)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestScoringMethodByName(t *testing.T) {
	m, err := ScoringMethodByName("average", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, ReduceSlice(m, []float64{0.5}, 1))

	m, err = ScoringMethodByName("", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ReduceSlice(m, nil, 1), "empty name defaults to average")

	m, err = ScoringMethodByName("multiplicative", 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, ReduceSlice(m, nil, 3))

	m, err = ScoringMethodByName("threshold", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.6, ReduceSlice(m, []float64{0.6, 0.4, 0.9}, 1), 1e-12)

	_, err = ScoringMethodByName("threshold", -2)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = ScoringMethodByName("median", 0)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
