package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/pkg/model"
)

func TestFedAsyncAggregate(t *testing.T) {
	tests := []struct {
		name      string
		alpha     float64
		staleness float64
		baseline  float64
		reported  float64
		expected  float64
	}{
		{
			name:      "full trust adopts the reported weight exactly",
			alpha:     1,
			staleness: 0,
			baseline:  10,
			reported:  2,
			expected:  2,
		},
		{
			name:      "half trust lands midway",
			alpha:     0.5,
			staleness: 0,
			baseline:  10,
			reported:  2,
			expected:  6,
		},
		{
			name:      "constant ignores staleness",
			alpha:     1,
			staleness: 100,
			baseline:  10,
			reported:  2,
			expected:  2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			agg, err := NewFedAsync(tc.alpha, Constant)
			require.NoError(t, err)

			updated, err := agg.Aggregate(
				scalarWeights("w", tc.baseline),
				[]client.Report{{ClientID: "a", Weights: scalarWeights("w", tc.reported), NumSamples: 10}},
				tc.staleness,
			)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, updated[0].Data[0], 1e-12)
		})
	}
}

func TestFedAsyncSampleWeightedMean(t *testing.T) {
	agg, err := NewFedAsync(1, Constant)
	require.NoError(t, err)

	updated, err := agg.Aggregate(
		scalarWeights("w", 0),
		[]client.Report{
			{ClientID: "a", Weights: scalarWeights("w", 1), NumSamples: 10},
			{ClientID: "b", Weights: scalarWeights("w", 4), NumSamples: 30},
		},
		0,
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.0*0.25+4.0*0.75, updated[0].Data[0], 1e-12)
}

func TestFedAsyncBlendBounds(t *testing.T) {
	baseline := scalarWeights("w", -3)
	reported := scalarWeights("w", 7)

	for _, alpha := range []float64{0.01, 0.25, 0.5, 0.75, 1} {
		for _, staleness := range []float64{0, 1, 5, 50} {
			agg, err := NewFedAsync(alpha, Polynomial)
			require.NoError(t, err)

			updated, err := agg.Aggregate(baseline, []client.Report{
				{ClientID: "a", Weights: reported, NumSamples: 10},
			}, staleness)
			require.NoError(t, err)

			v := updated[0].Data[0]
			assert.GreaterOrEqual(t, v, baseline[0].Data[0])
			assert.LessOrEqual(t, v, reported[0].Data[0])
		}
	}
}

func TestFedAsyncErrors(t *testing.T) {
	agg, err := NewFedAsync(1, Constant)
	require.NoError(t, err)

	t.Run("negative staleness", func(t *testing.T) {
		_, err := agg.Aggregate(scalarWeights("w", 0), []client.Report{
			{ClientID: "a", Weights: scalarWeights("w", 1), NumSamples: 10},
		}, -0.5)
		assert.ErrorIs(t, err, ErrNegativeStaleness)
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := agg.Aggregate(scalarWeights("w", 0), nil, 0)
		assert.ErrorIs(t, err, ErrNoReports)
	})

	t.Run("zero total samples", func(t *testing.T) {
		_, err := agg.Aggregate(scalarWeights("w", 0), []client.Report{
			{ClientID: "a", Weights: scalarWeights("w", 1), NumSamples: 0},
		}, 0)
		assert.ErrorIs(t, err, ErrZeroSamples)
	})

	t.Run("tensor mismatch", func(t *testing.T) {
		_, err := agg.Aggregate(scalarWeights("w", 0), []client.Report{
			{ClientID: "a", Weights: scalarWeights("v", 1), NumSamples: 10},
		}, 0)
		assert.ErrorIs(t, err, model.ErrTensorMismatch)
	})

	t.Run("invalid alpha", func(t *testing.T) {
		_, err := NewFedAsync(0, Constant)
		assert.ErrorIs(t, err, ErrMixingRate)
		_, err = NewFedAsync(1.5, Constant)
		assert.ErrorIs(t, err, ErrMixingRate)
	})
}
