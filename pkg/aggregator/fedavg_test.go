package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/pkg/model"
)

func scalarWeights(name string, v float64) model.Weights {
	return model.Weights{{Name: name, Data: []float64{v}}}
}

func TestFedAvgAggregate(t *testing.T) {
	tests := []struct {
		name     string
		baseline model.Weights
		reports  []client.Report
		expected float64
		err      error
	}{
		{
			name:     "weighted average of deltas",
			baseline: scalarWeights("w", 0),
			reports: []client.Report{
				{ClientID: "a", Weights: scalarWeights("w", 1), NumSamples: 10},
				{ClientID: "b", Weights: scalarWeights("w", 2), NumSamples: 20},
				{ClientID: "c", Weights: scalarWeights("w", 3), NumSamples: 30},
			},
			expected: 1.0*10.0/60.0 + 2.0*20.0/60.0 + 3.0*30.0/60.0,
		},
		{
			name:     "nonzero baseline",
			baseline: scalarWeights("w", 1),
			reports: []client.Report{
				{ClientID: "a", Weights: scalarWeights("w", 3), NumSamples: 5},
				{ClientID: "b", Weights: scalarWeights("w", 1), NumSamples: 5},
			},
			expected: 2,
		},
		{
			name:     "empty batch",
			baseline: scalarWeights("w", 0),
			reports:  nil,
			err:      ErrNoReports,
		},
		{
			name:     "zero total samples",
			baseline: scalarWeights("w", 0),
			reports: []client.Report{
				{ClientID: "a", Weights: scalarWeights("w", 1), NumSamples: 0},
			},
			err: ErrZeroSamples,
		},
		{
			name:     "tensor name mismatch",
			baseline: scalarWeights("w", 0),
			reports: []client.Report{
				{ClientID: "a", Weights: scalarWeights("v", 1), NumSamples: 10},
			},
			err: model.ErrTensorMismatch,
		},
	}

	agg := NewFedAvg()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			updated, err := agg.Aggregate(tc.baseline, tc.reports)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, updated[0].Data[0], 1e-12)
		})
	}
}

func TestFedAvgDoesNotMutateBaseline(t *testing.T) {
	baseline := scalarWeights("w", 1)
	reports := []client.Report{
		{ClientID: "a", Weights: scalarWeights("w", 5), NumSamples: 10},
	}

	_, err := NewFedAvg().Aggregate(baseline, reports)
	require.NoError(t, err)
	assert.Equal(t, 1.0, baseline[0].Data[0])
}
