package model

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedsim/pkg/data"
)

func blobPartition(labels, dim, perLabel int, seed int64) data.Partition {
	rng := rand.New(rand.NewSource(seed))
	gen := data.NewSyntheticGenerator(labels, dim, perLabel, 0.1, rng)

	var part data.Partition
	for _, samples := range gen.Generate() {
		part = append(part, samples...)
	}

	return part
}

func TestLinearTrain(t *testing.T) {
	part := blobPartition(3, 4, 50, 1)
	m := NewLinear(4, 3, 0.1)

	res, err := m.Train(context.Background(), m.Init(), part, 5, 16)
	require.NoError(t, err)

	assert.Equal(t, len(part), res.NumSamples)
	assert.GreaterOrEqual(t, res.Accuracy, 0.0)
	assert.LessOrEqual(t, res.Accuracy, 1.0)
	assert.Greater(t, res.Accuracy, 0.5, "separable blobs should train past chance")
	require.NoError(t, m.Init().Align(res.Weights))
}

func TestLinearTrainDeterministic(t *testing.T) {
	part := blobPartition(2, 3, 30, 2)
	m := NewLinear(3, 2, 0.1)

	first, err := m.Train(context.Background(), m.Init(), part, 3, 8)
	require.NoError(t, err)
	second, err := m.Train(context.Background(), m.Init(), part, 3, 8)
	require.NoError(t, err)

	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.Accuracy, second.Accuracy)
}

func TestLinearTrainDoesNotMutateSnapshot(t *testing.T) {
	part := blobPartition(2, 3, 20, 3)
	m := NewLinear(3, 2, 0.1)

	snapshot := m.Init()
	_, err := m.Train(context.Background(), snapshot, part, 3, 8)
	require.NoError(t, err)

	assert.Equal(t, m.Init(), snapshot)
}

func TestLinearErrors(t *testing.T) {
	m := NewLinear(3, 2, 0.1)
	ctx := context.Background()

	_, err := m.Train(ctx, m.Init(), nil, 1, 8)
	assert.ErrorIs(t, err, ErrEmptyPartition)

	_, err = m.Test(ctx, m.Init(), nil, 8)
	assert.ErrorIs(t, err, ErrEmptyPartition)

	bad := Weights{{Name: "other", Data: []float64{1}}}
	_, err = m.Train(ctx, bad, blobPartition(2, 3, 10, 4), 1, 8)
	assert.ErrorIs(t, err, ErrTensorMismatch)
}

func TestLinearTest(t *testing.T) {
	part := blobPartition(3, 4, 60, 5)
	m := NewLinear(4, 3, 0.1)

	res, err := m.Train(context.Background(), m.Init(), part, 10, 16)
	require.NoError(t, err)

	acc, err := m.Test(context.Background(), res.Weights, part, 16)
	require.NoError(t, err)
	assert.InDelta(t, res.Accuracy, acc, 1e-12, "test on the training partition matches the reported accuracy")
}
