package model

import (
	"context"

	"github.com/absmach/fedsim/pkg/data"
)

// TrainResult is the outcome of one local training pass.
type TrainResult struct {
	Weights    Weights
	NumSamples int
	Accuracy   float64
}

// Trainer runs local training for one client against a weight snapshot.
// Implementations must not retain or mutate the snapshot.
type Trainer interface {
	Init() Weights
	Train(ctx context.Context, w Weights, part data.Partition, epochs, batchSize int) (TrainResult, error)
}

// Evaluator tests a weight snapshot against a held-out dataset.
type Evaluator interface {
	Test(ctx context.Context, w Weights, testset data.Partition, batchSize int) (float64, error)
}
