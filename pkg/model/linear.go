package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/absmach/fedsim/pkg/data"
)

var ErrEmptyPartition = errors.New("empty training partition")

const (
	weightTensor = "dense.weight"
	biasTensor   = "dense.bias"
)

// Linear is a multiclass perceptron used as the reference model. It is
// deliberately small and deterministic: the simulator's subject is round
// orchestration, not model capacity.
type Linear struct {
	dim          int
	numLabels    int
	learningRate float64
}

func NewLinear(dim, numLabels int, learningRate float64) *Linear {
	return &Linear{
		dim:          dim,
		numLabels:    numLabels,
		learningRate: learningRate,
	}
}

func (m *Linear) Init() Weights {
	return Weights{
		{Name: weightTensor, Data: make([]float64, m.numLabels*m.dim)},
		{Name: biasTensor, Data: make([]float64, m.numLabels)},
	}
}

func (m *Linear) Train(ctx context.Context, w Weights, part data.Partition, epochs, batchSize int) (TrainResult, error) {
	if len(part) == 0 {
		return TrainResult{}, ErrEmptyPartition
	}
	if err := w.Align(m.Init()); err != nil {
		return TrainResult{}, fmt.Errorf("incompatible weight snapshot: %w", err)
	}

	local := w.Clone()
	weights, bias := local[0].Data, local[1].Data

	for range epochs {
		if err := ctx.Err(); err != nil {
			return TrainResult{}, err
		}
		for _, sample := range part {
			pred := m.predict(weights, bias, sample.Features)
			if pred == sample.Label {
				continue
			}
			for j, x := range sample.Features {
				weights[sample.Label*m.dim+j] += m.learningRate * x
				weights[pred*m.dim+j] -= m.learningRate * x
			}
			bias[sample.Label] += m.learningRate
			bias[pred] -= m.learningRate
		}
	}

	accuracy := m.accuracy(weights, bias, part, batchSize)

	return TrainResult{
		Weights:    local,
		NumSamples: len(part),
		Accuracy:   accuracy,
	}, nil
}

func (m *Linear) Test(ctx context.Context, w Weights, testset data.Partition, batchSize int) (float64, error) {
	if len(testset) == 0 {
		return 0, ErrEmptyPartition
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := w.Align(m.Init()); err != nil {
		return 0, fmt.Errorf("incompatible weight snapshot: %w", err)
	}

	return m.accuracy(w[0].Data, w[1].Data, testset, batchSize), nil
}

func (m *Linear) predict(weights, bias, features []float64) int {
	best, bestScore := 0, 0.0
	for label := range m.numLabels {
		score := bias[label]
		for j, x := range features {
			score += weights[label*m.dim+j] * x
		}
		if label == 0 || score > bestScore {
			best, bestScore = label, score
		}
	}

	return best
}

func (m *Linear) accuracy(weights, bias []float64, samples data.Partition, batchSize int) float64 {
	if batchSize <= 0 {
		batchSize = len(samples)
	}

	correct := 0
	for start := 0; start < len(samples); start += batchSize {
		end := min(start+batchSize, len(samples))
		for _, sample := range samples[start:end] {
			if m.predict(weights, bias, sample.Features) == sample.Label {
				correct++
			}
		}
	}

	return float64(correct) / float64(len(samples))
}
