package model

import (
	"errors"
	"fmt"
)

var ErrTensorMismatch = errors.New("tensor name or shape mismatch")

// Tensor is one named weight tensor, stored flat.
type Tensor struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// Weights is the ordered list of named tensors making up a model.
type Weights []Tensor

func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for i, t := range w {
		data := make([]float64, len(t.Data))
		copy(data, t.Data)
		out[i] = Tensor{Name: t.Name, Data: data}
	}

	return out
}

// Flatten concatenates all tensor values into a single vector.
func (w Weights) Flatten() []float64 {
	n := 0
	for _, t := range w {
		n += len(t.Data)
	}
	out := make([]float64, 0, n)
	for _, t := range w {
		out = append(out, t.Data...)
	}

	return out
}

// Align verifies that w and other carry the same ordered set of named
// tensors with identical shapes.
func (w Weights) Align(other Weights) error {
	if len(w) != len(other) {
		return fmt.Errorf("%w: %d tensors vs %d", ErrTensorMismatch, len(w), len(other))
	}
	for i := range w {
		if w[i].Name != other[i].Name {
			return fmt.Errorf("%w: position %d has %q vs %q", ErrTensorMismatch, i, w[i].Name, other[i].Name)
		}
		if len(w[i].Data) != len(other[i].Data) {
			return fmt.Errorf("%w: tensor %q has %d values vs %d", ErrTensorMismatch, w[i].Name, len(w[i].Data), len(other[i].Data))
		}
	}

	return nil
}

// Delta returns w - baseline per tensor.
func Delta(w, baseline Weights) (Weights, error) {
	if err := baseline.Align(w); err != nil {
		return nil, err
	}

	out := baseline.Clone()
	for i := range out {
		for j := range out[i].Data {
			out[i].Data[j] = w[i].Data[j] - baseline[i].Data[j]
		}
	}

	return out, nil
}
