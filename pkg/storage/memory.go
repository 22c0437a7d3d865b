package storage

import (
	"context"
	"sync"

	"github.com/absmach/fedsim/pkg/errors"
	"github.com/absmach/fedsim/pkg/model"
)

type memorySnapshots struct {
	sync.Mutex

	data map[string]model.Weights
}

// NewMemorySnapshots keeps snapshots in process memory. It is the
// default backend for tests and short runs.
func NewMemorySnapshots() Snapshots {
	return &memorySnapshots{
		data: make(map[string]model.Weights),
	}
}

func (s *memorySnapshots) Save(_ context.Context, tag string, w model.Weights) error {
	if tag == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	s.data[tag] = w.Clone()

	return nil
}

func (s *memorySnapshots) Load(_ context.Context, tag string) (model.Weights, error) {
	if tag == "" {
		return nil, errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if w, ok := s.data[tag]; ok {
		return w.Clone(), nil
	}

	return nil, errors.ErrNotFound
}

func (s *memorySnapshots) Prune(_ context.Context, before float64) error {
	s.Lock()
	defer s.Unlock()

	for tag := range s.data {
		t, err := ParseTag(tag)
		if err != nil {
			continue
		}
		if t < before {
			delete(s.data, tag)
		}
	}

	return nil
}
