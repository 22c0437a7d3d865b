package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/absmach/fedsim/pkg/errors"
	"github.com/absmach/fedsim/pkg/model"
)

const snapshotPrefix = "global_"

type fileSnapshots struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewFileSnapshots persists snapshots as JSON files named
// global_<tag>.json under dir.
func NewFileSnapshots(dir string, logger *slog.Logger) (Snapshots, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &fileSnapshots{dir: dir, logger: logger}, nil
}

func (fs *fileSnapshots) Save(_ context.Context, tag string, w model.Weights) error {
	if tag == "" {
		return errors.ErrEmptyKey
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(fs.path(tag), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", tag, err)
	}

	return nil
}

func (fs *fileSnapshots) Load(_ context.Context, tag string) (model.Weights, error) {
	if tag == "" {
		return nil, errors.ErrEmptyKey
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.path(tag))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s: %w", tag, errors.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to read snapshot %s: %w", tag, err)
	}

	var w model.Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", tag, err)
	}

	return w, nil
}

// Prune removes snapshot files tagged strictly older than the cutoff.
// Stray files and unparsable tags are skipped with a diagnostic note:
// pruning bounds storage, it is not correctness-critical.
func (fs *fileSnapshots) Prune(_ context.Context, before float64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return fmt.Errorf("failed to list snapshot directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		tag, ok := tagFromFile(name)
		if !ok {
			continue
		}
		t, err := ParseTag(tag)
		if err != nil {
			fs.logger.Debug("skipping stray snapshot file", slog.String("file", name), slog.Any("error", err))

			continue
		}
		if t >= before {
			continue
		}
		if err := os.Remove(filepath.Join(fs.dir, name)); err != nil {
			fs.logger.Debug("failed to remove stale snapshot", slog.String("file", name), slog.Any("error", err))

			continue
		}
		fs.logger.Debug("removed stale snapshot", slog.String("file", name))
	}

	return nil
}

func (fs *fileSnapshots) path(tag string) string {
	return filepath.Join(fs.dir, snapshotPrefix+tag+".json")
}

func tagFromFile(name string) (string, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, ".json") {
		return "", false
	}

	return strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), ".json"), true
}
