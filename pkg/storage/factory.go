package storage

import (
	"fmt"
	"log/slog"
)

// Config selects the snapshot backend. It is populated from the
// environment by the caller.
type Config struct {
	Type string `env:"FEDSIM_STORAGE_TYPE" envDefault:"memory"`
	Dir  string `env:"FEDSIM_MODEL_DIR"    envDefault:"./models"`
}

func NewSnapshots(cfg Config, logger *slog.Logger) (Snapshots, error) {
	switch cfg.Type {
	case "file":
		return NewFileSnapshots(cfg.Dir, logger)
	case "memory":
		return NewMemorySnapshots(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
