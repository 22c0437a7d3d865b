// Package fedsim holds the experiment configuration shared by the
// simulator's components.
package fedsim

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/absmach/fedsim/pkg/aggregator"
)

// Synchrony modes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// Data loader kinds.
const (
	LoaderBasic = "basic"
	LoaderBias  = "bias"
	LoaderShard = "shard"
)

// Data loading policies.
const (
	LoadingStatic  = "static"
	LoadingDynamic = "dynamic"
)

// Label preference distributions for non-IID data.
const (
	DistUniform = "uniform"
	DistNormal  = "normal"
)

var (
	ErrNoStopCondition = errors.New("either fl.rounds or fl.target_accuracy must be set")
	ErrUnknownMode     = errors.New("unknown synchrony mode")
	ErrUnknownLoader   = errors.New("unknown data loader")
	ErrUnknownLoading  = errors.New("unknown data loading policy")
	ErrUnknownDist     = errors.New("unknown label distribution")
	ErrSampleSize      = errors.New("clients.per_round must be between 1 and clients.total")
)

type Config struct {
	Seed    int64         `toml:"seed"`
	Loader  string        `toml:"loader"`
	Clients ClientsConfig `toml:"clients"`
	Data    DataConfig    `toml:"data"`
	Model   ModelConfig   `toml:"model"`
	FL      FLConfig      `toml:"fl"`
	Sync    SyncConfig    `toml:"sync"`
	Paths   PathsConfig   `toml:"paths"`
}

type ClientsConfig struct {
	Total             int     `toml:"total"`
	PerRound          int     `toml:"per_round"`
	DoTest            bool    `toml:"do_test"`
	LabelDistribution string  `toml:"label_distribution"`
	SpeedMin          float64 `toml:"speed_min"`
	SpeedMax          float64 `toml:"speed_max"`
}

type DataConfig struct {
	IID           bool    `toml:"iid"`
	Bias          float64 `toml:"bias"`
	Shard         int     `toml:"shard"`
	Loading       string  `toml:"loading"`
	PartitionSize int     `toml:"partition_size"`
	PartitionMin  int     `toml:"partition_min"`
	PartitionMax  int     `toml:"partition_max"`
}

type ModelConfig struct {
	Name         string  `toml:"name"`
	SizeKB       float64 `toml:"size_kb"`
	Dim          int     `toml:"dim"`
	Labels       int     `toml:"labels"`
	PerLabel     int     `toml:"per_label"`
	Noise        float64 `toml:"noise"`
	TestFraction float64 `toml:"test_fraction"`
	LearningRate float64 `toml:"learning_rate"`
}

type FLConfig struct {
	Rounds         int     `toml:"rounds"`
	TargetAccuracy float64 `toml:"target_accuracy"`
	BatchSize      int     `toml:"batch_size"`
	Epochs         int     `toml:"epochs"`
}

type SyncConfig struct {
	Type          string  `toml:"type"`
	Interval      float64 `toml:"interval"`
	Alpha         float64 `toml:"alpha"`
	StalenessFunc string  `toml:"staleness_func"`
}

type PathsConfig struct {
	Reports string `toml:"reports"`
	Trace   string `toml:"trace"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects unknown modes, loaders, and staleness functions up
// front, before any round has a chance to run against them.
func (c *Config) Validate() error {
	switch c.Sync.Type {
	case ModeSync:
	case ModeAsync:
		if _, err := aggregator.StalenessByName(c.Sync.StalenessFunc); err != nil {
			return err
		}
		if c.Sync.Alpha <= 0 || c.Sync.Alpha > 1 {
			return fmt.Errorf("%w: %v", aggregator.ErrMixingRate, c.Sync.Alpha)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Sync.Type)
	}

	switch c.Loader {
	case LoaderBasic, LoaderBias, LoaderShard:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLoader, c.Loader)
	}

	switch c.Data.Loading {
	case LoadingStatic, LoadingDynamic:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLoading, c.Data.Loading)
	}

	if !c.Data.IID {
		switch c.Clients.LabelDistribution {
		case DistUniform, DistNormal:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownDist, c.Clients.LabelDistribution)
		}
	}

	if c.FL.Rounds <= 0 && c.FL.TargetAccuracy <= 0 {
		return ErrNoStopCondition
	}

	if c.Clients.PerRound < 1 || c.Clients.PerRound > c.Clients.Total {
		return ErrSampleSize
	}

	return nil
}
