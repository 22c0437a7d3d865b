// Package client implements the simulated federated learning participant.
// A client never touches the global model: it trains against the weight
// snapshot copied to it at configuration time and hands back a Report.
package client

import (
	"context"
	"errors"
	"math/rand"

	"github.com/0x6flab/namegenerator"
	"github.com/google/uuid"

	"github.com/absmach/fedsim/pkg/data"
	"github.com/absmach/fedsim/pkg/model"
)

var (
	ErrNotConfigured = errors.New("client has not been configured for a round")
	ErrNoData        = errors.New("client has no data partition")
)

var namegen = namegenerator.NewGenerator()

// DelaySampler draws the simulated duration of one local training pass.
// It is a pluggable strategy: the round drivers only see the sampled
// value.
type DelaySampler func() float64

// LinkDelay models a client whose delay is the model transfer plus
// training cost over a link whose speed jitters around a mean drawn
// uniformly from [speedMin, speedMax] Kbps.
func LinkDelay(modelSizeKB, speedMin, speedMax float64, rng *rand.Rand) DelaySampler {
	speedMean := speedMin + rng.Float64()*(speedMax-speedMin)
	floor := speedMean / 10

	return func() float64 {
		speed := speedMean + rng.NormFloat64()*speedMean/4
		if speed < floor {
			speed = floor
		}

		return modelSizeKB / speed
	}
}

// FixedDelay always samples the same delay.
func FixedDelay(d float64) DelaySampler {
	return func() float64 {
		return d
	}
}

// TrainConfig is the per-round training configuration sent to a client.
type TrainConfig struct {
	Epochs    int
	BatchSize int
}

// Client is one simulated training participant.
type Client struct {
	ID   string
	Name string

	trainer model.Trainer
	sample  DelaySampler
	delay   float64

	pref  int
	bias  float64
	shard int

	part       data.Partition
	cfg        TrainConfig
	weights    model.Weights
	download   float64
	configured bool
}

func New(trainer model.Trainer, sample DelaySampler) *Client {
	return &Client{
		ID:      uuid.NewString(),
		Name:    namegen.Generate(),
		trainer: trainer,
		sample:  sample,
		pref:    data.NoPreference,
	}
}

// SetBias assigns the non-IID label preference and bias fraction.
func (c *Client) SetBias(pref int, bias float64) {
	c.pref = pref
	c.bias = bias
}

// SetShard assigns the shard count for shard-partitioned data.
func (c *Client) SetShard(shard int) {
	c.shard = shard
}

func (c *Client) Pref() int {
	return c.pref
}

// SetDelay resamples the simulated duration of one local training pass.
func (c *Client) SetDelay() {
	c.delay = c.sample()
}

func (c *Client) Delay() float64 {
	return c.delay
}

// SetData hands the client its data partition for the coming pass.
func (c *Client) SetData(part data.Partition) {
	c.part = part
}

// Configure prepares the client for a synchronous round. The weight
// snapshot is copied so training cannot race an aggregation.
func (c *Client) Configure(cfg TrainConfig, w model.Weights) {
	c.cfg = cfg
	c.weights = w.Clone()
	c.download = 0
	c.configured = true
}

// ConfigureAsync prepares the client for one asynchronous cycle against
// the global snapshot that was current at downloadTime.
func (c *Client) ConfigureAsync(cfg TrainConfig, w model.Weights, downloadTime float64) {
	c.Configure(cfg, w)
	c.download = downloadTime
}

// Run executes one local training pass and produces the client's report.
// registration selects async bookkeeping: the report is stamped with the
// download time of the snapshot it was computed against.
func (c *Client) Run(ctx context.Context, registration bool) (Report, error) {
	if !c.configured {
		return Report{}, ErrNotConfigured
	}
	if len(c.part) == 0 {
		return Report{}, ErrNoData
	}

	res, err := c.trainer.Train(ctx, c.weights, c.part, c.cfg.Epochs, c.cfg.BatchSize)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		ClientID:   c.ID,
		ClientName: c.Name,
		Weights:    res.Weights,
		NumSamples: res.NumSamples,
		Accuracy:   res.Accuracy,
	}
	if registration {
		report.DownloadTime = c.download
	}

	return report, nil
}
