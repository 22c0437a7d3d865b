package data

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var (
	ErrPartitionSize = errors.New("invalid partition size")
	ErrNoShards      = errors.New("no shards left to assign")
	ErrUnknownPref   = errors.New("unknown label preference")
)

// NoPreference marks a partition request without a label preference.
const NoPreference = -1

// Request describes one data partition for a client. Pref is only
// honored by the bias loader; the shard loader ignores both fields.
type Request struct {
	Size int
	Pref int
}

// Loader hands out training partitions and the held-out testset.
// Refresh is the dynamic-loading hook: the shard loader recreates its
// shards, the others are no-ops.
type Loader interface {
	Labels() []int
	Testset() Partition
	Partition(req Request) (Partition, error)
	Refresh() error
}

type base struct {
	labels   []int
	train    Dataset
	testset  Partition
	trainAll Partition
	rng      *rand.Rand
}

func newBase(gen Generator, testFraction float64, rng *rand.Rand) base {
	full := gen.Generate()
	labels := gen.Labels()

	train := make(Dataset, len(labels))
	var testset, trainAll Partition
	for _, label := range labels {
		samples := full[label]
		cut := int(float64(len(samples)) * (1 - testFraction))
		train[label] = samples[:cut]
		trainAll = append(trainAll, samples[:cut]...)
		testset = append(testset, samples[cut:]...)
	}

	return base{
		labels:   labels,
		train:    train,
		testset:  testset,
		trainAll: trainAll,
		rng:      rng,
	}
}

func (b *base) Labels() []int {
	return b.labels
}

func (b *base) Testset() Partition {
	return b.testset
}

func (b *base) sample(pool Partition, size int) (Partition, error) {
	if size <= 0 || size > len(pool) {
		return nil, fmt.Errorf("%w: %d of %d available", ErrPartitionSize, size, len(pool))
	}

	out := make(Partition, size)
	for i, idx := range b.rng.Perm(len(pool))[:size] {
		out[i] = pool[idx]
	}

	return out, nil
}

// BasicLoader draws IID partitions uniformly from the training pool.
type BasicLoader struct {
	base
}

func NewBasicLoader(gen Generator, testFraction float64, rng *rand.Rand) *BasicLoader {
	return &BasicLoader{base: newBase(gen, testFraction, rng)}
}

func (l *BasicLoader) Partition(req Request) (Partition, error) {
	return l.sample(l.trainAll, req.Size)
}

func (l *BasicLoader) Refresh() error {
	return nil
}

// BiasLoader draws a majority fraction of each partition from the
// client's preferred label and fills the rest uniformly from the others.
type BiasLoader struct {
	base

	bias float64
}

func NewBiasLoader(gen Generator, testFraction, bias float64, rng *rand.Rand) *BiasLoader {
	return &BiasLoader{
		base: newBase(gen, testFraction, rng),
		bias: bias,
	}
}

func (l *BiasLoader) Partition(req Request) (Partition, error) {
	majority, ok := l.train[req.Pref]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPref, req.Pref)
	}

	var minority Partition
	for _, label := range l.labels {
		if label != req.Pref {
			minority = append(minority, l.train[label]...)
		}
	}

	majoritySize := int(float64(req.Size) * l.bias)
	part, err := l.sample(majority, majoritySize)
	if err != nil {
		return nil, err
	}
	rest, err := l.sample(minority, req.Size-majoritySize)
	if err != nil {
		return nil, err
	}

	return append(part, rest...), nil
}

func (l *BiasLoader) Refresh() error {
	return nil
}

// ShardLoader splits the label-sorted training pool into fixed shards
// and hands each client shardsPerClient of them. Refresh recreates the
// shards, which is how dynamic loading reshuffles assignments.
type ShardLoader struct {
	base

	totalClients    int
	shardsPerClient int
	shards          []Partition
}

func NewShardLoader(gen Generator, testFraction float64, totalClients, shardsPerClient int, rng *rand.Rand) *ShardLoader {
	return &ShardLoader{
		base:            newBase(gen, testFraction, rng),
		totalClients:    totalClients,
		shardsPerClient: shardsPerClient,
	}
}

func (l *ShardLoader) Refresh() error {
	sorted := make(Partition, len(l.trainAll))
	copy(sorted, l.trainAll)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Label < sorted[j].Label
	})

	numShards := l.totalClients * l.shardsPerClient
	if numShards == 0 || len(sorted) < numShards {
		return fmt.Errorf("%w: %d samples for %d shards", ErrPartitionSize, len(sorted), numShards)
	}

	shardSize := len(sorted) / numShards
	shards := make([]Partition, 0, numShards)
	for i := range numShards {
		shards = append(shards, sorted[i*shardSize:(i+1)*shardSize])
	}
	l.rng.Shuffle(len(shards), func(i, j int) {
		shards[i], shards[j] = shards[j], shards[i]
	})
	l.shards = shards

	return nil
}

func (l *ShardLoader) Partition(_ Request) (Partition, error) {
	if len(l.shards) < l.shardsPerClient {
		return nil, ErrNoShards
	}

	var part Partition
	for range l.shardsPerClient {
		part = append(part, l.shards[0]...)
		l.shards = l.shards[1:]
	}

	return part, nil
}
