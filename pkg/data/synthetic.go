package data

import "math/rand"

// SyntheticGenerator builds Gaussian blob clusters, one per label. The
// cluster centers are axis-aligned so that a linear model can separate
// them, which keeps simulated accuracy traces meaningful.
type SyntheticGenerator struct {
	numLabels int
	dim       int
	perLabel  int
	noise     float64
	rng       *rand.Rand
}

func NewSyntheticGenerator(numLabels, dim, perLabel int, noise float64, rng *rand.Rand) *SyntheticGenerator {
	return &SyntheticGenerator{
		numLabels: numLabels,
		dim:       dim,
		perLabel:  perLabel,
		noise:     noise,
		rng:       rng,
	}
}

func (g *SyntheticGenerator) Labels() []int {
	labels := make([]int, g.numLabels)
	for i := range labels {
		labels[i] = i
	}

	return labels
}

func (g *SyntheticGenerator) Generate() Dataset {
	dataset := make(Dataset, g.numLabels)
	for label := range g.numLabels {
		samples := make([]Sample, g.perLabel)
		for i := range samples {
			features := make([]float64, g.dim)
			for j := range features {
				features[j] = g.rng.NormFloat64() * g.noise
			}
			features[label%g.dim] += 1.0

			samples[i] = Sample{Features: features, Label: label}
		}
		dataset[label] = samples
	}

	return dataset
}
