package data

import (
	"math"
	"math/rand"
)

// Uniform returns equal label-preference weights for numLabels labels.
func Uniform(numClients, numLabels int) []float64 {
	dist := make([]float64, numLabels)
	for i := range dist {
		dist[i] = 1.0 / float64(numLabels)
	}

	return dist
}

// Normal returns label-preference weights following a discretized normal
// distribution centered on the middle label.
func Normal(numClients, numLabels int) []float64 {
	dist := make([]float64, numLabels)
	mean := float64(numLabels-1) / 2.0
	sigma := float64(numLabels) / 4.0
	total := 0.0
	for i := range dist {
		x := (float64(i) - mean) / sigma
		dist[i] = math.Exp(-x * x / 2.0)
		total += dist[i]
	}
	for i := range dist {
		dist[i] /= total
	}

	return dist
}

// Shuffle permutes the distribution in place so that the label bias is
// not tied to label order.
func Shuffle(dist []float64, rng *rand.Rand) {
	rng.Shuffle(len(dist), func(i, j int) {
		dist[i], dist[j] = dist[j], dist[i]
	})
}

// WeightedChoice picks one label index according to the given weights.
func WeightedChoice(dist []float64, rng *rand.Rand) int {
	total := 0.0
	for _, w := range dist {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range dist {
		r -= w
		if r <= 0 {
			return i
		}
	}

	return len(dist) - 1
}
