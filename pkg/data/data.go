package data

// Sample is a single labeled training example.
type Sample struct {
	Features []float64
	Label    int
}

// Partition is the slice of samples handed to one client for a round.
type Partition []Sample

// Dataset groups samples by label.
type Dataset map[int][]Sample

// Size returns the total number of samples across all labels.
func (d Dataset) Size() int {
	n := 0
	for _, samples := range d {
		n += len(samples)
	}

	return n
}

// Generator produces a labeled dataset for the simulation.
type Generator interface {
	Generate() Dataset
	Labels() []int
}
