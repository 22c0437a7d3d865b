package aggregator

import (
	"fmt"
	"math"
)

// Staleness function names accepted in configuration.
const (
	StalenessConstant   = "constant"
	StalenessPolynomial = "polynomial"
	StalenessHinge      = "hinge"
)

// StalenessFunc maps an elapsed-time gap to a damping coefficient in
// (0, 1]. Callers must pass staleness >= 0; the sign check happens in
// FedAsync where a violation can be attributed to the scheduler.
type StalenessFunc func(staleness float64) float64

// Constant ignores staleness entirely.
func Constant(_ float64) float64 {
	return 1
}

// Polynomial decays as (s+1)^-0.5, so f(0) = 1 and f is strictly
// decreasing.
func Polynomial(staleness float64) float64 {
	return math.Pow(staleness+1, -0.5)
}

// Hinge is flat up to a staleness of 4, then decays hyperbolically.
func Hinge(staleness float64) float64 {
	const a, b = 10.0, 4.0
	if staleness <= b {
		return 1
	}

	return 1 / (a*(staleness-b) + 1)
}

// StalenessByName resolves a configured staleness function. An unknown
// name is a fatal configuration error.
func StalenessByName(name string) (StalenessFunc, error) {
	switch name {
	case StalenessConstant:
		return Constant, nil
	case StalenessPolynomial:
		return Polynomial, nil
	case StalenessHinge:
		return Hinge, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStalenessFunc, name)
	}
}
