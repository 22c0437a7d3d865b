package aggregator

import (
	"fmt"

	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/pkg/model"
)

// FedAsync blends one group's reports into the current global model,
// discounted by how stale the group's baseline snapshot is. The result
// per tensor is (1-alpha_t)*baseline + alpha_t*new, a convex
// combination, where alpha_t = alpha * f(staleness).
type FedAsync struct {
	alpha     float64
	staleness StalenessFunc
}

func NewFedAsync(alpha float64, staleness StalenessFunc) (FedAsync, error) {
	if alpha <= 0 || alpha > 1 {
		return FedAsync{}, fmt.Errorf("%w: %v", ErrMixingRate, alpha)
	}

	return FedAsync{alpha: alpha, staleness: staleness}, nil
}

func (a FedAsync) Aggregate(baseline model.Weights, reports []client.Report, staleness float64) (model.Weights, error) {
	if staleness < 0 {
		return nil, fmt.Errorf("%w: %v", ErrNegativeStaleness, staleness)
	}

	totalSamples, err := totalSamples(reports)
	if err != nil {
		return nil, err
	}

	// Sample-weighted mean of the raw reported weights.
	mean := baseline.Clone()
	for i := range mean {
		for j := range mean[i].Data {
			mean[i].Data[j] = 0
		}
	}
	for _, report := range reports {
		if err := baseline.Align(report.Weights); err != nil {
			return nil, fmt.Errorf("report from client %s: %w", report.ClientID, err)
		}

		weight := float64(report.NumSamples) / float64(totalSamples)
		for i := range mean {
			for j := range mean[i].Data {
				mean[i].Data[j] += report.Weights[i].Data[j] * weight
			}
		}
	}

	alphaT := a.alpha * a.staleness(staleness)

	updated := baseline.Clone()
	for i := range updated {
		for j := range updated[i].Data {
			updated[i].Data[j] = (1-alphaT)*baseline[i].Data[j] + alphaT*mean[i].Data[j]
		}
	}

	return updated, nil
}

// AlphaT exposes the effective mixing coefficient for logging.
func (a FedAsync) AlphaT(staleness float64) float64 {
	return a.alpha * a.staleness(staleness)
}
