package aggregator

import (
	"fmt"

	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/pkg/model"
)

// FedAvg combines a synchronous batch of reports, all computed against
// the same baseline, by sample-weighted averaging of their deltas.
type FedAvg struct{}

func NewFedAvg() FedAvg {
	return FedAvg{}
}

func (FedAvg) Aggregate(baseline model.Weights, reports []client.Report) (model.Weights, error) {
	totalSamples, err := totalSamples(reports)
	if err != nil {
		return nil, err
	}

	updated := baseline.Clone()
	for _, report := range reports {
		delta, err := model.Delta(report.Weights, baseline)
		if err != nil {
			return nil, fmt.Errorf("report from client %s: %w", report.ClientID, err)
		}

		weight := float64(report.NumSamples) / float64(totalSamples)
		for i := range updated {
			for j := range updated[i].Data {
				updated[i].Data[j] += delta[i].Data[j] * weight
			}
		}
	}

	return updated, nil
}

func totalSamples(reports []client.Report) (int, error) {
	if len(reports) == 0 {
		return 0, ErrNoReports
	}

	total := 0
	for _, report := range reports {
		total += report.NumSamples
	}
	if total == 0 {
		return 0, ErrZeroSamples
	}

	return total, nil
}
