package server

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/pkg/model"
)

type flatReport struct {
	ClientID string    `cbor:"client_id"`
	Weights  []float64 `cbor:"weights"`
}

// reportSink collects flattened per-round report and global weight
// vectors for offline analysis, written once at run end.
type reportSink struct {
	path  string
	saved map[string]any
}

func newReportSink(path string) *reportSink {
	return &reportSink{
		path:  path,
		saved: make(map[string]any),
	}
}

// save records the round's reports and the global weights. Within an
// async round the same keys are overwritten, keeping the latest
// aggregation's view.
func (rs *reportSink) save(num int, reports []client.Report, global model.Weights) {
	if len(reports) > 0 {
		flat := make([]flatReport, 0, len(reports))
		for _, report := range reports {
			flat = append(flat, flatReport{
				ClientID: report.ClientID,
				Weights:  report.Weights.Flatten(),
			})
		}
		rs.saved[fmt.Sprintf("round%d", num)] = flat
	}

	rs.saved[fmt.Sprintf("w%d", num)] = global.Flatten()
}

func (rs *reportSink) flush() error {
	data, err := cbor.Marshal(rs.saved)
	if err != nil {
		return fmt.Errorf("failed to marshal saved reports: %w", err)
	}
	if err := os.WriteFile(rs.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write saved reports: %w", err)
	}

	return nil
}
