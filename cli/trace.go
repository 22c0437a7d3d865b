package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/absmach/fedsim/round"
)

// NewTraceCmd pretty-prints a saved accuracy/time trace.
func NewTraceCmd() *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Inspect a run trace",
		Long:  `Pretty-print the time/accuracy trace written by a simulation run.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			var record round.Record
			if err := json.Unmarshal(data, &record); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			if summary {
				acc, err := record.LatestAcc()
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				t, _ := record.LatestT()
				logJSONCmd(*cmd, map[string]any{
					"points":         record.Len(),
					"final_accuracy": fmt.Sprintf("%.4f", acc),
					"final_t":        fmt.Sprintf("%.3f", t),
				})

				return
			}

			logJSONCmd(*cmd, record)
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "print only the final accuracy and time")

	return cmd
}
