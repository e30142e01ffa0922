package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/qcreview/internal/report"
)

// exit is replaced in tests.
var exit = os.Exit

var reportCmd = &cobra.Command{
	Use:   "report <vehicle-id>",
	Short: "Print the quality feedback report of a vehicle (non-interactive)",
	Long: `Fetch a vehicle and print its quality feedback: counts by status, the
most frequent issues and every flagged item with its notes.

Exit codes:
  0 - every item is quality good
  1 - items are still unchecked
  2 - items were flagged with issues`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringP("format", "f", "text", "output format: "+strings.Join(report.Formats, ", "))
}

func runReport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	d, err := newClient().GetVehicleDetail(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("fetching vehicle: %w", err)
	}

	r := report.Build(*d)
	if err := report.Write(cmd.OutOrStdout(), r, format); err != nil {
		return err
	}

	if code := r.ExitCode(); code != 0 {
		exit(code)
	}
	return nil
}
