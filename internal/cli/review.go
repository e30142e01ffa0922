package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/qcreview/internal/report"
	"github.com/sprite-ai/qcreview/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review <vehicle-id>",
	Short: "Open an interactive review session",
	Long: `Open the terminal review view for one vehicle. The first reviewer to
open an unassigned vehicle claims it; everyone else gets a read-only view.

Examples:
  qcreview review 3f2c9a1e-7d4b-4c8e-9a0f-1b2c3d4e5f60 --user alice
  qcreview review <vehicle-id> --server http://qc.internal:6142`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().Bool("summary", false, "print the vehicle report after the session ends")
}

func runReview(cmd *cobra.Command, args []string) error {
	if cfg.User.ID == "" {
		return errors.New("a reviewer id is required: pass --user or set user.id")
	}

	logger, closeLog, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closeLog()

	client := newClient()
	logger.Info("review session starting", "vehicle", args[0], "user", cfg.User.ID, "server", cfg.Server.URL)
	if err := tui.Run(cmd.Context(), client, args[0], cfg.User.ID, logger); err != nil {
		return err
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		d, err := client.GetVehicleDetail(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching vehicle: %w", err)
		}
		return report.WriteText(os.Stdout, report.Build(*d))
	}
	return nil
}
