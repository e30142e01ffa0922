package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/qcreview/internal/model"
)

var vehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "List vehicles awaiting or under quality review",
	Long: `List vehicles from the quality checker queue, newest first.

Examples:
  qcreview vehicles --status unchecked
  qcreview vehicles --reviewer alice --status checked_with_errors
  qcreview vehicles --vin WVWZZZ1J --format json`,
	Args: cobra.NoArgs,
	RunE: runVehicles,
}

func init() {
	vehiclesCmd.Flags().String("status", "", "filter by status: unchecked, in_progress, checked, checked_with_errors")
	vehiclesCmd.Flags().String("reviewer", "", "filter by reviewer user id")
	vehiclesCmd.Flags().String("vin", "", "filter by VIN substring")
	vehiclesCmd.Flags().Int("page", 0, "page index, starting at 0")
	vehiclesCmd.Flags().Int("size", 20, "page size")
	vehiclesCmd.Flags().StringP("format", "f", "text", "output format: text, json")
}

func runVehicles(cmd *cobra.Command, args []string) error {
	f, err := vehicleFilter(cmd)
	if err != nil {
		return err
	}

	page, err := newClient().ListQualityCheckerVehicles(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("listing vehicles: %w", err)
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	case "text":
		return writeVehicleTable(cmd.OutOrStdout(), page)
	}
	return fmt.Errorf("unknown format %q (want text or json)", format)
}

func vehicleFilter(cmd *cobra.Command) (model.VehicleFilter, error) {
	flags := cmd.Flags()
	statusFlag, _ := flags.GetString("status")
	reviewer, _ := flags.GetString("reviewer")
	vin, _ := flags.GetString("vin")
	page, _ := flags.GetInt("page")
	size, _ := flags.GetInt("size")

	f := model.VehicleFilter{ReviewerUserID: reviewer, VIN: vin, PageIndex: page, PageSize: size}
	if statusFlag != "" {
		s, ok := model.ParseStatus(statusFlag)
		if !ok {
			return f, fmt.Errorf("unknown status %q", statusFlag)
		}
		f.Status = s
	}
	if page < 0 || size < 0 {
		return f, fmt.Errorf("page and size must not be negative")
	}
	return f, nil
}

func writeVehicleTable(w io.Writer, page *model.VehiclePage) error {
	if len(page.Items) == 0 {
		_, err := fmt.Fprintln(w, "No vehicles found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVIN\tSTATUS\tREVIEWER\tITEMS\tGOOD\tFLAGGED\tUNCHECKED")
	for _, s := range page.Items {
		reviewer := s.Vehicle.Reviewer()
		if reviewer == "" {
			reviewer = "-"
		}
		total := 0
		for _, n := range s.ImageCounts {
			total += n
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			s.Vehicle.ID, s.Vehicle.VIN, strings.ToUpper(string(s.Vehicle.QualityCheckStatus)),
			reviewer, total, s.Checked, s.WithErrors, s.Unchecked)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d vehicle(s) total\n", page.Count)
	return err
}
