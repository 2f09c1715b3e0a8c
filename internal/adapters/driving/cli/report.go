package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"reports"},
	Short:   "Manage stored reports",
	Long:    `List, view and delete evaluation reports saved by previous runs.`,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, newest first",
	Args:  cobra.NoArgs,
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show a stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete <report-id>",
	Short: "Delete a stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportDelete,
}

func init() {
	reportListCmd.Flags().IntP("limit", "n", 20, "maximum number of reports (0 for all)")
	reportListCmd.Flags().Bool("json", false, "print as JSON")
	reportShowCmd.Flags().Bool("json", false, "print the full report as JSON")

	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportDeleteCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportList(cmd *cobra.Command, _ []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}
	limit, _ := cmd.Flags().GetInt("limit")   //nolint:errcheck // flag registered in init
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag registered in init

	summaries, err := reportService.List(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	if asJSON {
		return printJSON(cmd, summaries)
	}
	if len(summaries) == 0 {
		cmd.Println("No reports stored.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tTYPE\tSCORE\tCREATED")
	for _, r := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Filename, r.PitchType, r.TotalScore, r.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func runReportShow(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag registered in init

	report, err := reportService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}
	if asJSON {
		return printJSON(cmd, report)
	}
	renderReport(cmd.OutOrStdout(), report, stylesFor(cmd.OutOrStdout()))
	return nil
}

func runReportDelete(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}
	if err := reportService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	cmd.Printf("Deleted report %s\n", args[0])
	return nil
}
