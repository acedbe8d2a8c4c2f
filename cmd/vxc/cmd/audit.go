package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit [vehicle-id]",
		Short: "Audit a vehicle against its source",
		Long: "Re-fetches the vehicle's most recent source listing, re-extracts it,\n" +
			"and compares the stored record field by field. A failed re-fetch or an\n" +
			"identity mismatch is flagged CRITICAL.",
		Args:    cobra.ExactArgs(1),
		Example: `  vxc audit 6b4f0c2e-9d13-4b77-8a3f-2f1d9e5c7a01`,
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			report, err := c.AuditVehicle(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(report)
			}

			if report.Critical {
				fmt.Println("CRITICAL discrepancies found.")
			}
			return printReportDetail(report)
		},
	}
}

func reportsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List audit reports",
		Example: `  vxc reports
  vxc reports --limit 10 --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			reports, err := c.ListReports(context.Background(), limit)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(reports)
			}

			if len(reports) == 0 {
				fmt.Println("No audit reports found.")
				return nil
			}
			return printReportsTable(reports)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of results")

	return cmd
}
