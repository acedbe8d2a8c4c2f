package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit [vehicle-id]",
	Short: "Re-fetch a vehicle's source and compare stored data against it",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

var auditJSON bool

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "output as JSON")
}

func runAudit(_ *cobra.Command, args []string) error {
	c := newClient()
	report, err := c.AuditVehicle(context.Background(), args[0])
	if err != nil {
		return err
	}

	if auditJSON {
		return outputJSON(report)
	}

	if report.Critical {
		fmt.Println("CRITICAL discrepancies found.")
	}
	return printReportDetail(report)
}
