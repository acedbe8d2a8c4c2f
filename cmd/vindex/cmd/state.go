package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show aggregate pipeline state and recent job runs",
	RunE:  runState,
}

var stateJSON bool

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "output as JSON")
}

func runState(_ *cobra.Command, _ []string) error {
	c := newClient()
	ctx := context.Background()

	state, err := c.GetSystemState(ctx)
	if err != nil {
		return err
	}

	if stateJSON {
		return outputJSON(state)
	}

	tw := newTabWriter(os.Stdout)
	tw.writef("Vehicles:\t%d\n", state.VehiclesTotal)
	tw.writef("With VIN:\t%d\n", state.VehiclesWithVIN)
	tw.writef("Observations:\t%d\n", state.ObservationsTotal)
	tw.writef("Timeline Events:\t%d\n", state.TimelineEventsTotal)
	tw.writef("Review Queue:\t%d\n", state.ReviewQueueDepth)
	tw.writef("Audit Reports:\t%d\n", state.AuditReportsTotal)
	tw.writef("Critical Audits:\t%d\n", state.CriticalAuditsTotal)
	if err := tw.finish(); err != nil {
		return err
	}

	runs, err := c.ListJobs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}

	fmt.Println()
	return printJobRunsTable(runs)
}
