package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show aggregate pipeline state",
		Example: `  vxc state
  vxc state --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			state, err := c.GetSystemState(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
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
			return tw.finish()
		},
	}
}
