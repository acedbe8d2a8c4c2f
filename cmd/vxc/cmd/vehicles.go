package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/vindexhq/vindex/internal/api/client"
)

func vehiclesCmd() *cobra.Command {
	vehiclesRoot := &cobra.Command{
		Use:   "vehicles",
		Short: "Query vehicle records",
	}

	var (
		listMake    string
		listModel   string
		listYearMin int
		listYearMax int
		listHasVIN  bool
		listLimit   int
		listOffset  int
		listOrderBy string
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List vehicles",
		Example: `  vxc vehicles list --make chevrolet --year-min 1965 --year-max 1972
  vxc vehicles list --has-vin --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListVehicles(context.Background(), &apiclient.ListVehiclesParams{
				Make:    listMake,
				Model:   listModel,
				YearMin: listYearMin,
				YearMax: listYearMax,
				HasVIN:  listHasVIN,
				Limit:   listLimit,
				Offset:  listOffset,
				OrderBy: listOrderBy,
			})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Vehicles) == 0 {
				fmt.Println("No vehicles found.")
				return nil
			}

			fmt.Printf("Showing %d of %d vehicles\n\n", len(resp.Vehicles), resp.Total)
			return printVehiclesTable(resp.Vehicles)
		},
	}
	listCmd.Flags().StringVar(&listMake, "make", "", "make filter")
	listCmd.Flags().StringVar(&listModel, "model", "", "model filter")
	listCmd.Flags().IntVar(&listYearMin, "year-min", 0, "minimum model year")
	listCmd.Flags().IntVar(&listYearMax, "year-max", 0, "maximum model year")
	listCmd.Flags().BoolVar(&listHasVIN, "has-vin", false, "only vehicles with a VIN")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "number of results")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "result offset")
	listCmd.Flags().
		StringVar(&listOrderBy, "order-by", "", "sort order (year, make, created_at)")

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show vehicle details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			v, err := c.GetVehicle(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(v)
			}
			return printVehicleDetail(v)
		},
	}

	var obsLimit int

	observationsCmd := &cobra.Command{
		Use:   "observations [id]",
		Short: "List a vehicle's observations",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			obs, err := c.ListObservations(context.Background(), args[0], obsLimit)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(obs)
			}

			if len(obs) == 0 {
				fmt.Println("No observations found.")
				return nil
			}
			return printObservationsTable(obs)
		},
	}
	observationsCmd.Flags().IntVar(&obsLimit, "limit", 50, "number of results")

	timelineCmd := &cobra.Command{
		Use:   "timeline [id]",
		Short: "Show a vehicle's event timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			events, err := c.ListTimeline(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(events)
			}

			if len(events) == 0 {
				fmt.Println("No timeline events found.")
				return nil
			}
			return printTimelineTable(events)
		},
	}

	vehiclesRoot.AddCommand(listCmd, showCmd, observationsCmd, timelineCmd)

	return vehiclesRoot
}
