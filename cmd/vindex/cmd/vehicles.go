package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/vindexhq/vindex/internal/api/client"
)

func vehiclesCommand() *cobra.Command {
	var vehiclesJSON bool

	vehiclesCmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Query vehicle records",
	}
	vehiclesCmd.PersistentFlags().BoolVar(&vehiclesJSON, "json", false, "output as JSON")

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

			if vehiclesJSON {
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

			if vehiclesJSON {
				return outputJSON(v)
			}
			return printVehicleDetail(v)
		},
	}

	vehiclesCmd.AddCommand(listCmd, showCmd)

	return vehiclesCmd
}

func init() {
	rootCmd.AddCommand(vehiclesCommand())
}
