package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	reviewRoot := &cobra.Command{
		Use:   "review",
		Short: "Work the manual review queue",
		Long: "Low-confidence and unresolvable extractions are parked in a review\n" +
			"queue instead of being silently dropped. List pending items and mark\n" +
			"them resolved once handled.",
	}

	reviewRoot.AddCommand(
		reviewListCmd(),
		reviewResolveCmd(),
	)

	return reviewRoot
}

func reviewListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending review items",
		Example: `  vxc review list
  vxc review list --limit 10 --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			items, err := c.ListReviewQueue(context.Background(), limit)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(items)
			}

			if len(items) == 0 {
				fmt.Println("Review queue is empty.")
				return nil
			}
			return printReviewTable(items)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of results")

	return cmd
}

func reviewResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve [id]",
		Short:   "Mark a review item resolved",
		Args:    cobra.ExactArgs(1),
		Example: `  vxc review resolve 3f8a1d5c-7e42-4b09-9c6d-1a2b3c4d5e6f`,
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.ResolveReview(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Review item %s resolved.\n", args[0])
			return nil
		},
	}
}
