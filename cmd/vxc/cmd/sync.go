package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Trigger a source sync cycle",
		Long:  "Runs one ingestion cycle over all enabled listing sources.",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			n, err := c.TriggerSync(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Sync completed: %d listings ingested.\n", n)
			return nil
		},
	}
}
