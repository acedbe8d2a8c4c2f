package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	domain "github.com/vindexhq/vindex/pkg/types"
)

func ingestCmd() *cobra.Command {
	var (
		ingestFile   string
		ingestDryRun bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [url]",
		Short: "Ingest a listing by URL or from a JSON file",
		Long: "Fetches and ingests one listing. Given a URL the server fetches the\n" +
			"page, extracts attributes, and runs the scoring and matching pipeline.\n" +
			"With --file the raw listing fields are read from a local JSON file.",
		Args: cobra.MaximumNArgs(1),
		Example: `  vxc ingest https://bringatrailer.com/listing/1969-camaro-ss
  vxc ingest --file listing.json --dry-run`,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 && ingestFile == "" {
				return fmt.Errorf("a listing URL or --file is required")
			}

			c := newClient()

			if ingestFile != "" {
				data, err := os.ReadFile(ingestFile) //nolint:gosec // path from trusted CLI flag
				if err != nil {
					return fmt.Errorf("reading listing file: %w", err)
				}
				var raw domain.RawListing
				if err := json.Unmarshal(data, &raw); err != nil {
					return fmt.Errorf("parsing listing file: %w", err)
				}

				res, err := c.IngestListing(context.Background(), &raw, ingestDryRun)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(res)
				}
				return printIngestResult(res)
			}

			res, err := c.IngestURL(context.Background(), args[0], ingestDryRun)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}
			return printIngestResult(res)
		},
	}

	cmd.Flags().StringVar(&ingestFile, "file", "", "JSON file with raw listing fields")
	cmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "validate and score without writing")

	return cmd
}
