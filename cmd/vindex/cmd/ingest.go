package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/vindexhq/vindex/internal/api/client"
	domain "github.com/vindexhq/vindex/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [url]",
	Short: "Ingest a listing by URL or from a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngest,
}

var (
	ingestFile   string
	ingestDryRun bool
	jsonOutput   bool
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "JSON file with raw listing fields")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "validate and score without writing")
	ingestCmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

func runIngest(_ *cobra.Command, args []string) error {
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
		if jsonOutput {
			return outputJSON(res)
		}
		return printIngestResult(res)
	}

	res, err := c.IngestURL(context.Background(), args[0], ingestDryRun)
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(res)
	}
	return printIngestResult(res)
}

func newClient() *apiclient.Client {
	return apiclient.New(apiURL)
}
