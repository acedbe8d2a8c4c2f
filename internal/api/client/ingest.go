package client

import (
	"context"

	"github.com/vindexhq/vindex/internal/pipeline"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// IngestListing submits one pre-extracted raw listing for ingestion.
func (c *Client) IngestListing(ctx context.Context, raw *domain.RawListing, dryRun bool) (*pipeline.IngestResult, error) {
	path := "/api/v1/ingest"
	if dryRun {
		path += "?dry_run=true"
	}

	var res pipeline.IngestResult
	if err := c.post(ctx, path, raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// IngestURL submits one listing URL for fetch, extraction, and ingestion.
func (c *Client) IngestURL(ctx context.Context, listingURL string, dryRun bool) (*pipeline.IngestResult, error) {
	path := "/api/v1/ingest/url"
	if dryRun {
		path += "?dry_run=true"
	}

	body := map[string]string{"url": listingURL}

	var res pipeline.IngestResult
	if err := c.post(ctx, path, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// TriggerSync runs one source sync cycle and returns the ingested count.
func (c *Client) TriggerSync(ctx context.Context) (int, error) {
	var resp struct {
		Ingested int `json:"ingested"`
	}
	if err := c.post(ctx, "/api/v1/sync/trigger", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Ingested, nil
}
