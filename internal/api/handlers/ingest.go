package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vindexhq/vindex/internal/pipeline"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// ListingIngester runs the validate/score/match path for one raw listing.
type ListingIngester interface {
	Ingest(ctx context.Context, raw *domain.RawListing, dryRun bool) (*pipeline.IngestResult, error)
}

// URLIngester runs the full fetch/extract/ingest path for one listing URL.
type URLIngester interface {
	IngestURL(ctx context.Context, url string, dryRun bool) (*pipeline.IngestResult, error)
}

// IngestHandler handles listing ingestion requests.
type IngestHandler struct {
	ingester    ListingIngester
	urlIngester URLIngester
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ing ListingIngester, urlIng URLIngester) *IngestHandler {
	return &IngestHandler{ingester: ing, urlIngester: urlIng}
}

// IngestListingInput is the request for ingesting pre-extracted listing data.
type IngestListingInput struct {
	DryRun bool `query:"dry_run" doc:"Validate, score, and match without persisting anything"`
	Body   domain.RawListing
}

// IngestOutput is the response for ingestion endpoints.
type IngestOutput struct {
	Body pipeline.IngestResult
}

// IngestURLInput is the request for ingesting a listing by URL.
type IngestURLInput struct {
	DryRun bool `query:"dry_run" doc:"Validate, score, and match without persisting anything"`
	Body   struct {
		URL string `json:"url" minLength:"1" doc:"Listing URL to fetch and extract" example:"https://bringatrailer.com/listing/1969-camaro"`
	}
}

// IngestListing ingests one pre-extracted raw listing.
func (h *IngestHandler) IngestListing(
	ctx context.Context,
	input *IngestListingInput,
) (*IngestOutput, error) {
	raw := input.Body
	if raw.SourceURL == "" {
		return nil, huma.Error422UnprocessableEntity("source_url is required")
	}

	res, err := h.ingester.Ingest(ctx, &raw, input.DryRun)
	if err != nil {
		return nil, huma.Error500InternalServerError("ingestion failed: " + err.Error())
	}

	return &IngestOutput{Body: *res}, nil
}

// IngestURL fetches, extracts, and ingests one listing by URL.
func (h *IngestHandler) IngestURL(
	ctx context.Context,
	input *IngestURLInput,
) (*IngestOutput, error) {
	res, err := h.urlIngester.IngestURL(ctx, input.Body.URL, input.DryRun)
	if err != nil {
		return nil, huma.Error502BadGateway("url ingestion failed: " + err.Error())
	}

	return &IngestOutput{Body: *res}, nil
}

// RegisterIngestRoutes registers ingestion endpoints with the Huma API.
func RegisterIngestRoutes(api huma.API, h *IngestHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "ingest-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/ingest",
		Summary:     "Ingest a raw listing",
		Description: "Validates, scores, and matches one pre-extracted listing. " +
			"With dry_run=true the record is resolved but nothing is persisted.",
		Tags:   []string{"ingest"},
		Errors: []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.IngestListing)

	huma.Register(api, huma.Operation{
		OperationID: "ingest-url",
		Method:      http.MethodPost,
		Path:        "/api/v1/ingest/url",
		Summary:     "Ingest a listing by URL",
		Description: "Fetches the page, extracts attributes via the configured LLM backend, " +
			"then validates, scores, and matches the result.",
		Tags:   []string{"ingest"},
		Errors: []int{http.StatusBadGateway},
	}, h.IngestURL)
}
