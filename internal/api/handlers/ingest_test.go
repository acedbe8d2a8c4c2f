package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/internal/api/handlers"
	"github.com/vindexhq/vindex/internal/pipeline"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// mockIngester implements ListingIngester and URLIngester for testing.
type mockIngester struct {
	result    *pipeline.IngestResult
	err       error
	gotRaw    *domain.RawListing
	gotURL    string
	gotDryRun bool
}

func (m *mockIngester) Ingest(_ context.Context, raw *domain.RawListing, dryRun bool) (*pipeline.IngestResult, error) {
	m.gotRaw = raw
	m.gotDryRun = dryRun
	return m.result, m.err
}

func (m *mockIngester) IngestURL(_ context.Context, url string, dryRun bool) (*pipeline.IngestResult, error) {
	m.gotURL = url
	m.gotDryRun = dryRun
	return m.result, m.err
}

func TestIngestListing(t *testing.T) {
	t.Parallel()

	ing := &mockIngester{result: &pipeline.IngestResult{Outcome: domain.CreatedNew}}
	h := handlers.NewIngestHandler(ing, ing)

	input := &handlers.IngestListingInput{DryRun: true}
	input.Body = domain.RawListing{
		SourceURL: "https://bringatrailer.com/listing/1969-camaro",
		Year:      "1969",
		Make:      "Chevrolet",
		Model:     "Camaro",
	}

	out, err := h.IngestListing(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.CreatedNew, out.Body.Outcome)
	assert.True(t, ing.gotDryRun)
	require.NotNil(t, ing.gotRaw)
	assert.Equal(t, "Camaro", ing.gotRaw.Model)
}

func TestIngestListing_MissingSourceURL(t *testing.T) {
	t.Parallel()

	ing := &mockIngester{}
	h := handlers.NewIngestHandler(ing, ing)

	input := &handlers.IngestListingInput{}
	input.Body = domain.RawListing{Year: "1969"}

	_, err := h.IngestListing(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_url is required")
	assert.Nil(t, ing.gotRaw)
}

func TestIngestListing_Error(t *testing.T) {
	t.Parallel()

	ing := &mockIngester{err: errors.New("db connection lost")}
	h := handlers.NewIngestHandler(ing, ing)

	input := &handlers.IngestListingInput{}
	input.Body = domain.RawListing{SourceURL: "https://example.com/1"}

	_, err := h.IngestListing(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion failed")
}

func TestIngestURL(t *testing.T) {
	t.Parallel()

	ing := &mockIngester{result: &pipeline.IngestResult{Outcome: domain.MatchedByVIN}}
	h := handlers.NewIngestHandler(ing, ing)

	input := &handlers.IngestURLInput{}
	input.Body.URL = "https://bringatrailer.com/listing/1969-camaro"

	out, err := h.IngestURL(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchedByVIN, out.Body.Outcome)
	assert.Equal(t, "https://bringatrailer.com/listing/1969-camaro", ing.gotURL)
}

func TestIngestURL_Error(t *testing.T) {
	t.Parallel()

	ing := &mockIngester{err: errors.New("unexpected status 404")}
	h := handlers.NewIngestHandler(ing, ing)

	input := &handlers.IngestURLInput{}
	input.Body.URL = "https://bringatrailer.com/listing/gone"

	_, err := h.IngestURL(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url ingestion failed")
}
