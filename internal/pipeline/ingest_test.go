package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/internal/pipeline"
	"github.com/vindexhq/vindex/internal/store"
	domain "github.com/vindexhq/vindex/pkg/types"
)

func goodListing() *domain.RawListing {
	return &domain.RawListing{
		SourceURL:    "https://bringatrailer.com/listing/1969-camaro",
		VIN:          "124379N664466AB02",
		Year:         "1969",
		Make:         "Chevrolet",
		Model:        "Camaro",
		Trim:         "SS",
		Price:        "$45,000",
		Mileage:      "72,450 miles",
		Transmission: "4-speed manual",
		Description:  "Numbers matching big block coupe with documented restoration history.",
		ImageURLs: []string{
			"https://img.example/1.jpg", "https://img.example/2.jpg",
			"https://img.example/3.jpg", "https://img.example/4.jpg",
			"https://img.example/5.jpg", "https://img.example/6.jpg",
		},
		ObservedAt: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestIngest_FullListing(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ing := pipeline.NewIngestor(s)

	res, err := ing.Ingest(context.Background(), goodListing(), false)
	require.NoError(t, err)

	assert.Equal(t, domain.CreatedNew, res.Outcome)
	require.NotNil(t, res.Vehicle)
	assert.Equal(t, "124379N664466AB02", res.Vehicle.VIN)
	assert.NotEmpty(t, res.ObservationID)
	assert.False(t, res.Queued, "high confidence listings skip review")
	assert.GreaterOrEqual(t, res.Extraction.OverallConfidence, 0.7)

	// Second ingestion of the same VIN attaches instead of duplicating.
	res2, err := ing.Ingest(context.Background(), goodListing(), false)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchedByVIN, res2.Outcome)
	assert.Equal(t, res.Vehicle.ID, res2.Vehicle.ID)

	st, err := s.GetSystemState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.VehiclesTotal)
	assert.Equal(t, 2, st.ObservationsTotal)
}

func TestIngest_TimelineEvents(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ing := pipeline.NewIngestor(s)

	raw := goodListing()
	auctionEnd := time.Date(2024, 6, 20, 18, 0, 0, 0, time.UTC)
	raw.AuctionEndAt = &auctionEnd

	res, err := ing.Ingest(context.Background(), raw, false)
	require.NoError(t, err)

	events, err := s.ListTimelineEvents(context.Background(), res.Vehicle.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "listing_observed", events[0].Kind)
	assert.Equal(t, raw.ObservedAt, events[0].OccurredAt)
	assert.Equal(t, "auction_end", events[1].Kind)

	// Re-ingesting the same capture does not duplicate timeline entries.
	_, err = ing.Ingest(context.Background(), raw, false)
	require.NoError(t, err)
	events, err = s.ListTimelineEvents(context.Background(), res.Vehicle.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestIngest_LowConfidenceQueuesReview(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ing := pipeline.NewIngestor(s)

	// Resolvable identity but nothing else: confidence lands well below
	// the review threshold.
	raw := &domain.RawListing{
		SourceURL: "https://joes-classics.example/listing/7",
		Year:      "1969",
		Make:      "Chevrolet",
		Model:     "Camaro",
	}

	res, err := ing.Ingest(context.Background(), raw, false)
	require.NoError(t, err)
	assert.Equal(t, domain.CreatedNew, res.Outcome)
	assert.Less(t, res.Extraction.OverallConfidence, 0.5)
	assert.True(t, res.Queued)
	assert.NotEmpty(t, res.ObservationID, "low confidence still persists the observation")

	queue, err := s.ListReviewQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, pipeline.ReasonLowConfidence, queue[0].Reason)
}

func TestIngest_RejectedQueuesReview(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ing := pipeline.NewIngestor(s)

	raw := &domain.RawListing{
		SourceURL:   "https://joes-classics.example/listing/8",
		Description: "Great car, call for details!",
	}

	res, err := ing.Ingest(context.Background(), raw, false)
	require.NoError(t, err)
	assert.Equal(t, domain.Rejected, res.Outcome)
	assert.Nil(t, res.Vehicle)
	assert.True(t, res.Queued)

	queue, err := s.ListReviewQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, pipeline.ReasonRejected, queue[0].Reason)

	st, err := s.GetSystemState(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.VehiclesTotal, "rejection writes no vehicle")
	assert.Zero(t, st.ObservationsTotal)
}

func TestIngest_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ing := pipeline.NewIngestor(s)

	res, err := ing.Ingest(context.Background(), goodListing(), true)
	require.NoError(t, err)
	assert.Equal(t, domain.CreatedNew, res.Outcome)
	assert.Nil(t, res.Vehicle)
	require.NotNil(t, res.Preview)
	assert.Equal(t, 1969, res.Preview.Year)

	st, err := s.GetSystemState(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.VehiclesTotal)
	assert.Zero(t, st.ObservationsTotal)
	assert.Zero(t, st.ReviewQueueDepth)
}

func TestIngest_SnapshotSetsHistoricalEra(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ing := pipeline.NewIngestor(s)

	// A 2008 archive capture claiming a 2024 model year: the year must be
	// judged against the capture date, not today.
	raw := &domain.RawListing{
		SourceURL: "https://web.archive.org/web/20080301123456/http://joes-classics.example/listing/9",
		Year:      "2024",
		Make:      "Honda",
		Model:     "Accord",
	}

	res, err := ing.Ingest(context.Background(), raw, false)
	require.NoError(t, err)

	snap := time.Date(2008, 3, 1, 12, 34, 56, 0, time.UTC)
	assert.True(t, res.Extraction.ObservedAt.Equal(snap),
		"snapshot timestamp becomes the observation date")

	yearField := res.Extraction.Field(domain.FieldYear)
	require.NotNil(t, yearField)
	assert.Equal(t, domain.StatusValidationFail, yearField.Status)
	assert.Equal(t, domain.ErrCodeInvalidYearRange, yearField.ErrorCode)

	// Without a valid year the identity cannot resolve, so this rejects.
	assert.Equal(t, domain.Rejected, res.Outcome)
}

func TestIngest_SourceTrustAffectsScore(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ing := pipeline.NewIngestor(s)

	auction := goodListing() // bringatrailer.com, base trust 0.85

	classifieds := goodListing()
	classifieds.SourceURL = "https://sfbay.craigslist.org/cto/d/1969-camaro/7700000000.html"
	classifieds.VIN = "" // different record; avoid VIN collapse

	resA, err := ing.Ingest(context.Background(), auction, true)
	require.NoError(t, err)
	resB, err := ing.Ingest(context.Background(), classifieds, true)
	require.NoError(t, err)

	assert.Greater(t, resA.Extraction.OverallConfidence, resB.Extraction.OverallConfidence,
		"higher base trust must carry through to the overall score")
}
