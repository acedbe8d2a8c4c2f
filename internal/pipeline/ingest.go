// Package pipeline orchestrates ingestion, auditing, and scheduling: raw
// listings flow through validation, confidence scoring, and record
// matching before anything is persisted.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vindexhq/vindex/internal/match"
	"github.com/vindexhq/vindex/internal/metrics"
	"github.com/vindexhq/vindex/internal/scrape"
	"github.com/vindexhq/vindex/internal/store"
	"github.com/vindexhq/vindex/pkg/confidence"
	domain "github.com/vindexhq/vindex/pkg/types"
	"github.com/vindexhq/vindex/pkg/validate"
)

// defaultReviewThreshold parks extractions below this overall confidence
// for manual review instead of trusting them silently.
const defaultReviewThreshold = 0.5

// ReasonLowConfidence and friends are review-queue reasons.
const (
	ReasonLowConfidence = "low_confidence"
	ReasonRejected      = "unresolvable_identity"
)

// Ingestor turns one raw listing into a scored extraction, resolves it to
// a vehicle, and persists the observation trail.
type Ingestor struct {
	store           store.Store
	matcher         *match.Matcher
	validator       *validate.Validator
	registry        *scrape.Registry
	reviewThreshold float64
	now             func() time.Time
	log             *slog.Logger
}

// IngestorOption configures the Ingestor.
type IngestorOption func(*Ingestor)

// WithIngestorLogger sets a custom logger.
func WithIngestorLogger(l *slog.Logger) IngestorOption {
	return func(i *Ingestor) {
		i.log = l
	}
}

// WithReviewThreshold overrides the confidence floor below which
// extractions are queued for manual review.
func WithReviewThreshold(t float64) IngestorOption {
	return func(i *Ingestor) {
		i.reviewThreshold = t
	}
}

// WithValidator overrides the default validator configuration.
func WithValidator(v *validate.Validator) IngestorOption {
	return func(i *Ingestor) {
		i.validator = v
	}
}

// WithRegistry overrides the source registry.
func WithRegistry(r *scrape.Registry) IngestorOption {
	return func(i *Ingestor) {
		i.registry = r
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) IngestorOption {
	return func(i *Ingestor) {
		i.now = f
	}
}

// NewIngestor creates an Ingestor with injected dependencies.
func NewIngestor(s store.Store, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		store:           s,
		validator:       validate.New(validate.DefaultConfig()),
		registry:        scrape.DefaultRegistry(),
		reviewThreshold: defaultReviewThreshold,
		now:             time.Now,
		log:             slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.matcher = match.New(s, match.WithLogger(i.log))
	return i
}

// IngestResult is everything one ingestion pass produced.
type IngestResult struct {
	Extraction *domain.Extraction  `json:"extraction"`
	Outcome    domain.MatchOutcome `json:"outcome"`
	// Vehicle is the resolved record; nil on rejection or dry run.
	Vehicle *domain.Vehicle `json:"vehicle,omitempty"`
	// Preview holds the record a dry run would have created.
	Preview       *domain.Vehicle `json:"preview,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
	ObservationID string          `json:"observation_id,omitempty"`
	// Queued reports that the extraction was parked for manual review.
	Queued bool `json:"queued_for_review,omitempty"`
}

// Ingest validates, scores, matches, and persists one raw listing.
// When dryRun is set nothing is written; the result carries the preview.
func (i *Ingestor) Ingest(ctx context.Context, raw *domain.RawListing, dryRun bool) (*IngestResult, error) {
	observedAt := i.observedAt(raw)

	// Era-aware validation: a 2008 snapshot is judged against 2008, so a
	// "2024" model year in it is rightly invalid.
	era := observedAt.Year()

	fields := i.validator.Listing(raw, era)
	for _, f := range fields {
		if f.Status == domain.StatusValidationFail || f.Status == domain.StatusParseError {
			metrics.ValidationFailuresTotal.WithLabelValues(string(f.Name)).Inc()
		}
	}

	profile := i.registry.LookupURL(raw.SourceURL)
	base := profile.BaseTrust
	if base <= 0 {
		base = confidence.DefaultBaseTrust
	}

	score, factors := confidence.Aggregate(base, fields)
	metrics.ConfidenceDistribution.Observe(score)

	ext := &domain.Extraction{
		SourceURL:         raw.SourceURL,
		SourceDomain:      scrape.DomainOf(raw.SourceURL),
		ObservedAt:        observedAt,
		Fields:            fields,
		OverallConfidence: score,
		Factors:           factors,
	}

	res, err := i.matcher.Resolve(ctx, ext, dryRun)
	if err != nil {
		metrics.IngestionErrorsTotal.Inc()
		return nil, fmt.Errorf("resolving extraction: %w", err)
	}
	metrics.MatchOutcomesTotal.WithLabelValues(string(res.Outcome)).Inc()

	out := &IngestResult{
		Extraction: ext,
		Outcome:    res.Outcome,
		Vehicle:    res.Vehicle,
		Preview:    res.Preview,
		Warnings:   res.Warnings,
	}

	if dryRun {
		return out, nil
	}

	if res.Outcome == domain.Rejected {
		if err := i.enqueueReview(ctx, ext, ReasonRejected); err != nil {
			return nil, err
		}
		out.Queued = true
		return out, nil
	}

	obs := &domain.Observation{
		VehicleID:       res.Vehicle.ID,
		SourceURL:       raw.SourceURL,
		ObservedAt:      observedAt,
		Extraction:      *ext,
		ConfidenceScore: score,
		ConfidenceLevel: domain.LevelForScore(score),
	}
	if err := i.store.AppendObservation(ctx, obs); err != nil {
		return nil, fmt.Errorf("appending observation: %w", err)
	}
	out.ObservationID = obs.ID
	metrics.IngestionListingsTotal.Inc()

	i.recordTimeline(ctx, res.Vehicle.ID, raw, observedAt)

	if score < i.reviewThreshold {
		if err := i.enqueueReview(ctx, ext, ReasonLowConfidence); err != nil {
			return nil, err
		}
		out.Queued = true
	}

	i.log.Info("listing ingested",
		"source", ext.SourceDomain,
		"outcome", res.Outcome,
		"vehicle_id", res.Vehicle.ID,
		"confidence", score,
	)

	return out, nil
}

// observedAt picks the capture date: an explicit one wins, then an archive
// snapshot timestamp, then ingestion time.
func (i *Ingestor) observedAt(raw *domain.RawListing) time.Time {
	if !raw.ObservedAt.IsZero() {
		return raw.ObservedAt.UTC()
	}
	if snap, ok := scrape.SnapshotTime(raw.SourceURL); ok {
		return snap
	}
	return i.now().UTC()
}

func (i *Ingestor) recordTimeline(ctx context.Context, vehicleID string, raw *domain.RawListing, observedAt time.Time) {
	events := []domain.TimelineEvent{
		{
			VehicleID:  vehicleID,
			Kind:       "listing_observed",
			OccurredAt: observedAt,
			SourceURL:  raw.SourceURL,
		},
	}
	if raw.AuctionEndAt != nil {
		events = append(events, domain.TimelineEvent{
			VehicleID:  vehicleID,
			Kind:       "auction_end",
			OccurredAt: raw.AuctionEndAt.UTC(),
			SourceURL:  raw.SourceURL,
		})
	}

	for idx := range events {
		if err := i.store.InsertTimelineEvent(ctx, &events[idx]); err != nil {
			// Timeline events are derived data; losing one is not worth
			// failing the ingestion.
			i.log.Error("timeline event insert failed",
				"vehicle_id", vehicleID, "kind", events[idx].Kind, "error", err,
			)
		}
	}
}

func (i *Ingestor) enqueueReview(ctx context.Context, ext *domain.Extraction, reason string) error {
	item := &domain.ReviewItem{
		SourceURL:  ext.SourceURL,
		Reason:     reason,
		Extraction: *ext,
	}
	if err := i.store.EnqueueReview(ctx, item); err != nil {
		return fmt.Errorf("enqueueing review: %w", err)
	}
	metrics.ReviewQueueEnqueuedTotal.Inc()
	i.log.Warn("extraction queued for review",
		"source", ext.SourceURL,
		"reason", reason,
		"confidence", ext.OverallConfidence,
	)
	return nil
}
