package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/vindexhq/vindex/internal/metrics"
	"github.com/vindexhq/vindex/internal/notify"
	"github.com/vindexhq/vindex/internal/scrape"
	"github.com/vindexhq/vindex/internal/store"
	"github.com/vindexhq/vindex/pkg/extract"
	domain "github.com/vindexhq/vindex/pkg/types"
)

const (
	defaultBatchSize   = 25
	defaultStagger     = 30 * time.Second
	defaultCycleBudget = 15 * time.Minute

	// maxEnrichmentPhotos bounds how many listing photos one vision call
	// carries. The lead photos show the exterior; interior shots add cost
	// without adding color or condition signal.
	maxEnrichmentPhotos = 2
)

// Feed discovers listing URLs for a source. Implementations return the
// most urgent listings first (auctions ending soonest lead the slice).
type Feed interface {
	Discover(ctx context.Context, p scrape.Profile, limit int) ([]string, error)
}

// Pipeline wires the fetch → extract → ingest path and the periodic sync
// cycle over monitored sources.
type Pipeline struct {
	store     store.Store
	ingestor  *Ingestor
	fetcher   scrape.Lister
	extractor extract.Extractor
	registry  *scrape.Registry
	feed      Feed
	notifier  notify.Notifier
	log       *slog.Logger

	// Photo enrichment is optional: both must be set for the vision pass.
	enricher extract.PhotoEnricher
	images   scrape.ImageFetcher

	batchSize   int
	stagger     time.Duration
	cycleBudget time.Duration
}

// PipelineOption configures the Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithBatchSize bounds how many listings one source contributes per cycle.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		p.batchSize = n
	}
}

// WithStagger sets the delay between processing each source.
func WithStagger(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.stagger = d
	}
}

// WithCycleBudget caps the wall-clock time of one sync cycle.
func WithCycleBudget(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.cycleBudget = d
	}
}

// WithFeed sets the listing discovery feed.
func WithFeed(f Feed) PipelineOption {
	return func(p *Pipeline) {
		p.feed = f
	}
}

// WithNotifier sets the audit alert notifier.
func WithNotifier(n notify.Notifier) PipelineOption {
	return func(p *Pipeline) {
		p.notifier = n
	}
}

// WithPhotoEnrichment enables the vision pass: when listing text leaves
// attribute gaps, photos are fetched and a vision call fills what it can.
func WithPhotoEnrichment(e extract.PhotoEnricher, images scrape.ImageFetcher) PipelineOption {
	return func(p *Pipeline) {
		p.enricher = e
		p.images = images
	}
}

// New creates a Pipeline with injected dependencies.
func New(
	s store.Store,
	ingestor *Ingestor,
	fetcher scrape.Lister,
	extractor extract.Extractor,
	registry *scrape.Registry,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		store:       s,
		ingestor:    ingestor,
		fetcher:     fetcher,
		extractor:   extractor,
		registry:    registry,
		notifier:    notify.NewNoOpNotifier(slog.Default()),
		log:         slog.Default(),
		batchSize:   defaultBatchSize,
		stagger:     defaultStagger,
		cycleBudget: defaultCycleBudget,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestURL runs the full path for one listing URL: fetch the page,
// extract raw attributes, then validate/score/match/persist.
func (p *Pipeline) IngestURL(ctx context.Context, url string, dryRun bool) (*IngestResult, error) {
	page, err := p.fetcher.FetchListing(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}
	metrics.FetchCallsTotal.Inc()

	start := time.Now()
	raw, err := p.extractor.Extract(ctx, extract.Page{Title: pageTitle(page), Body: page.Body})
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExtractionFailuresTotal.Inc()
		return nil, fmt.Errorf("extracting listing: %w", err)
	}

	raw.SourceURL = url
	raw.SourceDomain = scrape.DomainOf(url)
	if raw.ObservedAt.IsZero() {
		raw.ObservedAt = page.ObservedAt
	}

	p.enrichFromPhotos(ctx, raw)

	return p.ingestor.Ingest(ctx, raw, dryRun)
}

// enrichFromPhotos runs the optional vision pass when the listing text left
// the color blank and photos are available. Enrichment is best-effort: any
// failure logs and the listing proceeds with what the text gave.
func (p *Pipeline) enrichFromPhotos(ctx context.Context, raw *domain.RawListing) {
	if p.enricher == nil || p.images == nil {
		return
	}
	if raw.Color != "" || len(raw.ImageURLs) == 0 {
		return
	}

	var photos []extract.ImageAttachment
	for _, u := range raw.ImageURLs {
		if len(photos) == maxEnrichmentPhotos {
			break
		}
		data, mediaType, err := p.images.FetchImage(ctx, u)
		if err != nil {
			p.log.Warn("photo fetch failed", "url", u, "error", err)
			continue
		}
		photos = append(photos, extract.ImageAttachment{MediaType: mediaType, Data: data})
	}
	if len(photos) == 0 {
		return
	}

	if err := p.enricher.EnrichFromPhotos(ctx, raw, photos); err != nil {
		metrics.ExtractionFailuresTotal.Inc()
		p.log.Warn("photo enrichment failed", "source", raw.SourceURL, "error", err)
		return
	}
	p.log.Debug("photo enrichment applied",
		"source", raw.SourceURL,
		"photos", len(photos),
		"color", raw.Color,
	)
}

// RunSourceSync executes one ingestion cycle over all enabled sources:
// bounded batches per source, a stagger between sources, and a wall-clock
// budget for the whole cycle.
func (p *Pipeline) RunSourceSync(ctx context.Context) (int, error) {
	if p.feed == nil {
		return 0, errors.New("no feed configured")
	}

	start := time.Now()
	defer func() {
		metrics.IngestionDuration.Observe(time.Since(start).Seconds())
	}()

	deadline := start.Add(p.cycleBudget)
	sources := p.registry.Enabled()
	var ingested int

	for si, src := range sources {
		if ctx.Err() != nil {
			return ingested, ctx.Err()
		}
		if time.Now().After(deadline) {
			p.log.Warn("cycle budget exhausted",
				"ingested", ingested,
				"budget", p.cycleBudget,
			)
			break
		}

		p.log.Info("syncing source", "domain", src.Domain)

		urls, err := p.feed.Discover(ctx, src, p.batchSize)
		if err != nil {
			p.log.Error("feed discovery failed", "domain", src.Domain, "error", err)
			metrics.IngestionErrorsTotal.Inc()
			continue
		}

		stop := false
		for _, url := range urls {
			if ctx.Err() != nil {
				return ingested, ctx.Err()
			}
			if time.Now().After(deadline) {
				stop = true
				break
			}

			if _, err := p.IngestURL(ctx, url, false); err != nil {
				if errors.Is(err, scrape.ErrDailyLimitReached) {
					p.log.Warn("daily fetch limit reached, stopping sync",
						"domain", src.Domain,
						"ingested", ingested,
					)
					metrics.FetchDailyLimitHits.Inc()
					return ingested, nil
				}
				p.log.Error("listing ingestion failed", "url", url, "error", err)
				metrics.IngestionErrorsTotal.Inc()
				continue
			}
			ingested++
		}
		if stop {
			break
		}

		// Stagger between sources to avoid burst traffic.
		if si < len(sources)-1 && p.stagger > 0 {
			select {
			case <-ctx.Done():
				return ingested, ctx.Err()
			case <-time.After(p.stagger):
			}
		}
	}

	return ingested, nil
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

func pageTitle(page *scrape.Page) string {
	m := titleRe.FindStringSubmatch(page.Body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
