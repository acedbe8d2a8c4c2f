package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultUserAgent    = "vindex/1.0 (+https://github.com/vindexhq/vindex)"
	defaultFetchTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a listing page we read. Listing pages
	// are text; anything past this is images or runaway streams.
	maxBodyBytes = 4 << 20
)

// Page is one fetched listing page.
type Page struct {
	// URL is the URL that was requested, possibly an archive snapshot.
	URL string
	// OriginalURL is the listing's own URL, with any archive wrapper
	// stripped.
	OriginalURL string
	// ObservedAt is when the content was captured: the snapshot timestamp
	// for archived pages, fetch time otherwise.
	ObservedAt time.Time
	FetchedAt  time.Time
	Body       string
	StatusCode int
}

// Lister fetches a single listing page. The audit loop depends on this
// interface so tests can substitute canned pages.
type Lister interface {
	FetchListing(ctx context.Context, url string) (*Page, error)
}

// ImageFetcher retrieves a listing photo for vision enrichment.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (data []byte, mediaType string, err error)
}

// Fetcher is the production Lister: a rate-limited HTTP client with
// archive snapshot awareness.
type Fetcher struct {
	client    *http.Client
	limiter   *RateLimiter
	userAgent string
	logger    *slog.Logger
}

// FetcherOption configures the Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher gated by the given rate limiter.
func NewFetcher(limiter *RateLimiter, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: defaultFetchTimeout},
		limiter:   limiter,
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchListing retrieves one listing page, waiting on the rate limiter
// first. Non-2xx responses are errors; the caller decides whether a failed
// fetch is CRITICAL.
func (f *Fetcher) FetchListing(ctx context.Context, url string) (*Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	f.logger.Debug("fetched listing",
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	fetchedAt := time.Now().UTC()
	page := &Page{
		URL:         url,
		OriginalURL: OriginalURL(url),
		FetchedAt:   fetchedAt,
		ObservedAt:  fetchedAt,
		Body:        string(body),
		StatusCode:  resp.StatusCode,
	}
	if snap, ok := SnapshotTime(url); ok {
		page.ObservedAt = snap
	}
	return page, nil
}

// maxImageBytes caps a single listing photo download. Listing photos are
// web-sized; anything bigger is a full-resolution original we don't need.
const maxImageBytes = 8 << 20

// FetchImage retrieves one listing photo, waiting on the rate limiter
// first. The media type comes from the Content-Type header, defaulting to
// JPEG when the server omits it.
func (f *Fetcher) FetchImage(ctx context.Context, url string) ([]byte, string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching image %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetching image %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", url, err)
	}

	mediaType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mediaType, ';'); i > 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.TrimSpace(mediaType)
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/jpeg"
	}

	f.logger.Debug("fetched image", "url", url, "bytes", len(data), "media_type", mediaType)
	return data, mediaType, nil
}
