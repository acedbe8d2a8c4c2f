package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/vindexhq/vindex/internal/metrics"
)

const (
	defaultFeedPath  = "/listings/feed.json"
	defaultFeedLimit = 50
)

// FeedEntry is one listing in a source's index feed.
type FeedEntry struct {
	URL    string    `json:"url"`
	EndsAt time.Time `json:"ends_at,omitempty"`
}

type feedResponse struct {
	Listings []FeedEntry `json:"listings"`
	Total    int         `json:"total"`
	Offset   int         `json:"offset"`
	Limit    int         `json:"limit"`
	Next     string      `json:"next"`
}

// IndexFeed discovers listing URLs by paging a source's JSON index feed.
// Listings with an auction end time sort first, soonest-ending leading,
// so a bounded sync cycle spends its budget on the most urgent pages.
type IndexFeed struct {
	client    *http.Client
	limiter   *RateLimiter
	scheme    string
	path      string
	userAgent string
	logger    *slog.Logger
}

// FeedOption configures the IndexFeed.
type FeedOption func(*IndexFeed)

// WithFeedHTTPClient overrides the HTTP client.
func WithFeedHTTPClient(c *http.Client) FeedOption {
	return func(f *IndexFeed) {
		f.client = c
	}
}

// WithFeedScheme overrides the URL scheme. Tests use http against a local
// server.
func WithFeedScheme(s string) FeedOption {
	return func(f *IndexFeed) {
		f.scheme = s
	}
}

// WithFeedPath overrides the index feed path.
func WithFeedPath(p string) FeedOption {
	return func(f *IndexFeed) {
		f.path = p
	}
}

// WithFeedLogger sets the logger.
func WithFeedLogger(l *slog.Logger) FeedOption {
	return func(f *IndexFeed) {
		f.logger = l
	}
}

// NewIndexFeed creates an IndexFeed gated by the given rate limiter. The
// limiter is shared with the page fetcher so discovery and listing fetches
// draw from the same daily quota.
func NewIndexFeed(limiter *RateLimiter, opts ...FeedOption) *IndexFeed {
	f := &IndexFeed{
		client:    &http.Client{Timeout: defaultFetchTimeout},
		limiter:   limiter,
		scheme:    "https",
		path:      defaultFeedPath,
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Discover returns up to limit listing URLs for the source, most urgent
// first. It pages through the feed until the limit is reached or the feed
// reports no next page.
func (f *IndexFeed) Discover(ctx context.Context, p Profile, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	var entries []FeedEntry
	offset := 0
	for len(entries) < limit {
		page, err := f.fetchPage(ctx, p.Domain, limit-len(entries), offset)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page.Listings...)
		if page.Next == "" || len(page.Listings) == 0 {
			break
		}
		offset += len(page.Listings)
	}

	// Auctions with a known end time lead, soonest first. Entries without
	// one keep their feed order at the back.
	sort.SliceStable(entries, func(i, j int) bool {
		ei, ej := entries[i].EndsAt, entries[j].EndsAt
		if ei.IsZero() {
			return false
		}
		if ej.IsZero() {
			return true
		}
		return ei.Before(ej)
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		urls = append(urls, e.URL)
	}
	return urls, nil
}

func (f *IndexFeed) fetchPage(ctx context.Context, domain string, limit, offset int) (*feedResponse, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.FetchDailyLimitHits.Inc()
			}
			return nil, err
		}
		metrics.FetchCallsTotal.Inc()
		metrics.FetchDailyUsage.Set(float64(f.limiter.DailyCount()))
	}

	u := f.buildFeedURL(domain, limit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading feed %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching feed %s: unexpected status %d", u, resp.StatusCode)
	}

	var page feedResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", u, err)
	}

	f.logger.Debug("fetched feed page",
		"domain", domain,
		"offset", offset,
		"listings", len(page.Listings),
	)
	return &page, nil
}

func (f *IndexFeed) buildFeedURL(domain string, limit, offset int) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	return f.scheme + "://" + domain + f.path + "?" + params.Encode()
}
