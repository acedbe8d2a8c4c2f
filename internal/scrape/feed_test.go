package scrape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T, entries []FeedEntry) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings/feed.json", r.URL.Path)

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 || limit > len(entries) {
			limit = len(entries)
		}

		end := offset + limit
		if end > len(entries) {
			end = len(entries)
		}
		page := feedResponse{
			Total:  len(entries),
			Offset: offset,
			Limit:  limit,
		}
		if offset < len(entries) {
			page.Listings = entries[offset:end]
		}
		if end < len(entries) {
			page.Next = "?offset=" + strconv.Itoa(end)
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(page))
	}))
}

func feedFor(t *testing.T, srv *httptest.Server) (*IndexFeed, Profile) {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	f := NewIndexFeed(nil, WithFeedScheme("http"), WithFeedHTTPClient(srv.Client()))
	return f, Profile{Domain: u.Host, BaseTrust: 0.85, Enabled: true}
}

func TestIndexFeed_Discover_SortsUrgentFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	srv := feedServer(t, []FeedEntry{
		{URL: "https://bringatrailer.com/listing/no-reserve-mustang"},
		{URL: "https://bringatrailer.com/listing/camaro-ss", EndsAt: base.Add(2 * time.Hour)},
		{URL: "https://bringatrailer.com/listing/corvette-427", EndsAt: base.Add(30 * time.Minute)},
	})
	defer srv.Close()

	f, p := feedFor(t, srv)
	urls, err := f.Discover(context.Background(), p, 10)
	require.NoError(t, err)

	require.Len(t, urls, 3)
	assert.Equal(t, "https://bringatrailer.com/listing/corvette-427", urls[0])
	assert.Equal(t, "https://bringatrailer.com/listing/camaro-ss", urls[1])
	assert.Equal(t, "https://bringatrailer.com/listing/no-reserve-mustang", urls[2])
}

func TestIndexFeed_Discover_Paginates(t *testing.T) {
	t.Parallel()

	entries := make([]FeedEntry, 7)
	for i := range entries {
		entries[i] = FeedEntry{URL: "https://example-motors.com/listing/" + strconv.Itoa(i)}
	}
	srv := feedServer(t, entries)
	defer srv.Close()

	f, p := feedFor(t, srv)
	urls, err := f.Discover(context.Background(), p, 5)
	require.NoError(t, err)
	assert.Len(t, urls, 5)
}

func TestIndexFeed_Discover_RespectsDailyLimit(t *testing.T) {
	t.Parallel()

	srv := feedServer(t, []FeedEntry{{URL: "https://example-motors.com/listing/1"}})
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	limiter := NewRateLimiter(100, 1, 0)
	f := NewIndexFeed(limiter, WithFeedScheme("http"), WithFeedHTTPClient(srv.Client()))

	_, err = f.Discover(context.Background(), Profile{Domain: u.Host}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDailyLimitReached)
}

func TestIndexFeed_Discover_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	f := NewIndexFeed(nil, WithFeedScheme("http"), WithFeedHTTPClient(srv.Client()))
	_, err = f.Discover(context.Background(), Profile{Domain: u.Host}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}
