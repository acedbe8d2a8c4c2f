package scrape_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/internal/scrape"
)

func TestFetcher_FetchListing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "vindex")
		switch r.URL.Path {
		case "/listing/1":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>1969 Chevrolet Camaro</html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	f := scrape.NewFetcher(scrape.NewRateLimiter(100, 10, 1000))

	t.Run("successful fetch", func(t *testing.T) {
		page, err := f.FetchListing(context.Background(), srv.URL+"/listing/1")
		require.NoError(t, err)
		assert.Contains(t, page.Body, "Camaro")
		assert.Equal(t, http.StatusOK, page.StatusCode)
		assert.False(t, page.ObservedAt.IsZero())
		// Live pages observe at fetch time.
		assert.Equal(t, page.FetchedAt, page.ObservedAt)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		_, err := f.FetchListing(context.Background(), srv.URL+"/gone")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})
}

func TestFetcher_FetchImage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photos/1.jpg":
			w.Header().Set("Content-Type", "image/jpeg; charset=binary")
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/photos/untyped":
			// No Content-Type at all.
			_, _ = w.Write([]byte("raw-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	f := scrape.NewFetcher(scrape.NewRateLimiter(100, 10, 1000))

	t.Run("media type from header", func(t *testing.T) {
		data, mediaType, err := f.FetchImage(context.Background(), srv.URL+"/photos/1.jpg")
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(data))
		assert.Equal(t, "image/jpeg", mediaType, "header parameters are stripped")
	})

	t.Run("missing content type defaults to jpeg", func(t *testing.T) {
		_, mediaType, err := f.FetchImage(context.Background(), srv.URL+"/photos/untyped")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", mediaType)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		_, _, err := f.FetchImage(context.Background(), srv.URL+"/photos/gone")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})
}

func TestFetcher_DailyQuota(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	f := scrape.NewFetcher(scrape.NewRateLimiter(100, 10, 1))

	_, err := f.FetchListing(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = f.FetchListing(context.Background(), srv.URL)
	assert.ErrorIs(t, err, scrape.ErrDailyLimitReached)
}
