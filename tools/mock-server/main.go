// Package main implements a mock listing site for local development.
// It serves a paginated JSON index feed and canned listing pages from a
// fixture file, so the full fetch/extract/ingest path can run without
// touching real auction sites.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"
)

type fixtureFile struct {
	Listings []fixtureListing `json:"listings"`
}

type fixtureListing struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	EndsAt string `json:"ends_at,omitempty"`
	Body   string `json:"body"`
}

type feedEntry struct {
	URL    string `json:"url"`
	EndsAt string `json:"ends_at,omitempty"`
}

type feedResponse struct {
	Listings []feedEntry `json:"listings"`
	Total    int         `json:"total"`
	Offset   int         `json:"offset"`
	Limit    int         `json:"limit"`
	Next     string      `json:"next"`
}

var pageTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<div class="listing-body">{{.Body}}</div>
</body>
</html>
`))

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixturePath := flag.String("fixture", "tools/mock-server/testdata/listings.json", "path to listings fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "listings", len(fixture.Listings))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /listings/feed.json", feedHandler(logger, fixture))
	mux.HandleFunc("GET /listing/{slug}", listingHandler(logger, fixture))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock listing server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*fixtureFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var f fixtureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &f, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func feedHandler(logger *slog.Logger, fixture *fixtureFile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
			offset = v
		}

		total := len(fixture.Listings)
		page := fixture.Listings
		if offset >= total {
			page = nil
		} else {
			end := min(offset+limit, total)
			page = page[offset:end]
		}

		entries := make([]feedEntry, 0, len(page))
		for _, l := range page {
			entries = append(entries, feedEntry{
				URL:    "http://" + r.Host + "/listing/" + l.Slug,
				EndsAt: l.EndsAt,
			})
		}

		next := ""
		if offset+limit < total {
			next = fmt.Sprintf("/listings/feed.json?offset=%d&limit=%d", offset+limit, limit)
		}

		resp := feedResponse{
			Listings: entries,
			Total:    total,
			Offset:   offset,
			Limit:    limit,
			Next:     next,
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(resp)
		logger.Info("feed", "returned", len(entries), "offset", offset, "limit", limit)
	}
}

func listingHandler(logger *slog.Logger, fixture *fixtureFile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		for _, l := range fixture.Listings {
			if l.Slug == slug {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				if err := pageTemplate.Execute(w, l); err != nil {
					logger.Error("rendering listing", "slug", slug, "error", err)
				}
				return
			}
		}

		logger.Warn("listing not found", "slug", slug)
		http.NotFound(w, r)
	}
}
