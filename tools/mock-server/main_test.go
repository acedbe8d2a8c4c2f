package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadTestFixture(t *testing.T) *fixtureFile {
	t.Helper()
	path := filepath.Join("testdata", "listings.json")
	f, err := loadFixture(path)
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return f
}

func TestLoadFixture(t *testing.T) {
	fixture := loadTestFixture(t)
	if len(fixture.Listings) == 0 {
		t.Fatal("expected listings in fixture")
	}
	for _, l := range fixture.Listings {
		if l.Slug == "" || l.Title == "" || l.Body == "" {
			t.Errorf("listing %q missing required fields", l.Slug)
		}
	}
}

func TestFeedHandler_AllListings(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := feedHandler(testLogger(), fixture)
	req := httptest.NewRequest(http.MethodGet, "/listings/feed.json", http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	var resp feedResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != len(fixture.Listings) {
		t.Errorf("total=%d, want %d", resp.Total, len(fixture.Listings))
	}
	if len(resp.Listings) != len(fixture.Listings) {
		t.Errorf("listings=%d, want %d", len(resp.Listings), len(fixture.Listings))
	}
	for _, e := range resp.Listings {
		if !strings.Contains(e.URL, "/listing/") {
			t.Errorf("entry URL %q missing /listing/ path", e.URL)
		}
	}
}

func TestFeedHandler_Pagination(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := feedHandler(testLogger(), fixture)
	req := httptest.NewRequest(http.MethodGet, "/listings/feed.json?limit=2&offset=0", http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	var resp feedResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Listings) != 2 {
		t.Errorf("listings=%d, want 2", len(resp.Listings))
	}
	if resp.Total != len(fixture.Listings) {
		t.Errorf("total=%d, want %d", resp.Total, len(fixture.Listings))
	}
	if resp.Next == "" {
		t.Error("expected non-empty next for paginated response")
	}
}

func TestFeedHandler_OffsetPastEnd(t *testing.T) {
	fixture := loadTestFixture(t)
	handler := feedHandler(testLogger(), fixture)
	req := httptest.NewRequest(http.MethodGet, "/listings/feed.json?offset=100", http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	var resp feedResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Listings) != 0 {
		t.Errorf("listings=%d, want 0", len(resp.Listings))
	}
	if resp.Next != "" {
		t.Error("expected empty next past end of feed")
	}
}

func TestListingHandler_ServesPage(t *testing.T) {
	fixture := loadTestFixture(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /listing/{slug}", listingHandler(testLogger(), fixture))

	req := httptest.NewRequest(http.MethodGet, "/listing/"+fixture.Listings[0].Slug, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, fixture.Listings[0].Title) {
		t.Error("expected page to contain listing title")
	}
	if !strings.Contains(body, fixture.Listings[0].Body) {
		t.Error("expected page to contain listing body")
	}
}

func TestListingHandler_NotFound(t *testing.T) {
	fixture := loadTestFixture(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /listing/{slug}", listingHandler(testLogger(), fixture))

	req := httptest.NewRequest(http.MethodGet, "/listing/no-such-listing", http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusNotFound)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
