package scrape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vindexhq/vindex/internal/scrape"
)

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := scrape.DefaultRegistry()

	tests := []struct {
		name      string
		domain    string
		wantTrust float64
	}{
		{name: "auction house", domain: "bringatrailer.com", wantTrust: 0.85},
		{name: "archive", domain: "web.archive.org", wantTrust: 0.85},
		{name: "classifieds", domain: "craigslist.org", wantTrust: 0.60},
		{name: "www prefix stripped", domain: "www.ebay.com", wantTrust: 0.70},
		{name: "subdomain resolves to parent", domain: "sfbay.craigslist.org", wantTrust: 0.60},
		{name: "unknown dealer falls back", domain: "joes-classics.example", wantTrust: 0.70},
		{name: "case-insensitive", domain: "Bonhams.COM", wantTrust: 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := r.Lookup(tt.domain)
			assert.InDelta(t, tt.wantTrust, p.BaseTrust, 0.001)
		})
	}
}

func TestRegistry_LookupURL(t *testing.T) {
	t.Parallel()

	r := scrape.DefaultRegistry()

	// Archived snapshots resolve to the archive's profile, not the
	// embedded original domain.
	p := r.LookupURL("https://web.archive.org/web/20080301123456/http://joes-classics.example/listing/1")
	assert.Equal(t, "web.archive.org", p.Domain)
	assert.InDelta(t, 0.85, p.BaseTrust, 0.001)

	p = r.LookupURL("https://www.bringatrailer.com/listing/1969-camaro")
	assert.InDelta(t, 0.85, p.BaseTrust, 0.001)
}

func TestDomainOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ebay.com", scrape.DomainOf("https://www.ebay.com/itm/123"))
	assert.Equal(t, "", scrape.DomainOf("::not a url"))
}
