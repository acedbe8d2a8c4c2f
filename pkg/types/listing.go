package domain

import "time"

// RawListing is the untrusted output of a scraper or LLM extraction pass:
// every attribute is string-typed exactly as it appeared in the source.
// Validation and typing happen downstream in pkg/validate.
type RawListing struct {
	SourceURL    string    `json:"source_url"`
	SourceDomain string    `json:"source_domain,omitempty"`
	ObservedAt   time.Time `json:"observed_at,omitzero"`

	VIN          string   `json:"vin,omitempty"`
	Year         string   `json:"year,omitempty"`
	Make         string   `json:"make,omitempty"`
	Model        string   `json:"model,omitempty"`
	Trim         string   `json:"trim,omitempty"`
	Price        string   `json:"price,omitempty"`
	Mileage      string   `json:"mileage,omitempty"`
	Engine       string   `json:"engine,omitempty"`
	Transmission string   `json:"transmission,omitempty"`
	Color        string   `json:"color,omitempty"`
	Description  string   `json:"description,omitempty"`
	ImageURLs    []string `json:"image_urls,omitempty"`

	// AuctionEndAt is set when the source exposes a live auction close
	// date; it seeds a derived timeline event.
	AuctionEndAt *time.Time `json:"auction_end_at,omitempty"`
}
