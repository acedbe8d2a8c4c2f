package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// LLMExtractor implements the Extractor interface using an LLM backend.
type LLMExtractor struct {
	backend     LLMBackend
	temperature float64
	maxTokens   int
}

// LLMExtractorOption configures the LLMExtractor.
type LLMExtractorOption func(*LLMExtractor)

// WithTemperature sets the LLM temperature for extraction.
func WithTemperature(t float64) LLMExtractorOption {
	return func(e *LLMExtractor) {
		e.temperature = t
	}
}

// WithMaxTokens sets the max tokens for LLM responses.
func WithMaxTokens(n int) LLMExtractorOption {
	return func(e *LLMExtractor) {
		e.maxTokens = n
	}
}

// NewLLMExtractor creates a new LLMExtractor.
func NewLLMExtractor(backend LLMBackend, opts ...LLMExtractorOption) *LLMExtractor {
	e := &LLMExtractor{
		backend:     backend,
		temperature: 0.1,
		maxTokens:   1024,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract pulls raw vehicle attributes from a listing page via the LLM.
func (e *LLMExtractor) Extract(ctx context.Context, page Page) (*domain.RawListing, error) {
	prompt, err := RenderExtractPrompt(page)
	if err != nil {
		return nil, err
	}

	resp, err := e.backend.Generate(ctx, GenerateRequest{
		Prompt:      prompt,
		SystemMsg:   extractSystemMsg,
		Format:      FormatJSON,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("calling LLM for extraction: %w", err)
	}

	var attrs map[string]any
	if err := json.Unmarshal([]byte(resp.Content), &attrs); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON response: %w", err)
	}

	return listingFromAttrs(attrs), nil
}

// EnrichFromPhotos fills attribute gaps in raw from listing photos via a
// vision call. Only blank attributes are filled; photo-derived values never
// override what the listing text stated. Condition notes append to the
// description so the pollution scan sees them too.
func (e *LLMExtractor) EnrichFromPhotos(ctx context.Context, raw *domain.RawListing, photos []ImageAttachment) error {
	if len(photos) == 0 {
		return nil
	}

	resp, err := e.backend.Generate(ctx, GenerateRequest{
		Prompt:      photoPrompt,
		SystemMsg:   photoSystemMsg,
		Format:      FormatJSON,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Images:      photos,
	})
	if err != nil {
		return fmt.Errorf("calling LLM for photo enrichment: %w", err)
	}

	var attrs map[string]any
	if err := json.Unmarshal([]byte(resp.Content), &attrs); err != nil {
		return fmt.Errorf("parsing photo enrichment response: %w", err)
	}

	if raw.Color == "" {
		raw.Color = asString(attrs["color"])
	}
	if notes := asString(attrs["condition_notes"]); notes != "" {
		if raw.Description == "" {
			raw.Description = notes
		} else {
			raw.Description += "\n" + notes
		}
	}
	return nil
}

// listingFromAttrs converts the untyped LLM payload into a RawListing.
// Models occasionally emit numbers for year/price/mileage despite the
// string schema; those coerce rather than fail.
func listingFromAttrs(attrs map[string]any) *domain.RawListing {
	l := &domain.RawListing{
		VIN:          asString(attrs["vin"]),
		Year:         asString(attrs["year"]),
		Make:         asString(attrs["make"]),
		Model:        asString(attrs["model"]),
		Trim:         asString(attrs["trim"]),
		Price:        asString(attrs["price"]),
		Mileage:      asString(attrs["mileage"]),
		Engine:       asString(attrs["engine"]),
		Transmission: asString(attrs["transmission"]),
		Color:        asString(attrs["color"]),
		Description:  asString(attrs["description"]),
	}

	if urls, ok := attrs["image_urls"].([]any); ok {
		for _, u := range urls {
			if s := asString(u); s != "" {
				l.ImageURLs = append(l.ImageURLs, s)
			}
		}
	}

	if raw := asString(attrs["auction_end"]); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			utc := t.UTC()
			l.AuctionEndAt = &utc
		}
	}

	return l
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
