// Package extract provides LLM-based attribute extraction for vehicle
// listings, abstracted behind interfaces for testability.
package extract

import (
	"context"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// FormatJSON is the format string for requesting JSON mode from LLM backends.
const FormatJSON = "json"

// ImageAttachment is one listing photo handed to a vision-capable backend.
type ImageAttachment struct {
	// MediaType is the MIME type, e.g. "image/jpeg".
	MediaType string
	Data      []byte
}

// GenerateRequest defines the input for an LLM generation call. When Images
// is non-empty the backend sends them alongside the prompt as vision input.
type GenerateRequest struct {
	Prompt      string
	SystemMsg   string
	Format      string // FormatJSON for JSON mode
	Temperature float64
	MaxTokens   int
	Images      []ImageAttachment
}

// TokenUsage tracks LLM token consumption.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerateResponse holds the result of an LLM generation call.
type GenerateResponse struct {
	Content string
	Model   string
	Usage   TokenUsage
}

// LLMBackend defines the interface for LLM text generation. All bundled
// backends accept image attachments; text-only models simply ignore them
// server-side.
type LLMBackend interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// Page is the listing content handed to an extractor: the page title and
// the visible text of the listing body.
type Page struct {
	Title string
	Body  string
}

// Extractor pulls untyped vehicle attributes out of a listing page.
// Output is a RawListing with every attribute string-typed as it appeared
// in the source; validation and scoring happen downstream.
type Extractor interface {
	Extract(ctx context.Context, page Page) (*domain.RawListing, error)
}

// PhotoEnricher fills attribute gaps in a raw listing from its photos.
type PhotoEnricher interface {
	EnrichFromPhotos(ctx context.Context, raw *domain.RawListing, photos []ImageAttachment) error
}
