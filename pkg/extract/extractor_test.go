package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/pkg/extract"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// stubBackend is a canned-response LLMBackend for extractor tests.
type stubBackend struct {
	content string
	err     error
	lastReq extract.GenerateRequest
}

func (s *stubBackend) Generate(_ context.Context, req extract.GenerateRequest) (extract.GenerateResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return extract.GenerateResponse{}, s.err
	}
	return extract.GenerateResponse{Content: s.content, Model: "stub"}, nil
}

func (*stubBackend) Name() string { return "stub" }

func TestLLMExtractor_Extract(t *testing.T) {
	t.Parallel()

	page := extract.Page{
		Title: "1969 Chevrolet Camaro SS for sale",
		Body:  "VIN 124379N664466, 72,450 miles, asking $45,000. 396 V8, 4-speed manual.",
	}

	t.Run("parses full payload", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{content: `{
			"vin": "124379N664466",
			"year": "1969",
			"make": "Chevrolet",
			"model": "Camaro",
			"trim": "SS",
			"price": "$45,000",
			"mileage": "72,450 miles",
			"engine": "396 V8",
			"transmission": "4-speed manual",
			"color": null,
			"description": "Numbers matching big block.",
			"image_urls": ["https://img.example/1.jpg", "https://img.example/2.jpg"],
			"auction_end": "2024-06-15T18:00:00Z"
		}`}

		e := extract.NewLLMExtractor(backend)
		got, err := e.Extract(context.Background(), page)
		require.NoError(t, err)

		assert.Equal(t, "124379N664466", got.VIN)
		assert.Equal(t, "1969", got.Year)
		assert.Equal(t, "Chevrolet", got.Make)
		assert.Equal(t, "Camaro", got.Model)
		assert.Equal(t, "$45,000", got.Price)
		assert.Equal(t, "72,450 miles", got.Mileage)
		assert.Empty(t, got.Color, "null maps to empty string")
		assert.Len(t, got.ImageURLs, 2)
		require.NotNil(t, got.AuctionEndAt)
		assert.Equal(t, 2024, got.AuctionEndAt.Year())

		// JSON mode is requested with the transcription system message.
		assert.Equal(t, extract.FormatJSON, backend.lastReq.Format)
		assert.NotEmpty(t, backend.lastReq.SystemMsg)
		assert.Contains(t, backend.lastReq.Prompt, page.Title)
	})

	t.Run("numeric year coerces to string", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{content: `{"year": 1969, "make": "Chevrolet", "price": 45000.5}`}
		e := extract.NewLLMExtractor(backend)

		got, err := e.Extract(context.Background(), page)
		require.NoError(t, err)
		assert.Equal(t, "1969", got.Year)
		assert.Equal(t, "45000.5", got.Price)
	})

	t.Run("invalid auction end is dropped", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{content: `{"year": "1969", "auction_end": "next Tuesday"}`}
		e := extract.NewLLMExtractor(backend)

		got, err := e.Extract(context.Background(), page)
		require.NoError(t, err)
		assert.Nil(t, got.AuctionEndAt)
	})

	t.Run("non-JSON response is an error", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{content: "Sure! Here are the attributes:"}
		e := extract.NewLLMExtractor(backend)

		_, err := e.Extract(context.Background(), page)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing LLM JSON response")
	})

	t.Run("backend error propagates", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{err: errors.New("timeout")}
		e := extract.NewLLMExtractor(backend)

		_, err := e.Extract(context.Background(), page)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "calling LLM for extraction")
	})
}

func TestLLMExtractor_EnrichFromPhotos(t *testing.T) {
	t.Parallel()

	photos := []extract.ImageAttachment{
		{MediaType: "image/jpeg", Data: []byte("front-quarter")},
	}

	t.Run("fills blank attributes only", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{content: `{
			"color": "rally red",
			"body_style": "coupe",
			"condition_notes": "surface rust on rear quarter"
		}`}
		e := extract.NewLLMExtractor(backend)

		raw := &domain.RawListing{Description: "Numbers matching big block."}
		require.NoError(t, e.EnrichFromPhotos(context.Background(), raw, photos))

		assert.Equal(t, "rally red", raw.Color)
		assert.Contains(t, raw.Description, "Numbers matching big block.")
		assert.Contains(t, raw.Description, "surface rust on rear quarter")

		// Photos go to the backend as vision input.
		require.Len(t, backend.lastReq.Images, 1)
		assert.Equal(t, "image/jpeg", backend.lastReq.Images[0].MediaType)
	})

	t.Run("listed color is never overridden", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{content: `{"color": "red"}`}
		e := extract.NewLLMExtractor(backend)

		raw := &domain.RawListing{Color: "Hugger Orange"}
		require.NoError(t, e.EnrichFromPhotos(context.Background(), raw, photos))
		assert.Equal(t, "Hugger Orange", raw.Color)
	})

	t.Run("no photos is a no-op", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{err: errors.New("should not be called")}
		e := extract.NewLLMExtractor(backend)

		raw := &domain.RawListing{}
		require.NoError(t, e.EnrichFromPhotos(context.Background(), raw, nil))
	})

	t.Run("backend error propagates", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{err: errors.New("timeout")}
		e := extract.NewLLMExtractor(backend)

		raw := &domain.RawListing{}
		err := e.EnrichFromPhotos(context.Background(), raw, photos)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "photo enrichment")
	})
}
