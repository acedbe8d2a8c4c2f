package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/pkg/extract"
)

func TestRenderExtractPrompt(t *testing.T) {
	t.Parallel()

	t.Run("includes title and body", func(t *testing.T) {
		t.Parallel()

		prompt, err := extract.RenderExtractPrompt(extract.Page{
			Title: "1969 Chevrolet Camaro SS",
			Body:  "VIN 124379N664466, 72,450 miles",
		})
		require.NoError(t, err)
		assert.Contains(t, prompt, "1969 Chevrolet Camaro SS")
		assert.Contains(t, prompt, "124379N664466")
		assert.Contains(t, prompt, `"vin"`)
		assert.Contains(t, prompt, `"auction_end"`)
	})

	t.Run("truncates oversized body", func(t *testing.T) {
		t.Parallel()

		prompt, err := extract.RenderExtractPrompt(extract.Page{
			Title: "listing",
			Body:  strings.Repeat("x", 50000),
		})
		require.NoError(t, err)
		assert.Less(t, len(prompt), 10000)
	})
}
