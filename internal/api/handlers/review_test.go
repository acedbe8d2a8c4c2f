package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/internal/api/handlers"
	"github.com/vindexhq/vindex/internal/store"
	domain "github.com/vindexhq/vindex/pkg/types"
)

func TestReviewQueueLifecycle(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	h := handlers.NewReviewHandler(s)

	// Empty queue returns an empty list, not null.
	out, err := h.ListReviewQueue(context.Background(), &handlers.ListReviewQueueInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Body.Items)
	assert.Empty(t, out.Body.Items)

	item := &domain.ReviewItem{
		SourceURL: "https://joes-classics.example/listing/7",
		Reason:    "low_confidence",
	}
	require.NoError(t, s.EnqueueReview(context.Background(), item))

	out, err = h.ListReviewQueue(context.Background(), &handlers.ListReviewQueueInput{})
	require.NoError(t, err)
	require.Len(t, out.Body.Items, 1)
	assert.Equal(t, "low_confidence", out.Body.Items[0].Reason)

	resolved, err := h.ResolveReview(context.Background(), &handlers.ResolveReviewInput{ID: item.ID})
	require.NoError(t, err)
	assert.Equal(t, "resolved", resolved.Body.Status)

	out, err = h.ListReviewQueue(context.Background(), &handlers.ListReviewQueueInput{})
	require.NoError(t, err)
	assert.Empty(t, out.Body.Items)

	// Resolving again is a 404.
	_, err = h.ResolveReview(context.Background(), &handlers.ResolveReviewInput{ID: item.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review item not found")
}
