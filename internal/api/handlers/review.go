package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vindexhq/vindex/internal/store"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// ReviewHandler handles manual review queue endpoints.
type ReviewHandler struct {
	store store.Store
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(s store.Store) *ReviewHandler {
	return &ReviewHandler{store: s}
}

// ListReviewQueueInput is the input for listing pending review items.
type ListReviewQueueInput struct {
	Limit int `query:"limit" doc:"Number of results (default 50)" minimum:"1" maximum:"500"`
}

// ListReviewQueueOutput is the response for listing pending review items.
type ListReviewQueueOutput struct {
	Body struct {
		Items []domain.ReviewItem `json:"items"`
	}
}

// ResolveReviewInput is the request for resolving a review item.
type ResolveReviewInput struct {
	ID string `path:"id" doc:"Review item ID"`
}

// ResolveReviewOutput is the response for resolving a review item.
type ResolveReviewOutput struct {
	Body struct {
		Status string `json:"status" example:"resolved" doc:"Resolution status"`
	}
}

// ListReviewQueue returns pending review items, oldest first.
func (h *ReviewHandler) ListReviewQueue(
	ctx context.Context,
	input *ListReviewQueueInput,
) (*ListReviewQueueOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 50
	}

	items, err := h.store.ListReviewQueue(ctx, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("review queue query failed: " + err.Error())
	}
	if items == nil {
		items = []domain.ReviewItem{}
	}

	resp := &ListReviewQueueOutput{}
	resp.Body.Items = items
	return resp, nil
}

// ResolveReview marks a review item as handled.
func (h *ReviewHandler) ResolveReview(
	ctx context.Context,
	input *ResolveReviewInput,
) (*ResolveReviewOutput, error) {
	if err := h.store.ResolveReview(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("review item not found")
		}
		return nil, huma.Error500InternalServerError("resolving review failed: " + err.Error())
	}

	resp := &ResolveReviewOutput{}
	resp.Body.Status = "resolved"
	return resp, nil
}

// RegisterReviewRoutes registers review queue endpoints with the Huma API.
func RegisterReviewRoutes(api huma.API, h *ReviewHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-review-queue",
		Method:      http.MethodGet,
		Path:        "/api/v1/review-queue",
		Summary:     "List pending review items",
		Description: "Returns extractions parked for manual review, oldest first.",
		Tags:        []string{"review"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListReviewQueue)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-review",
		Method:      http.MethodPost,
		Path:        "/api/v1/review-queue/{id}/resolve",
		Summary:     "Resolve a review item",
		Description: "Marks a pending review item as handled. Resolving twice returns 404.",
		Tags:        []string{"review"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.ResolveReview)
}
