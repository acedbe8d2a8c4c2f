package client

import (
	"context"
	"fmt"
	"strconv"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// ListReviewQueue returns pending review items, oldest first.
func (c *Client) ListReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error) {
	path := "/api/v1/review-queue"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Items []domain.ReviewItem `json:"items"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ResolveReview marks a review item as handled.
func (c *Client) ResolveReview(ctx context.Context, id string) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/review-queue/%s/resolve", id), nil, nil)
}
