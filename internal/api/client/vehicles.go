package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// VehiclesResponse wraps a paginated vehicles response.
type VehiclesResponse struct {
	Vehicles []domain.Vehicle `json:"vehicles"`
	Total    int              `json:"total"`
}

// ListVehiclesParams defines query parameters for vehicle queries.
type ListVehiclesParams struct {
	Make    string
	Model   string
	YearMin int
	YearMax int
	HasVIN  bool
	Limit   int
	Offset  int
	OrderBy string
}

// ListVehicles returns vehicles matching the given parameters.
func (c *Client) ListVehicles(
	ctx context.Context,
	params *ListVehiclesParams,
) (*VehiclesResponse, error) {
	q := url.Values{}
	if params.Make != "" {
		q.Set("make", params.Make)
	}
	if params.Model != "" {
		q.Set("model", params.Model)
	}
	if params.YearMin > 0 {
		q.Set("year_min", strconv.Itoa(params.YearMin))
	}
	if params.YearMax > 0 {
		q.Set("year_max", strconv.Itoa(params.YearMax))
	}
	if params.HasVIN {
		q.Set("has_vin", "true")
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.OrderBy != "" {
		q.Set("order_by", params.OrderBy)
	}

	path := "/api/v1/vehicles"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp VehiclesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetVehicle returns a single vehicle by ID.
func (c *Client) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := c.get(ctx, fmt.Sprintf("/api/v1/vehicles/%s", id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListObservations returns a vehicle's observation history, newest first.
func (c *Client) ListObservations(ctx context.Context, vehicleID string, limit int) ([]domain.Observation, error) {
	path := fmt.Sprintf("/api/v1/vehicles/%s/observations", vehicleID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Observations []domain.Observation `json:"observations"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Observations, nil
}

// ListTimeline returns a vehicle's event timeline, oldest first.
func (c *Client) ListTimeline(ctx context.Context, vehicleID string) ([]domain.TimelineEvent, error) {
	var resp struct {
		Events []domain.TimelineEvent `json:"events"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v1/vehicles/%s/timeline", vehicleID), &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}
