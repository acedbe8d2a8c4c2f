package client

import (
	"context"
	"fmt"
	"strconv"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// AuditVehicle re-checks one vehicle against its source and returns the report.
func (c *Client) AuditVehicle(ctx context.Context, vehicleID string) (*domain.AuditReport, error) {
	var report domain.AuditReport
	if err := c.post(ctx, fmt.Sprintf("/api/v1/vehicles/%s/audit", vehicleID), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports returns recent audit reports, newest first.
func (c *Client) ListReports(ctx context.Context, limit int) ([]domain.AuditReport, error) {
	path := "/api/v1/reports"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Reports []domain.AuditReport `json:"reports"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Reports, nil
}
