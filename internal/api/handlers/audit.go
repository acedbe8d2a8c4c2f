package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vindexhq/vindex/internal/store"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// Auditor re-checks one vehicle against its newest source listing.
type Auditor interface {
	AuditVehicle(ctx context.Context, v *domain.Vehicle) (*domain.AuditReport, error)
}

// AuditHandler handles audit trigger and report endpoints.
type AuditHandler struct {
	store   store.Store
	auditor Auditor
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(s store.Store, a Auditor) *AuditHandler {
	return &AuditHandler{store: s, auditor: a}
}

// AuditVehicleInput is the request for auditing a single vehicle.
type AuditVehicleInput struct {
	ID string `path:"id" doc:"Vehicle UUID"`
}

// AuditVehicleOutput is the response for auditing a single vehicle.
type AuditVehicleOutput struct {
	Body domain.AuditReport
}

// ListReportsInput is the input for listing recent audit reports.
type ListReportsInput struct {
	Limit int `query:"limit" doc:"Number of results (default 50)" minimum:"1" maximum:"500"`
}

// ListReportsOutput is the response for listing recent audit reports.
type ListReportsOutput struct {
	Body struct {
		Reports []domain.AuditReport `json:"reports"`
	}
}

// AuditVehicle re-fetches a vehicle's newest source listing and compares it
// against the canonical record.
func (h *AuditHandler) AuditVehicle(
	ctx context.Context,
	input *AuditVehicleInput,
) (*AuditVehicleOutput, error) {
	v, err := h.store.GetVehicle(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("vehicle not found")
		}
		return nil, huma.Error500InternalServerError("vehicle lookup failed: " + err.Error())
	}

	report, err := h.auditor.AuditVehicle(ctx, v)
	if err != nil {
		return nil, huma.Error500InternalServerError("audit failed: " + err.Error())
	}

	return &AuditVehicleOutput{Body: *report}, nil
}

// ListReports returns recent audit reports, newest first.
func (h *AuditHandler) ListReports(
	ctx context.Context,
	input *ListReportsInput,
) (*ListReportsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 50
	}

	reports, err := h.store.ListAuditReports(ctx, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("report query failed: " + err.Error())
	}
	if reports == nil {
		reports = []domain.AuditReport{}
	}

	resp := &ListReportsOutput{}
	resp.Body.Reports = reports
	return resp, nil
}

// RegisterAuditRoutes registers audit endpoints with the Huma API.
func RegisterAuditRoutes(api huma.API, h *AuditHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "audit-vehicle",
		Method:      http.MethodPost,
		Path:        "/api/v1/vehicles/{id}/audit",
		Summary:     "Audit a vehicle against its source",
		Description: "Re-fetches the vehicle's newest source listing, re-extracts it, and " +
			"compares the result field by field against the canonical record.",
		Tags:   []string{"audit"},
		Errors: []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.AuditVehicle)

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-reports",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports",
		Summary:     "List audit reports",
		Description: "Returns recent audit reports, newest first.",
		Tags:        []string{"audit"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListReports)
}
