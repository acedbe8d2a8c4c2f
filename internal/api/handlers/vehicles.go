package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vindexhq/vindex/internal/store"
	domain "github.com/vindexhq/vindex/pkg/types"
)

// VehiclesHandler handles vehicle query endpoints.
type VehiclesHandler struct {
	store store.Store
}

// NewVehiclesHandler creates a new VehiclesHandler.
func NewVehiclesHandler(s store.Store) *VehiclesHandler {
	return &VehiclesHandler{store: s}
}

// --- Input/Output types ---

// ListVehiclesInput is the input for listing vehicles with optional filters.
type ListVehiclesInput struct {
	Make    string `query:"make"     doc:"Filter by make (case-insensitive)"`
	Model   string `query:"model"    doc:"Filter by model (case-insensitive)"`
	YearMin int    `query:"year_min" doc:"Minimum model year"                  minimum:"1900"`
	YearMax int    `query:"year_max" doc:"Maximum model year"                  minimum:"1900"`
	HasVIN  bool   `query:"has_vin"  doc:"Only vehicles with a known VIN"`
	Limit   int    `query:"limit"    doc:"Number of results (default 50)"      minimum:"1" maximum:"500"`
	Offset  int    `query:"offset"   doc:"Pagination offset"                   minimum:"0"`
	OrderBy string `query:"order_by" doc:"Sort field"                          enum:"created_at,updated_at,year,"`
}

// ListVehiclesOutput is the response for listing vehicles.
type ListVehiclesOutput struct {
	Body struct {
		Vehicles []domain.Vehicle `json:"vehicles"`
		Total    int              `json:"total"`
		Limit    int              `json:"limit"`
		Offset   int              `json:"offset"`
	}
}

// GetVehicleInput is the input for getting a single vehicle.
type GetVehicleInput struct {
	ID string `path:"id" doc:"Vehicle UUID"`
}

// GetVehicleOutput is the response for getting a single vehicle.
type GetVehicleOutput struct {
	Body domain.Vehicle
}

// ListObservationsInput is the input for a vehicle's observation history.
type ListObservationsInput struct {
	ID    string `path:"id"     doc:"Vehicle UUID"`
	Limit int    `query:"limit" doc:"Number of results (default 50)" minimum:"1" maximum:"500"`
}

// ListObservationsOutput is the response for a vehicle's observation history.
type ListObservationsOutput struct {
	Body struct {
		Observations []domain.Observation `json:"observations"`
	}
}

// ListTimelineInput is the input for a vehicle's event timeline.
type ListTimelineInput struct {
	ID string `path:"id" doc:"Vehicle UUID"`
}

// ListTimelineOutput is the response for a vehicle's event timeline.
type ListTimelineOutput struct {
	Body struct {
		Events []domain.TimelineEvent `json:"events"`
	}
}

// --- Handlers ---

// ListVehicles returns vehicles with optional filters for make, model, year
// range, and pagination.
func (h *VehiclesHandler) ListVehicles(
	ctx context.Context,
	input *ListVehiclesInput,
) (*ListVehiclesOutput, error) {
	q := &store.VehicleQuery{
		Offset:  input.Offset,
		OrderBy: input.OrderBy,
	}

	if input.Make != "" {
		q.Make = &input.Make
	}

	if input.Model != "" {
		q.Model = &input.Model
	}

	if input.YearMin != 0 {
		q.YearMin = &input.YearMin
	}

	if input.YearMax != 0 {
		q.YearMax = &input.YearMax
	}

	if input.HasVIN {
		q.HasVIN = &input.HasVIN
	}

	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	vehicles, total, err := h.store.ListVehicles(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("vehicle query failed: " + err.Error())
	}

	resp := &ListVehiclesOutput{}
	resp.Body.Vehicles = vehicles
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset

	return resp, nil
}

// GetVehicle returns a single vehicle by ID.
func (h *VehiclesHandler) GetVehicle(
	ctx context.Context,
	input *GetVehicleInput,
) (*GetVehicleOutput, error) {
	v, err := h.store.GetVehicle(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("vehicle not found")
		}
		return nil, huma.Error500InternalServerError("vehicle lookup failed: " + err.Error())
	}

	return &GetVehicleOutput{Body: *v}, nil
}

// ListObservations returns a vehicle's observation history, newest first.
func (h *VehiclesHandler) ListObservations(
	ctx context.Context,
	input *ListObservationsInput,
) (*ListObservationsOutput, error) {
	if _, err := h.store.GetVehicle(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("vehicle not found")
		}
		return nil, huma.Error500InternalServerError("vehicle lookup failed: " + err.Error())
	}

	limit := input.Limit
	if limit == 0 {
		limit = 50
	}

	obs, err := h.store.ListObservations(ctx, input.ID, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("observation query failed: " + err.Error())
	}
	if obs == nil {
		obs = []domain.Observation{}
	}

	resp := &ListObservationsOutput{}
	resp.Body.Observations = obs
	return resp, nil
}

// ListTimeline returns a vehicle's event timeline, oldest first.
func (h *VehiclesHandler) ListTimeline(
	ctx context.Context,
	input *ListTimelineInput,
) (*ListTimelineOutput, error) {
	if _, err := h.store.GetVehicle(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("vehicle not found")
		}
		return nil, huma.Error500InternalServerError("vehicle lookup failed: " + err.Error())
	}

	events, err := h.store.ListTimelineEvents(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("timeline query failed: " + err.Error())
	}
	if events == nil {
		events = []domain.TimelineEvent{}
	}

	resp := &ListTimelineOutput{}
	resp.Body.Events = events
	return resp, nil
}

// RegisterVehicleRoutes registers vehicle endpoints with the Huma API.
func RegisterVehicleRoutes(api huma.API, h *VehiclesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-vehicles",
		Method:      http.MethodGet,
		Path:        "/api/v1/vehicles",
		Summary:     "List vehicles",
		Description: "Returns vehicles with optional filters for make, model, year range, and pagination.",
		Tags:        []string{"vehicles"},
	}, h.ListVehicles)

	huma.Register(api, huma.Operation{
		OperationID: "get-vehicle",
		Method:      http.MethodGet,
		Path:        "/api/v1/vehicles/{id}",
		Summary:     "Get a vehicle by ID",
		Description: "Returns a single vehicle by its UUID.",
		Tags:        []string{"vehicles"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetVehicle)

	huma.Register(api, huma.Operation{
		OperationID: "list-vehicle-observations",
		Method:      http.MethodGet,
		Path:        "/api/v1/vehicles/{id}/observations",
		Summary:     "List a vehicle's observations",
		Description: "Returns the append-only observation history for a vehicle, newest first.",
		Tags:        []string{"vehicles"},
		Errors:      []int{http.StatusNotFound},
	}, h.ListObservations)

	huma.Register(api, huma.Operation{
		OperationID: "list-vehicle-timeline",
		Method:      http.MethodGet,
		Path:        "/api/v1/vehicles/{id}/timeline",
		Summary:     "List a vehicle's timeline events",
		Description: "Returns the deduplicated event timeline for a vehicle, oldest first.",
		Tags:        []string{"vehicles"},
		Errors:      []int{http.StatusNotFound},
	}, h.ListTimeline)
}
