// Package store defines the datastore abstraction for vindex. All business
// logic depends on the Store interface, never on concrete implementations,
// so the pipeline can be tested against the in-memory store without a
// running database.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// ErrNotFound is returned by Get-style lookups for missing rows. Find-style
// lookups return nil instead; absence there is a normal outcome, not an
// error.
var ErrNotFound = errors.New("not found")

// VehicleQuery defines optional filters for vehicle listing queries.
type VehicleQuery struct {
	Make    *string
	Model   *string
	YearMin *int
	YearMax *int
	HasVIN  *bool
	Limit   int // default 50
	Offset  int
	OrderBy string // "created_at", "year", "updated_at"
}

// Store defines all data access operations for vindex.
type Store interface {
	// Vehicles
	FindVehicleByVIN(ctx context.Context, vin string) (*domain.Vehicle, error)
	FindVehiclesByYMM(ctx context.Context, year int, mk, model string) ([]domain.Vehicle, error)
	CreateVehicle(ctx context.Context, v *domain.Vehicle) error
	UpdateVehicle(ctx context.Context, v *domain.Vehicle) error
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, opts *VehicleQuery) ([]domain.Vehicle, int, error)

	// Observations (append-only)
	AppendObservation(ctx context.Context, o *domain.Observation) error
	ListObservations(ctx context.Context, vehicleID string, limit int) ([]domain.Observation, error)
	LatestObservation(ctx context.Context, vehicleID string) (*domain.Observation, error)

	// Timeline events
	InsertTimelineEvent(ctx context.Context, e *domain.TimelineEvent) error
	ListTimelineEvents(ctx context.Context, vehicleID string) ([]domain.TimelineEvent, error)

	// Audit reports
	InsertAuditReport(ctx context.Context, r *domain.AuditReport) error
	ListAuditReports(ctx context.Context, limit int) ([]domain.AuditReport, error)
	ListAuditCandidates(ctx context.Context, limit int) ([]domain.Vehicle, error)

	// Review queue
	EnqueueReview(ctx context.Context, item *domain.ReviewItem) error
	ListReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error)
	ResolveReview(ctx context.Context, id string) error

	// Scheduler
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	CompleteJobRun(ctx context.Context, id string, status string, errText string, rowsAffected int) error
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	AcquireSchedulerLock(ctx context.Context, jobName string, holder string, ttl time.Duration) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error

	// State
	GetSystemState(ctx context.Context) (*domain.SystemState, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
