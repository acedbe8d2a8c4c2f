package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/vindexhq/vindex/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// FindVehicleByVIN looks up a vehicle by VIN, returning nil when absent.
func (s *PostgresStore) FindVehicleByVIN(ctx context.Context, vin string) (*domain.Vehicle, error) {
	v, err := scanVehicle(s.pool.QueryRow(ctx, queryFindVehicleByVIN, vin))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding vehicle by vin: %w", err)
	}
	return v, nil
}

// FindVehiclesByYMM returns all vehicles sharing the exact year/make/model
// triple, compared case-insensitively.
func (s *PostgresStore) FindVehiclesByYMM(ctx context.Context, year int, mk, model string) ([]domain.Vehicle, error) {
	rows, err := s.pool.Query(ctx, queryFindVehiclesByYMM, year, mk, model)
	if err != nil {
		return nil, fmt.Errorf("finding vehicles by ymm: %w", err)
	}
	defer rows.Close()
	return scanVehicles(rows)
}

// CreateVehicle inserts a new canonical record. The VIN uniqueness
// constraint collapses concurrent creations of the same vehicle.
func (s *PostgresStore) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	args := pgx.NamedArgs{
		"vin":          v.VIN,
		"year":         v.Year,
		"make":         v.Make,
		"model":        v.Model,
		"trim_level":   v.Trim,
		"engine":       v.Engine,
		"transmission": v.Transmission,
		"color":        v.Color,
		"price":        v.Price,
		"mileage":      v.Mileage,
		"image_count":  v.ImageCount,
		"description":  v.Description,
		"source_url":   v.SourceURL,
	}

	if err := s.pool.QueryRow(ctx, queryInsertVehicle, args).Scan(
		&v.ID, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return fmt.Errorf("creating vehicle: %w", err)
	}
	return nil
}

// UpdateVehicle persists changed accepted attributes.
func (s *PostgresStore) UpdateVehicle(ctx context.Context, v *domain.Vehicle) error {
	args := pgx.NamedArgs{
		"id":           v.ID,
		"year":         v.Year,
		"make":         v.Make,
		"model":        v.Model,
		"trim_level":   v.Trim,
		"engine":       v.Engine,
		"transmission": v.Transmission,
		"color":        v.Color,
		"price":        v.Price,
		"mileage":      v.Mileage,
		"image_count":  v.ImageCount,
		"description":  v.Description,
		"source_url":   v.SourceURL,
	}

	tag, err := s.pool.Exec(ctx, queryUpdateVehicle, args)
	if err != nil {
		return fmt.Errorf("updating vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetVehicle retrieves a vehicle by ID.
func (s *PostgresStore) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	v, err := scanVehicle(s.pool.QueryRow(ctx, queryGetVehicleByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting vehicle: %w", err)
	}
	return v, nil
}

// ListVehicles returns a filtered page of vehicles plus the total count.
func (s *PostgresStore) ListVehicles(ctx context.Context, opts *VehicleQuery) ([]domain.Vehicle, int, error) {
	if opts == nil {
		opts = &VehicleQuery{}
	}
	dataSQL, countSQL, args := opts.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting vehicles: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing vehicles: %w", err)
	}
	defer rows.Close()

	vehicles, err := scanVehicles(rows)
	if err != nil {
		return nil, 0, err
	}
	return vehicles, total, nil
}

// AppendObservation stores an immutable observation row.
func (s *PostgresStore) AppendObservation(ctx context.Context, o *domain.Observation) error {
	extJSON, err := domain.MarshalExtraction(&o.Extraction)
	if err != nil {
		return fmt.Errorf("marshaling extraction: %w", err)
	}

	args := pgx.NamedArgs{
		"vehicle_id":       o.VehicleID,
		"source_url":       o.SourceURL,
		"observed_at":      o.ObservedAt,
		"extraction":       extJSON,
		"confidence_score": o.ConfidenceScore,
		"confidence_level": string(o.ConfidenceLevel),
	}

	if err := s.pool.QueryRow(ctx, queryAppendObservation, args).Scan(
		&o.ID, &o.CreatedAt,
	); err != nil {
		return fmt.Errorf("appending observation: %w", err)
	}
	return nil
}

// ListObservations returns a vehicle's observations, newest first.
func (s *PostgresStore) ListObservations(ctx context.Context, vehicleID string, limit int) ([]domain.Observation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, queryListObservations, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing observations: %w", err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// LatestObservation returns the most recent observation, or nil.
func (s *PostgresStore) LatestObservation(ctx context.Context, vehicleID string) (*domain.Observation, error) {
	o, err := scanObservation(s.pool.QueryRow(ctx, queryLatestObservation, vehicleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest observation: %w", err)
	}
	return o, nil
}

// InsertTimelineEvent stores a derived calendar entry. Duplicate events
// (same vehicle, kind, and date) are silently dropped.
func (s *PostgresStore) InsertTimelineEvent(ctx context.Context, e *domain.TimelineEvent) error {
	args := pgx.NamedArgs{
		"vehicle_id":  e.VehicleID,
		"kind":        e.Kind,
		"occurred_at": e.OccurredAt,
		"source_url":  e.SourceURL,
		"detail":      e.Detail,
	}

	err := s.pool.QueryRow(ctx, queryInsertTimelineEvent, args).Scan(&e.ID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil // conflict, already recorded
	}
	if err != nil {
		return fmt.Errorf("inserting timeline event: %w", err)
	}
	return nil
}

// ListTimelineEvents returns a vehicle's events in chronological order.
func (s *PostgresStore) ListTimelineEvents(ctx context.Context, vehicleID string) ([]domain.TimelineEvent, error) {
	rows, err := s.pool.Query(ctx, queryListTimelineEvents, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("listing timeline events: %w", err)
	}
	defer rows.Close()

	var out []domain.TimelineEvent
	for rows.Next() {
		var e domain.TimelineEvent
		if err := rows.Scan(
			&e.ID, &e.VehicleID, &e.Kind, &e.OccurredAt,
			&e.SourceURL, &e.Detail, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning timeline event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertAuditReport stores one accuracy audit result.
func (s *PostgresStore) InsertAuditReport(ctx context.Context, r *domain.AuditReport) error {
	reportJSON, err := json.Marshal(r.Report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	args := pgx.NamedArgs{
		"vehicle_id": r.VehicleID,
		"source_url": r.SourceURL,
		"report":     reportJSON,
		"accuracy":   r.Accuracy,
		"critical":   r.Critical,
	}

	if err := s.pool.QueryRow(ctx, queryInsertAuditReport, args).Scan(
		&r.ID, &r.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting audit report: %w", err)
	}
	return nil
}

// ListAuditReports returns recent audit reports, newest first.
func (s *PostgresStore) ListAuditReports(ctx context.Context, limit int) ([]domain.AuditReport, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, queryListAuditReports, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit reports: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditReport
	for rows.Next() {
		var (
			r          domain.AuditReport
			reportJSON []byte
		)
		if err := rows.Scan(
			&r.ID, &r.VehicleID, &r.SourceURL, &reportJSON,
			&r.Accuracy, &r.Critical, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit report: %w", err)
		}
		if err := json.Unmarshal(reportJSON, &r.Report); err != nil {
			return nil, fmt.Errorf("unmarshaling report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAuditCandidates returns vehicles due for an accuracy audit, least
// recently audited first.
func (s *PostgresStore) ListAuditCandidates(ctx context.Context, limit int) ([]domain.Vehicle, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, queryListAuditCandidates, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit candidates: %w", err)
	}
	defer rows.Close()
	return scanVehicles(rows)
}

// EnqueueReview parks an extraction for manual review.
func (s *PostgresStore) EnqueueReview(ctx context.Context, item *domain.ReviewItem) error {
	extJSON, err := domain.MarshalExtraction(&item.Extraction)
	if err != nil {
		return fmt.Errorf("marshaling extraction: %w", err)
	}

	args := pgx.NamedArgs{
		"source_url": item.SourceURL,
		"reason":     item.Reason,
		"extraction": extJSON,
	}

	if err := s.pool.QueryRow(ctx, queryEnqueueReview, args).Scan(
		&item.ID, &item.CreatedAt,
	); err != nil {
		return fmt.Errorf("enqueueing review: %w", err)
	}
	return nil
}

// ListReviewQueue returns unresolved review items, oldest first.
func (s *PostgresStore) ListReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, queryListReviewQueue, limit)
	if err != nil {
		return nil, fmt.Errorf("listing review queue: %w", err)
	}
	defer rows.Close()

	var out []domain.ReviewItem
	for rows.Next() {
		var (
			item    domain.ReviewItem
			extJSON []byte
		)
		if err := rows.Scan(
			&item.ID, &item.SourceURL, &item.Reason, &extJSON,
			&item.Resolved, &item.ResolvedAt, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning review item: %w", err)
		}
		if err := json.Unmarshal(extJSON, &item.Extraction); err != nil {
			return nil, fmt.Errorf("unmarshaling extraction: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ResolveReview marks a review item handled.
func (s *PostgresStore) ResolveReview(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queryResolveReview, id)
	if err != nil {
		return fmt.Errorf("resolving review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertJobRun records the start of a scheduled job.
func (s *PostgresStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertJobRun, jobName).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// CompleteJobRun finalizes a job run row.
func (s *PostgresStore) CompleteJobRun(ctx context.Context, id, status, errText string, rowsAffected int) error {
	if _, err := s.pool.Exec(ctx, queryCompleteJobRun, id, status, errText, rowsAffected); err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns recent runs of a job, newest first.
func (s *PostgresStore) ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, queryListJobRuns, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("listing job runs: %w", err)
	}
	defer rows.Close()

	var out []domain.JobRun
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(
			&r.ID, &r.JobName, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.ErrorText, &r.RowsAffected,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AcquireSchedulerLock takes (or refreshes) the named lock for holder.
func (s *PostgresStore) AcquireSchedulerLock(ctx context.Context, jobName, holder string, ttl time.Duration) (bool, error) {
	var got string
	err := s.pool.QueryRow(ctx, queryAcquireSchedulerLock, jobName, holder, ttl).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquiring scheduler lock: %w", err)
	}
	return got == holder, nil
}

// ReleaseSchedulerLock drops the named lock if held by holder.
func (s *PostgresStore) ReleaseSchedulerLock(ctx context.Context, jobName, holder string) error {
	if _, err := s.pool.Exec(ctx, queryReleaseSchedulerLock, jobName, holder); err != nil {
		return fmt.Errorf("releasing scheduler lock: %w", err)
	}
	return nil
}

// GetSystemState returns aggregate pipeline counts in a single round trip.
func (s *PostgresStore) GetSystemState(ctx context.Context) (*domain.SystemState, error) {
	st := &domain.SystemState{}
	if err := s.pool.QueryRow(ctx, queryGetSystemState).Scan(
		&st.VehiclesTotal, &st.VehiclesWithVIN, &st.ObservationsTotal,
		&st.ReviewQueueDepth, &st.AuditReportsTotal, &st.CriticalAuditsTotal,
		&st.TimelineEventsTotal,
	); err != nil {
		return nil, fmt.Errorf("getting system state: %w", err)
	}
	return st, nil
}

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	err := row.Scan(
		&v.ID, &v.VIN, &v.Year, &v.Make, &v.Model,
		&v.Trim, &v.Engine, &v.Transmission, &v.Color,
		&v.Price, &v.Mileage, &v.ImageCount, &v.Description,
		&v.SourceURL, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func scanVehicles(rows pgx.Rows) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vehicle: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func scanObservation(row pgx.Row) (*domain.Observation, error) {
	var (
		o       domain.Observation
		extJSON []byte
		level   string
	)
	if err := row.Scan(
		&o.ID, &o.VehicleID, &o.SourceURL, &o.ObservedAt, &extJSON,
		&o.ConfidenceScore, &level, &o.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(extJSON, &o.Extraction); err != nil {
		return nil, fmt.Errorf("unmarshaling extraction: %w", err)
	}
	o.ConfidenceLevel = domain.ConfidenceLevel(level)
	return &o, nil
}
