package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/vindexhq/vindex/pkg/types"
)

// MemoryStore is an in-memory Store used by tests and by the mock server.
// It mirrors PostgresStore semantics closely enough for pipeline and
// handler tests: VIN uniqueness, case-insensitive lookups, timeline event
// dedup, and ErrNotFound on Get-style misses.
type MemoryStore struct {
	mu sync.RWMutex

	seq          int
	vehicles     map[string]*domain.Vehicle
	observations []domain.Observation
	timeline     []domain.TimelineEvent
	audits       []domain.AuditReport
	reviews      []domain.ReviewItem
	jobRuns      []domain.JobRun
	locks        map[string]memoryLock
}

type memoryLock struct {
	holder    string
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: map[string]*domain.Vehicle{},
		locks:    map[string]memoryLock{},
	}
}

func (s *MemoryStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *MemoryStore) FindVehicleByVIN(_ context.Context, vin string) (*domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.vehicles {
		if v.VIN != "" && strings.EqualFold(v.VIN, vin) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindVehiclesByYMM(_ context.Context, year int, mk, model string) ([]domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Vehicle
	for _, v := range s.vehicles {
		if v.Year == year && strings.EqualFold(v.Make, mk) && strings.EqualFold(v.Model, model) {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateVehicle(_ context.Context, v *domain.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// VIN uniqueness collapses concurrent creates, matching the database
	// ON CONFLICT behavior.
	if v.VIN != "" {
		for _, existing := range s.vehicles {
			if strings.EqualFold(existing.VIN, v.VIN) {
				v.ID = existing.ID
				v.CreatedAt = existing.CreatedAt
				existing.UpdatedAt = time.Now()
				v.UpdatedAt = existing.UpdatedAt
				return nil
			}
		}
	}

	v.ID = s.nextID("veh")
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	s.vehicles[v.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateVehicle(_ context.Context, v *domain.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.vehicles[v.ID]
	if !ok {
		return ErrNotFound
	}
	cp := *v
	cp.VIN = existing.VIN
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	s.vehicles[v.ID] = &cp
	v.UpdatedAt = cp.UpdatedAt
	return nil
}

func (s *MemoryStore) GetVehicle(_ context.Context, id string) (*domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryStore) ListVehicles(_ context.Context, opts *VehicleQuery) ([]domain.Vehicle, int, error) {
	if opts == nil {
		opts = &VehicleQuery{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Vehicle
	for _, v := range s.vehicles {
		if opts.Make != nil && !strings.EqualFold(v.Make, *opts.Make) {
			continue
		}
		if opts.Model != nil && !strings.EqualFold(v.Model, *opts.Model) {
			continue
		}
		if opts.YearMin != nil && v.Year < *opts.YearMin {
			continue
		}
		if opts.YearMax != nil && v.Year > *opts.YearMax {
			continue
		}
		if opts.HasVIN != nil && (v.VIN != "") != *opts.HasVIN {
			continue
		}
		matched = append(matched, *v)
	}

	switch opts.OrderBy {
	case orderByYear:
		sort.Slice(matched, func(i, j int) bool { return matched[i].Year < matched[j].Year })
	case orderByUpdated:
		sort.Slice(matched, func(i, j int) bool { return matched[i].UpdatedAt.After(matched[j].UpdatedAt) })
	default:
		sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	}

	total := len(matched)

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *MemoryStore) AppendObservation(_ context.Context, o *domain.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.nextID("obs")
	o.CreatedAt = time.Now()
	s.observations = append(s.observations, *o)
	return nil
}

func (s *MemoryStore) ListObservations(_ context.Context, vehicleID string, limit int) ([]domain.Observation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Observation
	for _, o := range s.observations {
		if o.VehicleID == vehicleID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) LatestObservation(ctx context.Context, vehicleID string) (*domain.Observation, error) {
	obs, err := s.ListObservations(ctx, vehicleID, 1)
	if err != nil || len(obs) == 0 {
		return nil, err
	}
	return &obs[0], nil
}

func (s *MemoryStore) InsertTimelineEvent(_ context.Context, e *domain.TimelineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.timeline {
		if existing.VehicleID == e.VehicleID && existing.Kind == e.Kind && existing.OccurredAt.Equal(e.OccurredAt) {
			return nil
		}
	}
	e.ID = s.nextID("evt")
	e.CreatedAt = time.Now()
	s.timeline = append(s.timeline, *e)
	return nil
}

func (s *MemoryStore) ListTimelineEvents(_ context.Context, vehicleID string) ([]domain.TimelineEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TimelineEvent
	for _, e := range s.timeline {
		if e.VehicleID == vehicleID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (s *MemoryStore) InsertAuditReport(_ context.Context, r *domain.AuditReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID("aud")
	r.CreatedAt = time.Now()
	s.audits = append(s.audits, *r)
	return nil
}

func (s *MemoryStore) ListAuditReports(_ context.Context, limit int) ([]domain.AuditReport, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditReport, len(s.audits))
	copy(out, s.audits)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListAuditCandidates(_ context.Context, limit int) ([]domain.Vehicle, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lastAudit := map[string]time.Time{}
	for _, a := range s.audits {
		if a.CreatedAt.After(lastAudit[a.VehicleID]) {
			lastAudit[a.VehicleID] = a.CreatedAt
		}
	}

	observed := map[string]bool{}
	for _, o := range s.observations {
		observed[o.VehicleID] = true
	}

	var out []domain.Vehicle
	for id, v := range s.vehicles {
		if observed[id] {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lastAudit[out[i].ID].Before(lastAudit[out[j].ID])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) EnqueueReview(_ context.Context, item *domain.ReviewItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = s.nextID("rev")
	item.CreatedAt = time.Now()
	s.reviews = append(s.reviews, *item)
	return nil
}

func (s *MemoryStore) ListReviewQueue(_ context.Context, limit int) ([]domain.ReviewItem, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ReviewItem
	for _, item := range s.reviews {
		if !item.Resolved {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ResolveReview(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.reviews {
		if s.reviews[i].ID == id && !s.reviews[i].Resolved {
			now := time.Now()
			s.reviews[i].Resolved = true
			s.reviews[i].ResolvedAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) InsertJobRun(_ context.Context, jobName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID("job")
	s.jobRuns = append(s.jobRuns, domain.JobRun{
		ID:        id,
		JobName:   jobName,
		StartedAt: time.Now(),
		Status:    "running",
	})
	return id, nil
}

func (s *MemoryStore) CompleteJobRun(_ context.Context, id, status, errText string, rowsAffected int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.jobRuns {
		if s.jobRuns[i].ID == id {
			now := time.Now()
			s.jobRuns[i].CompletedAt = &now
			s.jobRuns[i].Status = status
			s.jobRuns[i].ErrorText = errText
			s.jobRuns[i].RowsAffected = &rowsAffected
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListJobRuns(_ context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.JobRun
	for _, r := range s.jobRuns {
		if r.JobName == jobName {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) AcquireSchedulerLock(_ context.Context, jobName, holder string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	lock, held := s.locks[jobName]
	if held && lock.expiresAt.After(now) && lock.holder != holder {
		return false, nil
	}
	s.locks[jobName] = memoryLock{holder: holder, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) ReleaseSchedulerLock(_ context.Context, jobName, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lock, held := s.locks[jobName]; held && lock.holder == holder {
		delete(s.locks, jobName)
	}
	return nil
}

func (s *MemoryStore) GetSystemState(_ context.Context) (*domain.SystemState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &domain.SystemState{
		VehiclesTotal:       len(s.vehicles),
		ObservationsTotal:   len(s.observations),
		AuditReportsTotal:   len(s.audits),
		TimelineEventsTotal: len(s.timeline),
	}
	for _, v := range s.vehicles {
		if v.VIN != "" {
			st.VehiclesWithVIN++
		}
	}
	for _, item := range s.reviews {
		if !item.Resolved {
			st.ReviewQueueDepth++
		}
	}
	for _, a := range s.audits {
		if a.Critical {
			st.CriticalAuditsTotal++
		}
	}
	return st, nil
}

// Migrate is a no-op; the in-memory store has no schema.
func (s *MemoryStore) Migrate(context.Context) error { return nil }

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }
