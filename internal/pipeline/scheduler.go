package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job names recorded in the job_runs table.
const (
	JobSourceSync = "source_sync"
	JobAudit      = "audit"
)

// lockTTL bounds how long a crashed node can hold a job lock.
const lockTTL = 30 * time.Minute

// Scheduler runs the sync and audit cycles periodically. Each run takes a
// database lock first so multiple nodes sharing one database do not run
// the same job concurrently, and records a job_runs row either way.
type Scheduler struct {
	cron       *cron.Cron
	pipeline   *Pipeline
	holder     string
	auditBatch int
	log        *slog.Logger
}

// NewScheduler creates a Scheduler that runs pipeline tasks on a schedule.
func NewScheduler(
	p *Pipeline,
	syncInterval time.Duration,
	auditInterval time.Duration,
	auditBatch int,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:       c,
		pipeline:   p,
		holder:     uuid.NewString(),
		auditBatch: auditBatch,
		log:        log,
	}

	if _, err := c.AddFunc(
		"@every "+syncInterval.String(),
		s.runSourceSync,
	); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(
		"@every "+auditInterval.String(),
		s.runAudit,
	); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "holder", s.holder)
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runSourceSync() {
	s.runLocked(JobSourceSync, func(ctx context.Context) (int, error) {
		return s.pipeline.RunSourceSync(ctx)
	})
}

func (s *Scheduler) runAudit() {
	s.runLocked(JobAudit, func(ctx context.Context) (int, error) {
		return s.pipeline.RunAudit(ctx, s.auditBatch)
	})
}

// runLocked wraps one job execution with lock acquisition and job-run
// bookkeeping.
func (s *Scheduler) runLocked(job string, fn func(ctx context.Context) (int, error)) {
	ctx := context.Background()

	got, err := s.pipeline.store.AcquireSchedulerLock(ctx, job, s.holder, lockTTL)
	if err != nil {
		s.log.Error("acquiring scheduler lock failed", "job", job, "error", err)
		return
	}
	if !got {
		s.log.Debug("job lock held elsewhere, skipping", "job", job)
		return
	}
	defer func() {
		if err := s.pipeline.store.ReleaseSchedulerLock(ctx, job, s.holder); err != nil {
			s.log.Error("releasing scheduler lock failed", "job", job, "error", err)
		}
	}()

	runID, err := s.pipeline.store.InsertJobRun(ctx, job)
	if err != nil {
		s.log.Error("recording job run failed", "job", job, "error", err)
		return
	}

	s.log.Info("scheduled job starting", "job", job, "run_id", runID)

	rows, runErr := fn(ctx)
	status, errText := "ok", ""
	if runErr != nil {
		status, errText = "failed", runErr.Error()
		s.log.Error("scheduled job failed", "job", job, "error", runErr)
	}

	if err := s.pipeline.store.CompleteJobRun(ctx, runID, status, errText, rows); err != nil {
		s.log.Error("completing job run failed", "job", job, "error", err)
	}
}
