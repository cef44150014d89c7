// Package scheduler runs the periodic maintenance jobs: the active-version
// repair pass and the session and cache sweeps.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tobilg/widget-studio/internal/logger"
)

const (
	DefaultRepairSchedule = "@every 1m"
	DefaultSweepSchedule  = "@every 5m"

	// jobTimeout bounds a single repair pass.
	jobTimeout = 30 * time.Second
)

// Repairer fixes dashboards that do not have exactly one active version.
type Repairer interface {
	RepairAll(ctx context.Context) (int, error)
}

// Sweeper drops expired entries and reports how many were removed.
type Sweeper interface {
	Sweep() int
}

// Scheduler owns a cron instance and its registered jobs.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]cron.EntryID
	started bool
}

// New creates an empty scheduler. Schedules use the standard five-field
// syntax or descriptors such as "@every 1m".
func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// AddJob registers fn under name. Jobs that panic are recovered and logged.
func (s *Scheduler) AddJob(name, schedule string, fn func(ctx context.Context)) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", name, err)
	}

	job := func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Scheduled job panicked", "job", name, "panic", fmt.Sprint(r))
			}
		}()
		fn(context.Background())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
	}
	id, err := s.cron.AddFunc(schedule, job)
	if err != nil {
		return fmt.Errorf("registering %s: %w", name, err)
	}
	s.entries[name] = id
	logger.Debug("Scheduled job registered", "job", name, "schedule", schedule)
	return nil
}

// AddRepair schedules the active-version repair pass.
func (s *Scheduler) AddRepair(schedule string, r Repairer) error {
	if schedule == "" {
		schedule = DefaultRepairSchedule
	}
	return s.AddJob("repair", schedule, RepairJob(r))
}

// AddSweep schedules a sweep of the named store.
func (s *Scheduler) AddSweep(name, schedule string, sw Sweeper) error {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return s.AddJob(name+"-sweep", schedule, SweepJob(name, sw))
}

// RepairJob returns a job that runs one repair pass.
func RepairJob(r Repairer) func(ctx context.Context) {
	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		n, err := r.RepairAll(ctx)
		if err != nil {
			logger.Error("Repair pass failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("Repair pass fixed dashboards", "dashboards", n)
		}
	}
}

// SweepJob returns a job that sweeps sw once.
func SweepJob(name string, sw Sweeper) func(ctx context.Context) {
	return func(ctx context.Context) {
		if n := sw.Sweep(); n > 0 {
			logger.Debug("Swept expired entries", "store", name, "removed", n)
		}
	}
}

// Jobs returns the registered job names with their next run time. The time
// is zero until the scheduler is started.
func (s *Scheduler) Jobs() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		jobs[name] = s.cron.Entry(id).Next
	}
	return jobs
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	logger.Info("Scheduler started", "jobs", len(s.entries))
}

// Stop stops scheduling new runs. The returned context is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return s.cron.Stop()
}
