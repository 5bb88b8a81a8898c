package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/staffmanager/internal/config"
	"github.com/mrlokans/staffmanager/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRunTime returns the first activation of schedule after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Enqueuer stores a task for the workers to pick up.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Job pairs a cron schedule with the task it enqueues.
type Job struct {
	Schedule string
	Task     backlite.Task
}

// Name returns the queue name of the job's task.
func (j Job) Name() string {
	return j.Task.Config().Name
}

// JobsFrom builds the maintenance jobs from configuration. Jobs with an
// empty schedule are left out.
func JobsFrom(cfg config.Maintenance, auditRetentionDays int) []Job {
	candidates := []Job{
		{Schedule: cfg.OverdueSchedule, Task: tasks.OverdueLoansTask{}},
		{Schedule: cfg.AuditCleanupSchedule, Task: tasks.CleanupAuditEventsTask{RetentionDays: auditRetentionDays}},
		{Schedule: cfg.ImageCleanupSchedule, Task: tasks.CleanupOrphanImagesTask{}},
	}
	jobs := make([]Job, 0, len(candidates))
	for _, j := range candidates {
		if j.Schedule != "" {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// MaintenanceScheduler enqueues maintenance tasks on their cron schedules.
type MaintenanceScheduler struct {
	queue Enqueuer
	jobs  []Job

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler validates every job schedule up front.
func NewMaintenanceScheduler(queue Enqueuer, jobs []Job) (*MaintenanceScheduler, error) {
	for _, j := range jobs {
		if err := ValidateSchedule(j.Schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule '%s' for %s: %w", j.Schedule, j.Name(), err)
		}
	}
	return &MaintenanceScheduler{
		queue:   queue,
		jobs:    jobs,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}, nil
}

// Start registers the jobs and starts the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if len(s.jobs) == 0 {
		log.Printf("[SCHEDULER] No maintenance jobs configured")
		return nil
	}

	for _, j := range s.jobs {
		job := j
		id, err := s.cron.AddFunc(job.Schedule, func() {
			s.enqueue(job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
		}
		s.entries[job.Name()] = id
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	for _, entry := range s.cron.Entries() {
		log.Printf("[SCHEDULER] %s scheduled, next run: %v", s.jobName(entry.ID), entry.Next)
	}

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the cron loop and waits for in-flight enqueues.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("[SCHEDULER] Maintenance scheduler stopped")
}

// IsRunning reports whether the cron loop is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next activation of every scheduled job by name.
func (s *MaintenanceScheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := make(map[string]time.Time)
	if !s.isRunning {
		return next
	}
	for _, entry := range s.cron.Entries() {
		next[s.jobName(entry.ID)] = entry.Next
	}
	return next
}

// RunNow enqueues the named job immediately.
func (s *MaintenanceScheduler) RunNow(name string) (string, error) {
	for _, j := range s.jobs {
		if j.Name() == name {
			return s.queue.Enqueue(j.Task)
		}
	}
	return "", fmt.Errorf("%w: %s", tasks.ErrUnknownTaskType, name)
}

func (s *MaintenanceScheduler) enqueue(job Job) {
	id, err := s.queue.Enqueue(job.Task)
	if err != nil {
		log.Printf("[SCHEDULER] Failed to enqueue %s: %v", job.Name(), err)
		return
	}
	log.Printf("[SCHEDULER] Enqueued %s as task %s", job.Name(), id)
}

func (s *MaintenanceScheduler) jobName(id cron.EntryID) string {
	for name, entryID := range s.entries {
		if entryID == id {
			return name
		}
	}
	return fmt.Sprintf("entry %d", id)
}
