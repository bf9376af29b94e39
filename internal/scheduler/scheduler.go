package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tqcuong/triagebot/internal/jobs"
)

// Action executes a matured job. It is invoked outside the scheduler's lock,
// so a slow platform call cannot stall unrelated scheduling operations.
type Action interface {
	Execute(ctx context.Context, job jobs.Job) error
}

// Notifier receives scheduler lifecycle events. All methods are best-effort
// hooks; the scheduler ignores whatever they do.
type Notifier interface {
	JobScheduled(job jobs.Job)
	JobCancelled(id string)
	JobFired(job jobs.Job, err error)
}

// Config holds scheduler configuration
type Config struct {
	Logger   *slog.Logger
	Store    jobs.Store
	Action   Action
	Notifier Notifier // optional
}

// timerEntry is one armed job in the registry. The generation number is the
// claim token: every arm gets a fresh one, and a matured callback may only
// dispatch while its generation is still the registered one. Overdue jobs
// recovered by Start get an entry with a nil timer.
type timerEntry struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler arms an in-process timer per pending job and fires each job's
// action exactly once at (or after) its run time. The store is the source of
// truth; the timer registry is a cache rebuilt from it by Start.
//
// Delivery is at-most-once with best-effort execution: a job is removed from
// the store after dispatch regardless of whether the action succeeded.
type Scheduler struct {
	logger   *slog.Logger
	store    jobs.Store
	action   Action
	notifier Notifier

	mu      sync.Mutex
	timers  map[string]timerEntry
	gen     uint64
	stopped bool

	wg sync.WaitGroup
}

// New creates a new Scheduler. Start must be called before webhook traffic is
// accepted so persisted jobs are recovered first.
func New(cfg *Config) *Scheduler {
	return &Scheduler{
		logger:   cfg.Logger,
		store:    cfg.Store,
		action:   cfg.Action,
		notifier: cfg.Notifier,
		timers:   make(map[string]timerEntry),
	}
}

// Start loads every persisted job and arms timers for all of them. Jobs whose
// run time has already passed fire immediately, oldest first.
func (s *Scheduler) Start(ctx context.Context) error {
	persisted, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	sort.Slice(persisted, func(i, j int) bool {
		return persisted[i].RunAt.Before(persisted[j].RunAt)
	})

	now := time.Now()

	type claimed struct {
		job jobs.Job
		gen uint64
	}
	var overdue []claimed

	s.mu.Lock()
	for _, job := range persisted {
		if !job.RunAt.After(now) {
			// Overdue jobs enter the registry too, with no timer, so a
			// Cancel or reschedule arriving mid-recovery can claim them
			// before the recovery goroutine does.
			s.gen++
			s.timers[job.ID] = timerEntry{gen: s.gen}
			overdue = append(overdue, claimed{job: job, gen: s.gen})
			continue
		}
		s.armLocked(job)
	}
	s.mu.Unlock()

	s.logger.Info("Scheduler started",
		slog.Int("pending", len(persisted)-len(overdue)),
		slog.Int("overdue", len(overdue)),
	)

	if len(overdue) > 0 {
		// Fire sequentially so the oldest overdue action runs first.
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for _, c := range overdue {
				s.fire(c.job, c.gen)
			}
		}()
	}

	return nil
}

// Schedule inserts-or-replaces the job in the store, then arms (or re-arms)
// a timer for its run time. Replacing an existing id disarms the old timer
// before arming the new one, so a rescheduled job never fires twice. A run
// time in the past fires as soon as practicable.
func (s *Scheduler) Schedule(ctx context.Context, job jobs.Job) error {
	if err := s.store.Put(ctx, job); err != nil {
		return err
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	if old, ok := s.timers[job.ID]; ok && old.timer != nil {
		old.timer.Stop()
	}
	s.armLocked(job)
	s.mu.Unlock()

	s.logger.Info("Job scheduled",
		slog.String("job_id", job.ID),
		slog.Time("run_at", job.RunAt),
	)

	if s.notifier != nil {
		s.notifier.JobScheduled(job)
	}

	return nil
}

// Cancel removes the job from the store and disarms its timer. The timer is
// disarmed before Cancel returns, so the action is never dispatched for a
// cancelled job. Cancelling an absent id is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	if entry, ok := s.timers[id]; ok {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Job cancelled",
		slog.String("job_id", id),
	)

	if s.notifier != nil {
		s.notifier.JobCancelled(id)
	}

	return nil
}

// Get returns the pending job with the given id, or jobs.ErrNotFound.
func (s *Scheduler) Get(ctx context.Context, id string) (*jobs.Job, error) {
	return s.store.Get(ctx, id)
}

// Stop disarms all timers and waits for in-flight dispatches to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, entry := range s.timers {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// armLocked registers a timer for the job under a fresh generation. The
// closure captures the generation by value before the timer is created, so a
// callback that runs immediately (past-due run time) still sees its own
// token. Caller holds s.mu.
func (s *Scheduler) armLocked(job jobs.Job) {
	s.gen++
	gen := s.gen
	t := time.AfterFunc(time.Until(job.RunAt), func() {
		s.fire(job, gen)
	})
	s.timers[job.ID] = timerEntry{timer: t, gen: gen}
}

// fire claims the matured job and dispatches it. The claim check under the
// lock is what prevents a double fire when the job was replaced or cancelled
// between maturing and this callback running: only the generation currently
// registered for the id may proceed.
func (s *Scheduler) fire(job jobs.Job, gen uint64) {
	s.mu.Lock()
	entry, ok := s.timers[job.ID]
	if !ok || entry.gen != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, job.ID)
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.dispatch(job)
}

// dispatch runs the action and drops the job record regardless of the
// outcome. A failed action is logged, never retried.
func (s *Scheduler) dispatch(job jobs.Job) {
	ctx := context.Background()

	s.logger.Info("Firing job",
		slog.String("job_id", job.ID),
		slog.String("action", job.Action),
	)

	err := s.action.Execute(ctx, job)
	if err != nil {
		s.logger.Warn("Job action failed",
			slog.String("job_id", job.ID),
			slog.String("action", job.Action),
			slog.Any("error", err),
		)
	}

	if delErr := s.store.Delete(ctx, job.ID); delErr != nil {
		s.logger.Error("Failed to remove fired job from store",
			slog.String("job_id", job.ID),
			slog.Any("error", delErr),
		)
	}

	if s.notifier != nil {
		s.notifier.JobFired(job, err)
	}
}
