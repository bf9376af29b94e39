package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqcuong/triagebot/internal/jobs"
	"github.com/tqcuong/triagebot/shared/logger"
)

// recordingAction collects every dispatched job and signals on fired.
type recordingAction struct {
	mu    sync.Mutex
	jobs  []jobs.Job
	fired chan string
	err   error
}

func newRecordingAction() *recordingAction {
	return &recordingAction{fired: make(chan string, 16)}
}

func (a *recordingAction) Execute(_ context.Context, job jobs.Job) error {
	a.mu.Lock()
	a.jobs = append(a.jobs, job)
	a.mu.Unlock()
	a.fired <- job.ID
	return a.err
}

func (a *recordingAction) dispatched() []jobs.Job {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]jobs.Job, len(a.jobs))
	copy(out, a.jobs)
	return out
}

func (a *recordingAction) waitForFire(t *testing.T) string {
	t.Helper()
	select {
	case id := <-a.fired:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job to fire")
		return ""
	}
}

func (a *recordingAction) assertNoFire(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case id := <-a.fired:
		t.Fatalf("unexpected dispatch of job %q", id)
	case <-time.After(within):
	}
}

func newTestScheduler(t *testing.T, store jobs.Store, action Action) *Scheduler {
	t.Helper()
	s := New(&Config{
		Logger: logger.NewDefault().Logger,
		Store:  store,
		Action: action,
	})
	t.Cleanup(s.Stop)
	return s
}

func TestScheduler_PastDueFiresImmediately(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	action := newRecordingAction()
	s := newTestScheduler(t, store, action)
	require.NoError(t, s.Start(ctx))

	job := jobs.NewCloseIssue("acme/repo", 1, time.Now().Add(-time.Hour))
	require.NoError(t, s.Schedule(ctx, job))

	assert.Equal(t, job.ID, action.waitForFire(t))

	// fired job is dropped from the store
	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, job.ID)
		return err == jobs.ErrNotFound
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RescheduleReplacesNotDuplicates(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	action := newRecordingAction()
	s := newTestScheduler(t, store, action)
	require.NoError(t, s.Start(ctx))

	first := jobs.NewCloseIssue("acme/repo", 42, time.Now().Add(time.Hour))
	require.NoError(t, s.Schedule(ctx, first))

	second := jobs.NewCloseIssue("acme/repo", 42, time.Now().Add(50*time.Millisecond))
	require.NoError(t, s.Schedule(ctx, second))

	// exactly one pending job, latest run time wins
	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].RunAt.Equal(second.RunAt))

	assert.Equal(t, second.ID, action.waitForFire(t))
	action.assertNoFire(t, 200*time.Millisecond)
	assert.Len(t, action.dispatched(), 1)
}

func TestScheduler_CancelAbsentIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestScheduler(t, jobs.NewMemoryStore(), newRecordingAction())
	require.NoError(t, s.Start(ctx))

	assert.NoError(t, s.Cancel(ctx, "acme/repo@@@999"))
}

func TestScheduler_CancelPreventsDispatch(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	action := newRecordingAction()
	s := newTestScheduler(t, store, action)
	require.NoError(t, s.Start(ctx))

	job := jobs.NewCloseIssue("acme/repo", 5, time.Now().Add(time.Hour))
	require.NoError(t, s.Schedule(ctx, job))
	require.NoError(t, s.Cancel(ctx, job.ID))

	_, err := store.Get(ctx, job.ID)
	assert.ErrorIs(t, err, jobs.ErrNotFound)
	action.assertNoFire(t, 200*time.Millisecond)
}

func TestScheduler_Get(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	s := newTestScheduler(t, store, newRecordingAction())
	require.NoError(t, s.Start(ctx))

	_, err := s.Get(ctx, "acme/repo@@@1")
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	job := jobs.NewCloseIssue("acme/repo", 1, time.Now().Add(time.Hour))
	require.NoError(t, s.Schedule(ctx, job))

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestScheduler_RecoversPersistedJobs(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()

	// jobs persisted by a previous process
	future := jobs.NewCloseIssue("acme/repo", 1, time.Now().Add(100*time.Millisecond))
	require.NoError(t, store.Put(ctx, future))

	action := newRecordingAction()
	s := newTestScheduler(t, store, action)
	require.NoError(t, s.Start(ctx))

	assert.Equal(t, future.ID, action.waitForFire(t))
	action.assertNoFire(t, 200*time.Millisecond)
	assert.Len(t, action.dispatched(), 1)
}

func TestScheduler_OverdueJobsFireOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Put(ctx, jobs.NewCloseIssue("acme/repo", 2, now.Add(-time.Hour))))
	require.NoError(t, store.Put(ctx, jobs.NewCloseIssue("acme/repo", 1, now.Add(-2*time.Hour))))
	require.NoError(t, store.Put(ctx, jobs.NewCloseIssue("acme/repo", 3, now.Add(-time.Minute))))

	action := newRecordingAction()
	s := newTestScheduler(t, store, action)
	require.NoError(t, s.Start(ctx))

	assert.Equal(t, "acme/repo@@@1", action.waitForFire(t))
	assert.Equal(t, "acme/repo@@@2", action.waitForFire(t))
	assert.Equal(t, "acme/repo@@@3", action.waitForFire(t))
}

func TestScheduler_PastDueBurstAllFire(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	action := &recordingAction{fired: make(chan string, 64)}
	s := newTestScheduler(t, store, action)
	require.NoError(t, s.Start(ctx))

	// Past-due run times make every timer callback eligible to run before
	// Schedule even returns; none of them may be lost.
	const n = 50
	for i := 1; i <= n; i++ {
		job := jobs.NewCloseIssue("acme/repo", i, time.Now().Add(-time.Minute))
		require.NoError(t, s.Schedule(ctx, job))
	}

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		seen[action.waitForFire(t)] = true
	}
	assert.Len(t, seen, n)

	assert.Eventually(t, func() bool {
		list, err := store.List(ctx)
		return err == nil && len(list) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// blockingAction holds the first dispatch open until released so a test can
// act while the recovery goroutine is mid-drain.
type blockingAction struct {
	mu      sync.Mutex
	jobs    []jobs.Job
	started chan string
	release chan struct{}
}

func (a *blockingAction) Execute(_ context.Context, job jobs.Job) error {
	a.started <- job.ID
	<-a.release
	a.mu.Lock()
	a.jobs = append(a.jobs, job)
	a.mu.Unlock()
	return nil
}

func TestScheduler_CancelDuringRecoveryPreventsDispatch(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	now := time.Now()

	first := jobs.NewCloseIssue("acme/repo", 1, now.Add(-2*time.Hour))
	second := jobs.NewCloseIssue("acme/repo", 2, now.Add(-time.Hour))
	require.NoError(t, store.Put(ctx, first))
	require.NoError(t, store.Put(ctx, second))

	action := &blockingAction{started: make(chan string, 2), release: make(chan struct{})}
	s := newTestScheduler(t, store, action)
	require.NoError(t, s.Start(ctx))

	// recovery is now blocked inside the first dispatch
	select {
	case id := <-action.started:
		require.Equal(t, first.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recovery to start")
	}

	require.NoError(t, s.Cancel(ctx, second.ID))

	close(action.release)
	s.Stop() // waits for the recovery goroutine to drain

	select {
	case id := <-action.started:
		t.Fatalf("job %q dispatched after cancel", id)
	default:
	}

	action.mu.Lock()
	defer action.mu.Unlock()
	require.Len(t, action.jobs, 1)
	assert.Equal(t, first.ID, action.jobs[0].ID)
}

func TestScheduler_FailedActionStillRemovesJob(t *testing.T) {
	ctx := context.Background()
	store := jobs.NewMemoryStore()
	action := newRecordingAction()
	action.err = assert.AnError
	s := newTestScheduler(t, store, action)
	require.NoError(t, s.Start(ctx))

	job := jobs.NewCloseIssue("acme/repo", 9, time.Now().Add(-time.Second))
	require.NoError(t, s.Schedule(ctx, job))

	action.waitForFire(t)

	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, job.ID)
		return err == jobs.ErrNotFound
	}, 2*time.Second, 10*time.Millisecond)

	// failure does not re-enqueue
	action.assertNoFire(t, 200*time.Millisecond)
}
