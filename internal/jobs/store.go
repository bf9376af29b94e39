package jobs

import "context"

// Store is the durable backing for scheduled jobs. It is the sole source of
// truth for which jobs exist; the scheduler's timer set is rebuilt from it on
// startup.
//
// Implementations must be safe for concurrent use. Delete on an absent id is
// a no-op, not an error.
type Store interface {
	// Put inserts the job, replacing any existing job with the same ID.
	Put(ctx context.Context, job Job) error

	// Get returns the job with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// Delete removes the job with the given ID if it exists.
	Delete(ctx context.Context, id string) error

	// List returns all persisted jobs ordered by run time ascending.
	List(ctx context.Context) ([]Job, error)
}
