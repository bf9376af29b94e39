package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists scheduled jobs in a scheduled_jobs table.
//
// Expected schema:
//
//	CREATE TABLE scheduled_jobs (
//	    job_id         TEXT PRIMARY KEY,
//	    action         TEXT NOT NULL,
//	    repo_full_name TEXT NOT NULL,
//	    issue_number   INTEGER NOT NULL,
//	    run_at         TIMESTAMPTZ NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgresStore instance
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// Put inserts the job, replacing any existing job with the same ID. The
// UPSERT is what makes rescheduling idempotent: the latest run_at wins and no
// duplicate row is ever created.
func (s *PostgresStore) Put(ctx context.Context, job Job) error {
	query := `
		INSERT INTO scheduled_jobs (
			job_id, action, repo_full_name, issue_number, run_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (job_id) DO UPDATE SET
			action = EXCLUDED.action,
			repo_full_name = EXCLUDED.repo_full_name,
			issue_number = EXCLUDED.issue_number,
			run_at = EXCLUDED.run_at
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.Action,
		job.RepoFullName,
		job.IssueNumber,
		job.RunAt,
		job.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to put job: %w", err)
	}

	s.logger.Debug("Job persisted",
		slog.String("job_id", job.ID),
		slog.Time("run_at", job.RunAt),
	)

	return nil
}

// Get returns the job with the given ID, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	query := `
		SELECT job_id, action, repo_full_name, issue_number, run_at, created_at
		FROM scheduled_jobs
		WHERE job_id = $1
	`

	var job Job
	err := s.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// Delete removes the job with the given ID. Deleting an absent id is a no-op.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM scheduled_jobs WHERE job_id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Debug("Delete job - no rows affected",
			slog.String("job_id", id),
		)
	}

	return nil
}

// List returns all persisted jobs ordered by run time ascending, so the
// oldest overdue job comes first during startup recovery.
func (s *PostgresStore) List(ctx context.Context) ([]Job, error) {
	query := `
		SELECT job_id, action, repo_full_name, issue_number, run_at, created_at
		FROM scheduled_jobs
		ORDER BY run_at ASC, job_id ASC
	`

	var list []Job
	err := s.db.SelectContext(ctx, &list, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return list, nil
}
