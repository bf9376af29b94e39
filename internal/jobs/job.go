package jobs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActionCloseIssue is the single action kind the bot schedules.
const ActionCloseIssue = "close-issue"

// idSeparator never appears in a repository full name ("owner/name") or in a
// positive integer, so the id format stays unambiguous and invertible.
const idSeparator = "@@@"

var (
	// ErrNotFound is returned when a job cannot be found in the store
	ErrNotFound = errors.New("job not found")

	// ErrInvalidID is returned when a job id does not follow the
	// "<repo_full_name>@@@<issue_number>" format
	ErrInvalidID = errors.New("invalid job id")
)

// Job is a durable record for a single future action. At most one job exists
// per ID at any time; scheduling the same ID again replaces the record.
type Job struct {
	ID           string    `db:"job_id"`
	Action       string    `db:"action"`
	RepoFullName string    `db:"repo_full_name"`
	IssueNumber  int       `db:"issue_number"`
	RunAt        time.Time `db:"run_at"`
	CreatedAt    time.Time `db:"created_at"`
}

// NewCloseIssue builds a close-issue job for the given issue, due at runAt.
func NewCloseIssue(repoFullName string, issueNumber int, runAt time.Time) Job {
	return Job{
		ID:           MakeID(repoFullName, issueNumber),
		Action:       ActionCloseIssue,
		RepoFullName: repoFullName,
		IssueNumber:  issueNumber,
		RunAt:        runAt,
		CreatedAt:    time.Now(),
	}
}

// MakeID builds the deterministic job id for an issue. Recomputing it for the
// same (repo, issue) pair always yields the same string, which is what gives
// schedule its replace-existing semantics.
func MakeID(repoFullName string, issueNumber int) string {
	return fmt.Sprintf("%s%s%d", repoFullName, idSeparator, issueNumber)
}

// ParseID is the exact inverse of MakeID.
func ParseID(id string) (string, int, error) {
	repo, num, ok := strings.Cut(id, idSeparator)
	if !ok || repo == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	return repo, n, nil
}
