package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v66/github"

	"github.com/tqcuong/triagebot/internal/jobs"
	"github.com/tqcuong/triagebot/internal/platform"
)

// Dispatcher executes scheduled job actions against the GitHub API.
type Dispatcher struct {
	logger       *slog.Logger
	client       platform.Client
	triggerLabel string
}

// NewDispatcher creates a new Dispatcher instance
func NewDispatcher(logger *slog.Logger, client platform.Client, triggerLabel string) *Dispatcher {
	return &Dispatcher{
		logger:       logger,
		client:       client,
		triggerLabel: triggerLabel,
	}
}

// Execute dispatches the job to the handler for its action kind.
func (d *Dispatcher) Execute(ctx context.Context, job jobs.Job) error {
	switch job.Action {
	case jobs.ActionCloseIssue:
		return d.closeIssue(ctx, job.RepoFullName, job.IssueNumber)
	default:
		return fmt.Errorf("unknown job action %q", job.Action)
	}
}

// closeIssue closes the issue, then removes the trigger label best-effort.
// Only the close step can fail the action; a label that is already gone is
// the desired state, and any other label-removal failure is logged and
// swallowed.
func (d *Dispatcher) closeIssue(ctx context.Context, repoFullName string, issueNumber int) error {
	owner, repo, err := platform.SplitRepo(repoFullName)
	if err != nil {
		return err
	}

	d.logger.Info("Closing issue",
		slog.String("repo", repoFullName),
		slog.Int("issue", issueNumber),
	)

	_, _, err = d.client.Issues().Edit(ctx, owner, repo, issueNumber, &github.IssueRequest{
		State: github.String("closed"),
	})
	if err != nil {
		return fmt.Errorf("failed to close issue %s#%d: %w", repoFullName, issueNumber, err)
	}

	if _, err := d.client.Issues().RemoveLabelForIssue(ctx, owner, repo, issueNumber, d.triggerLabel); err != nil {
		if platform.IsNotFound(err) {
			d.logger.Debug("Trigger label already absent",
				slog.String("repo", repoFullName),
				slog.Int("issue", issueNumber),
			)
		} else {
			d.logger.Warn("Failed to remove trigger label",
				slog.String("repo", repoFullName),
				slog.Int("issue", issueNumber),
				slog.Any("error", err),
			)
		}
	}

	return nil
}
