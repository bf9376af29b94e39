package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/tqcuong/triagebot/internal/jobs"
	"github.com/tqcuong/triagebot/internal/platform"
)

const (
	permissionAdmin = "admin"
	commandKeyword  = "autoclose"
)

// commandKeywordRe locates the command keyword case-insensitively in the
// original comment text. Matching on the original (not a lowercased copy)
// keeps the byte offsets valid for slicing even when the text contains
// characters whose lowercase form has a different byte length.
var commandKeywordRe = regexp.MustCompile(`(?i)` + commandKeyword)

// JobScheduler is the scheduling surface the resolver drives.
type JobScheduler interface {
	Schedule(ctx context.Context, job jobs.Job) error
	Cancel(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*jobs.Job, error)
}

// ResolverConfig holds resolver dependencies and policy knobs.
type ResolverConfig struct {
	Logger       *slog.Logger
	Client       platform.Client
	Scheduler    JobScheduler
	Dates        *DateParser
	BotLogin     string
	TriggerLabel string
	CloseDelay   time.Duration

	// Now is the clock used for schedule computations. Defaults to time.Now.
	Now func() time.Time
}

// Resolver translates decoded webhook events into scheduler calls and
// GitHub API side effects. It holds no timers of its own.
type Resolver struct {
	logger       *slog.Logger
	client       platform.Client
	scheduler    JobScheduler
	dates        *DateParser
	botLogin     string
	triggerLabel string
	closeDelay   time.Duration
	now          func() time.Time
}

// NewResolver creates a new Resolver instance
func NewResolver(cfg *ResolverConfig) *Resolver {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Resolver{
		logger:       cfg.Logger,
		client:       cfg.Client,
		scheduler:    cfg.Scheduler,
		dates:        cfg.Dates,
		botLogin:     cfg.BotLogin,
		triggerLabel: cfg.TriggerLabel,
		closeDelay:   cfg.CloseDelay,
		now:          now,
	}
}

// HandleEvent routes a decoded webhook event to its handler. Events authored
// by the bot's own identity are dropped so its comments and labels cannot
// feed back into it. Unknown event or action kinds are ignored.
func (r *Resolver) HandleEvent(ctx context.Context, event any) error {
	switch ev := event.(type) {
	case *github.IssuesEvent:
		if r.isSelf(ev.GetSender()) {
			return nil
		}
		if ev.GetAction() != "labeled" {
			return nil
		}
		return r.issueLabeled(ctx, ev)

	case *github.IssueCommentEvent:
		if r.isSelf(ev.GetSender()) {
			return nil
		}
		if ev.GetAction() != "created" {
			return nil
		}
		return r.issueCommentCreated(ctx, ev)

	case *github.PullRequestEvent:
		if r.isSelf(ev.GetSender()) {
			return nil
		}
		if ev.GetAction() != "opened" {
			return nil
		}
		return r.pullRequestOpened(ctx, ev)

	default:
		r.logger.Debug("Ignoring unsupported event",
			slog.String("type", fmt.Sprintf("%T", event)),
		)
		return nil
	}
}

func (r *Resolver) isSelf(sender *github.User) bool {
	if sender.GetLogin() == r.botLogin {
		r.logger.Debug("Ignoring event triggered by the bot itself")
		return true
	}
	return false
}

// issueLabeled schedules auto-closure when the trigger label is applied and
// announces it on the issue.
func (r *Resolver) issueLabeled(ctx context.Context, ev *github.IssuesEvent) error {
	if ev.GetLabel().GetName() != r.triggerLabel {
		return nil
	}

	repoFullName := ev.GetRepo().GetFullName()
	issueNumber := ev.GetIssue().GetNumber()

	owner, repo, err := platform.SplitRepo(repoFullName)
	if err != nil {
		return err
	}

	job := jobs.NewCloseIssue(repoFullName, issueNumber, r.now().Add(r.closeDelay))

	r.logger.Info("Scheduling issue for autoclose",
		slog.String("job_id", job.ID),
		slog.Time("run_at", job.RunAt),
	)

	if err := r.scheduler.Schedule(ctx, job); err != nil {
		return fmt.Errorf("failed to schedule autoclose for %s: %w", job.ID, err)
	}

	if _, _, err := r.client.Issues().CreateComment(ctx, owner, repo, issueNumber, &github.IssueComment{
		Body: github.String(autoCloseMsg),
	}); err != nil {
		return fmt.Errorf("failed to comment on %s#%d: %w", repoFullName, issueNumber, err)
	}

	return nil
}

// issueCommentCreated handles snooze commands from admins and cancels a
// pending autoclose on any other activity.
func (r *Resolver) issueCommentCreated(ctx context.Context, ev *github.IssueCommentEvent) error {
	repoFullName := ev.GetRepo().GetFullName()
	issueNumber := ev.GetIssue().GetNumber()
	body := ev.GetComment().GetBody()
	sender := ev.GetSender().GetLogin()

	owner, repo, err := platform.SplitRepo(repoFullName)
	if err != nil {
		return err
	}

	if r.isCommand(ctx, body, owner, repo, sender) {
		return r.applySnoozeCommand(ctx, ev, owner, repo)
	}

	// Any other comment on an issue with a pending autoclose counts as
	// activity and cancels it.
	id := jobs.MakeID(repoFullName, issueNumber)
	if _, err := r.scheduler.Get(ctx, id); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up job %s: %w", id, err)
	}

	r.logger.Info("Descheduling issue for autoclose",
		slog.String("job_id", id),
	)

	if err := r.scheduler.Cancel(ctx, id); err != nil {
		return fmt.Errorf("failed to cancel job %s: %w", id, err)
	}

	if _, err := r.client.Issues().RemoveLabelForIssue(ctx, owner, repo, issueNumber, r.triggerLabel); err != nil && !platform.IsNotFound(err) {
		r.logger.Warn("Failed to remove trigger label",
			slog.String("repo", repoFullName),
			slog.Int("issue", issueNumber),
			slog.Any("error", err),
		)
	}

	if _, _, err := r.client.Issues().CreateComment(ctx, owner, repo, issueNumber, &github.IssueComment{
		Body: github.String(noAutoCloseMsg),
	}); err != nil {
		return fmt.Errorf("failed to comment on %s#%d: %w", repoFullName, issueNumber, err)
	}

	return nil
}

// isCommand reports whether the comment is a snooze command directed at the
// bot from a sender with admin permission. Permission lookups fail closed.
func (r *Resolver) isCommand(ctx context.Context, body, owner, repo, sender string) bool {
	trigger := fmt.Sprintf("@%s %s", r.botLogin, commandKeyword)
	if !strings.Contains(strings.ToLower(body), strings.ToLower(trigger)) {
		return false
	}

	level, _, err := r.client.Repositories().GetPermissionLevel(ctx, owner, repo, sender)
	if err != nil {
		r.logger.Warn("Failed to check collaborator permission",
			slog.String("sender", sender),
			slog.Any("error", err),
		)
		return false
	}

	return level.GetPermission() == permissionAdmin
}

// applySnoozeCommand parses the free-text date after the command keyword and
// reschedules the issue's autoclose. A missing or past date leaves everything
// untouched.
func (r *Resolver) applySnoozeCommand(ctx context.Context, ev *github.IssueCommentEvent, owner, repo string) error {
	repoFullName := ev.GetRepo().GetFullName()
	issueNumber := ev.GetIssue().GetNumber()
	body := ev.GetComment().GetBody()

	loc := commandKeywordRe.FindStringIndex(body)
	if loc == nil {
		return nil
	}
	rest := body[loc[1]:]

	now := r.now()
	closeDate, ok := r.dates.Parse(rest, now)
	if !ok || !closeDate.After(now) {
		r.logger.Debug("Snooze command without a usable future date",
			slog.String("text", rest),
		)
		return nil
	}

	job := jobs.NewCloseIssue(repoFullName, issueNumber, closeDate)

	r.logger.Info("Rescheduling issue for autoclose",
		slog.String("job_id", job.ID),
		slog.Time("run_at", job.RunAt),
	)

	if err := r.scheduler.Schedule(ctx, job); err != nil {
		return fmt.Errorf("failed to schedule autoclose for %s: %w", job.ID, err)
	}

	if _, _, err := r.client.Issues().AddLabelsToIssue(ctx, owner, repo, issueNumber, []string{r.triggerLabel}); err != nil {
		return fmt.Errorf("failed to label %s#%d: %w", repoFullName, issueNumber, err)
	}

	if _, _, err := r.client.Reactions().CreateIssueCommentReaction(ctx, owner, repo, ev.GetComment().GetID(), "+1"); err != nil {
		r.logger.Warn("Failed to acknowledge command",
			slog.Int64("comment_id", ev.GetComment().GetID()),
			slog.Any("error", err),
		)
	}

	return nil
}

// pullRequestOpened audits the PR's commits for summary-line formatting and
// Signed-off-by trailers, requests changes when warnings exist, and applies
// topic labels derived from the summary-line prefixes.
func (r *Resolver) pullRequestOpened(ctx context.Context, ev *github.PullRequestEvent) error {
	repoFullName := ev.GetRepo().GetFullName()
	number := ev.GetNumber()

	owner, repo, err := platform.SplitRepo(repoFullName)
	if err != nil {
		return err
	}

	commits, err := r.listAllCommits(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("failed to list commits for %s#%d: %w", repoFullName, number, err)
	}

	warnBadMsg := false
	warnSignoff := false
	labelSet := make(map[string]struct{})

	for _, commit := range commits {
		msg := commit.GetCommit().GetMessage()

		if strings.HasPrefix(msg, "Revert") || strings.HasPrefix(msg, "Merge") {
			continue
		}

		labels, ok := labelsForCommit(msg)
		if !ok {
			warnBadMsg = true
		}
		for _, label := range labels {
			labelSet[label] = struct{}{}
		}

		if !strings.Contains(msg, "Signed-off-by:") {
			warnSignoff = true
		}
	}

	if warnBadMsg || warnSignoff {
		comment := prGreetingMsg
		if warnBadMsg {
			comment += prWarnCommitMsg
		}
		if warnSignoff {
			comment += prWarnSignoffMsg
		}
		comment += prGuidelinesMsg

		if _, _, err := r.client.PullRequests().CreateReview(ctx, owner, repo, number, &github.PullRequestReviewRequest{
			Body:  github.String(comment),
			Event: github.String("REQUEST_CHANGES"),
		}); err != nil {
			return fmt.Errorf("failed to review %s#%d: %w", repoFullName, number, err)
		}
	}

	if len(labelSet) > 0 {
		labels := make([]string, 0, len(labelSet))
		for label := range labelSet {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		if _, _, err := r.client.Issues().ReplaceLabelsForIssue(ctx, owner, repo, number, labels); err != nil {
			return fmt.Errorf("failed to set labels on %s#%d: %w", repoFullName, number, err)
		}
	}

	return nil
}

func (r *Resolver) listAllCommits(ctx context.Context, owner, repo string, number int) ([]*github.RepositoryCommit, error) {
	opts := &github.ListOptions{PerPage: 100}
	var all []*github.RepositoryCommit

	for {
		page, resp, err := r.client.PullRequests().ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}
