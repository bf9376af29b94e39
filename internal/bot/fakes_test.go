package bot

import (
	"context"

	"github.com/google/go-github/v66/github"

	"github.com/tqcuong/triagebot/internal/jobs"
	"github.com/tqcuong/triagebot/internal/platform"
)

// fakeClient satisfies platform.Client with recording fakes.
type fakeClient struct {
	issues       *fakeIssuesService
	pullRequests *fakePullRequestsService
	repositories *fakeRepositoriesService
	reactions    *fakeReactionsService
	users        *fakeUsersService
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		issues:       &fakeIssuesService{},
		pullRequests: &fakePullRequestsService{},
		repositories: &fakeRepositoriesService{permission: "read"},
		reactions:    &fakeReactionsService{},
		users:        &fakeUsersService{},
	}
}

func (c *fakeClient) Issues() platform.IssuesService { return c.issues }

func (c *fakeClient) PullRequests() platform.PullRequestsService { return c.pullRequests }

func (c *fakeClient) Repositories() platform.RepositoriesService { return c.repositories }

func (c *fakeClient) Reactions() platform.ReactionsService { return c.reactions }

func (c *fakeClient) Users() platform.UsersService { return c.users }

type fakeIssuesService struct {
	editedStates   []string
	comments       []string
	addedLabels    [][]string
	removedLabels  []string
	replacedLabels [][]string

	editErr        error
	removeLabelErr error
}

func (s *fakeIssuesService) Edit(_ context.Context, _, _ string, _ int, issue *github.IssueRequest) (*github.Issue, *github.Response, error) {
	if s.editErr != nil {
		return nil, nil, s.editErr
	}
	s.editedStates = append(s.editedStates, issue.GetState())
	return nil, nil, nil
}

func (s *fakeIssuesService) CreateComment(_ context.Context, _, _ string, _ int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	s.comments = append(s.comments, comment.GetBody())
	return nil, nil, nil
}

func (s *fakeIssuesService) AddLabelsToIssue(_ context.Context, _, _ string, _ int, labels []string) ([]*github.Label, *github.Response, error) {
	s.addedLabels = append(s.addedLabels, labels)
	return nil, nil, nil
}

func (s *fakeIssuesService) RemoveLabelForIssue(_ context.Context, _, _ string, _ int, label string) (*github.Response, error) {
	if s.removeLabelErr != nil {
		return nil, s.removeLabelErr
	}
	s.removedLabels = append(s.removedLabels, label)
	return nil, nil
}

func (s *fakeIssuesService) ReplaceLabelsForIssue(_ context.Context, _, _ string, _ int, labels []string) ([]*github.Label, *github.Response, error) {
	s.replacedLabels = append(s.replacedLabels, labels)
	return nil, nil, nil
}

type fakePullRequestsService struct {
	commits []*github.RepositoryCommit
	reviews []*github.PullRequestReviewRequest
}

func (s *fakePullRequestsService) ListCommits(_ context.Context, _, _ string, _ int, _ *github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	return s.commits, nil, nil
}

func (s *fakePullRequestsService) CreateReview(_ context.Context, _, _ string, _ int, review *github.PullRequestReviewRequest) (*github.PullRequestReview, *github.Response, error) {
	s.reviews = append(s.reviews, review)
	return nil, nil, nil
}

type fakeRepositoriesService struct {
	permission string
	err        error
}

func (s *fakeRepositoriesService) GetPermissionLevel(_ context.Context, _, _, _ string) (*github.RepositoryPermissionLevel, *github.Response, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return &github.RepositoryPermissionLevel{Permission: github.String(s.permission)}, nil, nil
}

type fakeReactionsService struct {
	reactions []string
}

func (s *fakeReactionsService) CreateIssueCommentReaction(_ context.Context, _, _ string, _ int64, content string) (*github.Reaction, *github.Response, error) {
	s.reactions = append(s.reactions, content)
	return nil, nil, nil
}

type fakeUsersService struct {
	login string
}

func (s *fakeUsersService) Get(_ context.Context, _ string) (*github.User, *github.Response, error) {
	return &github.User{Login: github.String(s.login)}, nil, nil
}

// fakeScheduler records scheduling calls without arming timers.
type fakeScheduler struct {
	pending   map[string]jobs.Job
	scheduled []jobs.Job
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[string]jobs.Job)}
}

func (s *fakeScheduler) Schedule(_ context.Context, job jobs.Job) error {
	s.scheduled = append(s.scheduled, job)
	s.pending[job.ID] = job
	return nil
}

func (s *fakeScheduler) Cancel(_ context.Context, id string) error {
	s.cancelled = append(s.cancelled, id)
	delete(s.pending, id)
	return nil
}

func (s *fakeScheduler) Get(_ context.Context, id string) (*jobs.Job, error) {
	job, ok := s.pending[id]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	return &job, nil
}
