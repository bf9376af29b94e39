// Package platform wraps the GitHub API behind narrow service interfaces so
// the bot logic can be exercised against fakes in tests.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// IssuesService is the subset of the go-github issues service the bot uses.
type IssuesService interface {
	Edit(ctx context.Context, owner, repo string, number int, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
	CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
	AddLabelsToIssue(ctx context.Context, owner, repo string, number int, labels []string) ([]*github.Label, *github.Response, error)
	RemoveLabelForIssue(ctx context.Context, owner, repo string, number int, label string) (*github.Response, error)
	ReplaceLabelsForIssue(ctx context.Context, owner, repo string, number int, labels []string) ([]*github.Label, *github.Response, error)
}

// PullRequestsService is the subset of the go-github pull requests service
// the bot uses.
type PullRequestsService interface {
	ListCommits(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error)
	CreateReview(ctx context.Context, owner, repo string, number int, review *github.PullRequestReviewRequest) (*github.PullRequestReview, *github.Response, error)
}

// RepositoriesService is the subset of the go-github repositories service the
// bot uses.
type RepositoriesService interface {
	GetPermissionLevel(ctx context.Context, owner, repo, user string) (*github.RepositoryPermissionLevel, *github.Response, error)
}

// ReactionsService is the subset of the go-github reactions service the bot
// uses.
type ReactionsService interface {
	CreateIssueCommentReaction(ctx context.Context, owner, repo string, id int64, content string) (*github.Reaction, *github.Response, error)
}

// UsersService is the subset of the go-github users service the bot uses.
type UsersService interface {
	Get(ctx context.Context, user string) (*github.User, *github.Response, error)
}

// Client exposes the GitHub services the bot depends on.
type Client interface {
	Issues() IssuesService
	PullRequests() PullRequestsService
	Repositories() RepositoriesService
	Reactions() ReactionsService
	Users() UsersService
}

// githubClient satisfies Client with a concrete github.Client.
type githubClient struct {
	*github.Client
}

// NewClient builds an authenticated GitHub client from a personal access
// token.
func NewClient(ctx context.Context, token string) Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &githubClient{Client: github.NewClient(oauth2.NewClient(ctx, ts))}
}

func (c *githubClient) Issues() IssuesService {
	return c.Client.Issues
}

func (c *githubClient) PullRequests() PullRequestsService {
	return c.Client.PullRequests
}

func (c *githubClient) Repositories() RepositoriesService {
	return c.Client.Repositories
}

func (c *githubClient) Reactions() ReactionsService {
	return c.Client.Reactions
}

func (c *githubClient) Users() UsersService {
	return c.Client.Users
}

// IsNotFound reports whether err is a GitHub 404, i.e. the resource is
// already in the desired absent state. Callers use this to tell "label was
// not there" apart from a hard API failure.
func IsNotFound(err error) bool {
	var er *github.ErrorResponse
	return errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound
}

// SplitRepo splits a "owner/name" repository full name.
func SplitRepo(fullName string) (string, string, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository full name %q", fullName)
	}
	return owner, name, nil
}
