package track

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"betamax-recon/logging"
)

// IssueTracker reads the public issue tracker a scout attached to a signal.
type IssueTracker struct {
	Client *github.Client
	Logger logging.Logger
}

// NewIssueTracker returns a tracker using token when it is non-empty, and
// unauthenticated access (60 requests/hour) otherwise.
func NewIssueTracker(token string, logger logging.Logger) *IssueTracker {
	var tc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(context.Background(), ts)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &IssueTracker{Client: github.NewClient(tc), Logger: logger}
}

// ParseIssuesURL extracts owner and repository from a GitHub issues link such as
// https://github.com/owner/repo/issues.
func ParseIssuesURL(raw string) (owner, repo string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("invalid issues url: %w", err)
	}
	if host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."); host != "github.com" {
		return "", "", fmt.Errorf("unsupported issue tracker host %q", u.Hostname())
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("issues url %q has no owner/repo", raw)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// OpenIssues counts open issues (pull requests excluded) on the tracker.
func (t *IssueTracker) OpenIssues(ctx context.Context, issuesURL string) (int, error) {
	owner, repo, err := ParseIssuesURL(issuesURL)
	if err != nil {
		return 0, err
	}

	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100, Page: 1},
	}

	count := 0
	for {
		issues, resp, err := t.Client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			var rateErr *github.RateLimitError
			if errors.As(err, &rateErr) {
				return count, fmt.Errorf("github rate limit hit, resets at %s: %w", rateErr.Rate.Reset.Time, err)
			}
			return count, fmt.Errorf("failed to list issues for %s/%s: %w", owner, repo, err)
		}
		for _, issue := range issues {
			if !issue.IsPullRequest() {
				count++
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	t.Logger.WithFields(logging.Fields{
		"repo":        owner + "/" + repo,
		"open_issues": count,
	}).Debug("Counted open issues")
	return count, nil
}

// Enrich fills sig.OpenIssues when the signal carries an issue tracker link.
// Tracker failures are logged and leave the count unset.
func (t *IssueTracker) Enrich(ctx context.Context, sig *Signal) {
	if sig.IssuesURL == "" {
		return
	}
	n, err := t.OpenIssues(ctx, sig.IssuesURL)
	if err != nil {
		t.Logger.WithError(err).WithField("issues_url", sig.IssuesURL).Warn("Failed to read issue tracker")
		return
	}
	sig.OpenIssues = &n
}
