// Package github searches GitHub issues authored by a user in one repository.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gyaneshwarpardhi/trackstats/internal/metrics"
	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
	"github.com/gyaneshwarpardhi/trackstats/internal/transport"
)

// Accept is the media type recommended by the GitHub REST API.
const Accept = "application/vnd.github+json"

// DefaultPerPage is the largest page GitHub search serves.
const DefaultPerPage = 100

// Client wraps a transport.Client rooted at the GitHub API.
type Client struct {
	api *transport.Client
}

func New(api *transport.Client) *Client { return &Client{api: api} }

// Query selects the issues opened by Author in Repo ("owner/name").
type Query struct {
	Repo    string
	Author  string
	PerPage int
}

type searchPage struct {
	TotalCount int             `json:"total_count"`
	Items      []tracker.Issue `json:"items"`
}

// SearchIssues pages through /search/issues until a short page is returned.
func (c *Client) SearchIssues(ctx context.Context, q Query) ([]tracker.Issue, error) {
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	params := url.Values{}
	params.Set("q", fmt.Sprintf("repo:%s is:issue author:%s", q.Repo, q.Author))
	params.Set("per_page", strconv.Itoa(q.PerPage))

	var issues []tracker.Issue
	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))
		var resp searchPage
		if err := c.api.GetJSON(ctx, "/search/issues", params, &resp); err != nil {
			return nil, fmt.Errorf("search issues author:%s page %d: %w", q.Author, page, err)
		}
		metrics.SearchPages.WithLabelValues("github").Inc()
		issues = append(issues, resp.Items...)
		if len(resp.Items) < q.PerPage {
			break
		}
	}
	slog.Debug("github search complete", "author", q.Author, "repo", q.Repo, "issues", len(issues))
	return issues, nil
}
