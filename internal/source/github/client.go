// Package github is the structured client for issue and repository search.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	"github.com/JakeFAU/webapi-explorer/internal/source"
)

const maxPerPage = 100

// Config points the client at the API and carries the optional token.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client implements explorer.IssueSearcher and explorer.RepoSearcher.
type Client struct {
	cfg Config
	api *source.Client
}

type issuesResponse struct {
	Items []struct {
		Number    int    `json:"number"`
		Title     string `json:"title"`
		HTMLURL   string `json:"html_url"`
		State     string `json:"state"`
		CreatedAt string `json:"created_at"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"items"`
}

type reposResponse struct {
	Items []struct {
		Description string `json:"description"`
		HTMLURL     string `json:"html_url"`
		UpdatedAt   string `json:"updated_at"`
		Owner       struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"items"`
}

// New constructs a Client. waiter may be nil.
func New(cfg Config, httpClient *http.Client, waiter source.Waiter, logger *zap.Logger) *Client {
	headers := http.Header{}
	headers.Set("Accept", "application/vnd.github.v3+json")
	headers.Set("User-Agent", "webapi-explorer")
	if cfg.Token != "" {
		headers.Set("Authorization", "token "+cfg.Token)
	}
	return &Client{
		cfg: cfg,
		api: source.NewClient(source.Options{
			Name:       "github",
			Timeout:    cfg.Timeout,
			Headers:    headers,
			HTTPClient: httpClient,
			Waiter:     waiter,
			Logger:     logger,
		}),
	}
}

// SearchIssues runs an issue search.
func (c *Client) SearchIssues(ctx context.Context, req explorer.IssueSearchRequest) ([]explorer.Issue, error) {
	q := url.Values{}
	q.Set("q", req.Query)
	if req.Sort != "" {
		q.Set("sort", req.Sort)
		q.Set("order", orDefault(req.Order, "desc"))
	}
	if req.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(min(req.PerPage, maxPerPage)))
	}
	u, err := source.Endpoint(c.cfg.BaseURL, "/search/issues", q)
	if err != nil {
		return nil, err
	}

	var resp issuesResponse
	if err := c.api.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("github issue search: %w", err)
	}
	issues := make([]explorer.Issue, 0, len(resp.Items))
	for _, item := range resp.Items {
		state := explorer.IssueOpen
		if item.State == string(explorer.IssueClosed) {
			state = explorer.IssueClosed
		}
		issues = append(issues, explorer.Issue{
			Number:    item.Number,
			Title:     item.Title,
			URL:       item.HTMLURL,
			State:     state,
			CreatedAt: item.CreatedAt,
			Author:    item.User.Login,
		})
	}
	if req.PerPage > 0 && len(issues) > req.PerPage {
		issues = issues[:req.PerPage]
	}
	return issues, nil
}

// SearchRepositories runs a repository search. The org is sent both as a
// qualifier in q and as its own parameter.
func (c *Client) SearchRepositories(ctx context.Context, req explorer.RepoSearchRequest) ([]explorer.Repository, error) {
	query := req.Query
	q := url.Values{}
	if req.Org != "" {
		query += " org:" + req.Org
		q.Set("org", req.Org)
	}
	q.Set("q", query)
	if req.Sort != "" {
		q.Set("sort", req.Sort)
		q.Set("order", orDefault(req.Order, "desc"))
	}
	u, err := source.Endpoint(c.cfg.BaseURL, "/search/repositories", q)
	if err != nil {
		return nil, err
	}

	var resp reposResponse
	if err := c.api.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("github repository search: %w", err)
	}
	repos := make([]explorer.Repository, 0, len(resp.Items))
	for _, item := range resp.Items {
		repos = append(repos, explorer.Repository{
			Description: item.Description,
			HTMLURL:     item.HTMLURL,
			Owner:       item.Owner.Login,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	return repos, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
