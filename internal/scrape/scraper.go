// Package scrape is the HTML scraping tier: it fetches documentation and
// issue-tracker pages and extracts partial results from them.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
)

// ErrNotFound means the page was fetched but held nothing usable.
var ErrNotFound = errors.New("nothing found on page")

// Config locates the pages to scrape.
type Config struct {
	DocSiteURL    string
	GitHubSiteURL string
	IssueRepo     string
	ExplainerOrg  string
	MaxResults    int
	Timeout       time.Duration
}

// Scraper implements explorer.Scraper on top of a Fetcher.
type Scraper struct {
	fetcher explorer.Fetcher
	cfg     Config
	clock   explorer.Clock
	logger  *zap.Logger
}

// New constructs a Scraper.
func New(fetcher explorer.Fetcher, cfg Config, clock explorer.Clock, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &Scraper{fetcher: fetcher, cfg: cfg, clock: clock, logger: logger.Named("scrape")}
}

// DocURL returns the documentation page URL for an API name.
func (s *Scraper) DocURL(name string) string {
	return strings.TrimRight(s.cfg.DocSiteURL, "/") + explorer.DocPath(name)
}

// ScrapeDocPage extracts the title and description of the documentation page.
func (s *Scraper) ScrapeDocPage(ctx context.Context, name string) (explorer.DocPage, error) {
	pageURL := s.DocURL(name)
	resp, err := s.fetch(ctx, pageURL)
	if err != nil {
		return explorer.DocPage{}, err
	}
	doc, err := ParseDocument(resp.Body)
	if err != nil {
		return explorer.DocPage{}, fmt.Errorf("parse doc page: %w", err)
	}
	page := explorer.DocPage{
		Title:       ExtractTitle(doc),
		Description: ExtractMetaDescription(doc),
		URL:         pageURL,
	}
	if page.Title == "" {
		page.Title = name
	}
	if page.Description == "" {
		page.Description = ReadableExcerpt(resp.Body, pageURL)
	}
	if page.Description == "" {
		page.Description = fmt.Sprintf("The %s provides web functionality.", name)
	}
	return page, nil
}

// ScrapeBrowserSupport derives the support matrix from browser names on the
// documentation page.
func (s *Scraper) ScrapeBrowserSupport(ctx context.Context, name string) (explorer.BrowserSupport, error) {
	resp, err := s.fetch(ctx, s.DocURL(name))
	if err != nil {
		return explorer.BrowserSupport{}, err
	}
	return SupportFromKeywords(string(resp.Body)), nil
}

// ScrapeIssues collects issue links from the issue search page. An empty
// list is a valid result.
func (s *Scraper) ScrapeIssues(ctx context.Context, name string) ([]explorer.Issue, error) {
	site := strings.TrimRight(s.cfg.GitHubSiteURL, "/")
	pageURL := fmt.Sprintf("%s/%s/issues?q=%s", site, s.cfg.IssueRepo, url.QueryEscape(name))
	resp, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse issue page: %w", err)
	}
	issues := ExtractIssueLinks(doc, site, s.cfg.MaxResults)
	created := s.now().Format(time.RFC3339)
	for i := range issues {
		issues[i].CreatedAt = created
		issues[i].Author = "github-user"
	}
	return issues, nil
}

// ScrapeExplainer looks for a matching repository on the repository search
// page. It returns ErrNotFound when no repository link is present.
func (s *Scraper) ScrapeExplainer(ctx context.Context, name string) (*explorer.ExplainerInfo, error) {
	site := strings.TrimRight(s.cfg.GitHubSiteURL, "/")
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s explainer org:%s", name, s.cfg.ExplainerOrg))
	q.Set("type", "repositories")
	resp, err := s.fetch(ctx, site+"/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	link := ExtractRepoLink(doc, site, s.cfg.ExplainerOrg)
	if link == "" {
		return nil, ErrNotFound
	}
	return &explorer.ExplainerInfo{
		Title:       name + " Explainer",
		Description: "A comprehensive explainer for the " + name,
		URL:         link,
		Author:      s.cfg.ExplainerOrg,
		Date:        s.now().Format(time.RFC3339),
	}, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (explorer.FetchResponse, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	resp, err := s.fetcher.Fetch(ctx, explorer.FetchRequest{URL: pageURL})
	if err != nil {
		s.logger.Debug("scrape fetch failed", zap.String("url", pageURL), zap.Error(err))
		return explorer.FetchResponse{}, fmt.Errorf("scrape %s: %w", pageURL, err)
	}
	return resp, nil
}

func (s *Scraper) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
