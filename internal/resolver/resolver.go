package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	"github.com/JakeFAU/webapi-explorer/internal/source/bugtracker"
)

const randomIDSpace = 1000000

// Config carries the lookup parameters shared by all resolvers.
type Config struct {
	Locale        string
	Category      string
	DocSiteURL    string
	GitHubSiteURL string
	ExplainerOrg  string
	IssueRepo     string
	MaxResults    int
	UseScraping   bool
}

// Deps are the collaborators behind each tier. A nil dependency makes its
// tier miss.
type Deps struct {
	Docs    explorer.DocSearcher
	Issues  explorer.IssueSearcher
	Repos   explorer.RepoSearcher
	Scraper explorer.Scraper
	Bugs    explorer.BugTracker
	Rand    explorer.RandomSource
}

// Set implements explorer.Resolvers.
type Set struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

var _ explorer.Resolvers = (*Set)(nil)

// New constructs a Set.
func New(deps Deps, cfg Config, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Locale == "" {
		cfg.Locale = "en-US"
	}
	return &Set{deps: deps, cfg: cfg, logger: logger.Named("resolver")}
}

// ResolveName maps a free-text query onto a canonical API name.
func (s *Set) ResolveName(ctx context.Context, query string) (string, error) {
	return runChain(ctx, s, "name",
		tier[string]{tierPrimary, func(ctx context.Context) (string, error) {
			needle := strings.ToLower(strings.TrimSpace(query))
			if needle == "" || s.deps.Docs == nil {
				return "", errUnavailable
			}
			docs, err := s.deps.Docs.SearchDocs(ctx, explorer.DocSearchRequest{
				Query:    query,
				Locale:   s.cfg.Locale,
				Category: s.cfg.Category,
			})
			if err != nil {
				return "", err
			}
			for _, doc := range docs {
				title := strings.ToLower(doc.Title)
				if strings.Contains(title, "api") && strings.Contains(title, needle) {
					return doc.Title, nil
				}
			}
			return "", ErrNoMatch
		}},
		tier[string]{tierSynthesis, func(context.Context) (string, error) {
			return MatchCatalog(query), nil
		}},
	)
}

// Introduction finds a description and documentation URL for name.
func (s *Set) Introduction(ctx context.Context, name string) (explorer.Introduction, error) {
	return runChain(ctx, s, "introduction",
		tier[explorer.Introduction]{tierPrimary, func(ctx context.Context) (explorer.Introduction, error) {
			if s.deps.Docs == nil {
				return explorer.Introduction{}, errUnavailable
			}
			docs, err := s.deps.Docs.SearchDocs(ctx, explorer.DocSearchRequest{Query: name, Locale: s.cfg.Locale})
			if err != nil {
				return explorer.Introduction{}, err
			}
			if len(docs) == 0 {
				return explorer.Introduction{}, ErrNoMatch
			}
			intro := explorer.Introduction{Description: docs[0].Excerpt, DocURL: docs[0].URL}
			if intro.Description == "" {
				intro.Description = shortDescription(name)
			}
			if intro.DocURL == "" {
				intro.DocURL = s.docURL(name)
			}
			return intro, nil
		}},
		tier[explorer.Introduction]{tierScrape, func(ctx context.Context) (explorer.Introduction, error) {
			if s.deps.Scraper == nil {
				return explorer.Introduction{}, errUnavailable
			}
			page, err := s.deps.Scraper.ScrapeDocPage(ctx, name)
			if err != nil {
				return explorer.Introduction{}, err
			}
			return explorer.Introduction{Description: page.Description, DocURL: page.URL}, nil
		}},
		tier[explorer.Introduction]{tierSynthesis, func(context.Context) (explorer.Introduction, error) {
			return explorer.Introduction{Description: synthesizedDescription(name), DocURL: s.docURL(name)}, nil
		}},
	)
}

// BrowserSupport builds the four-browser support matrix for name.
func (s *Set) BrowserSupport(ctx context.Context, name string) (explorer.BrowserSupport, error) {
	return runChain(ctx, s, "browser_support",
		tier[explorer.BrowserSupport]{tierPrimary, func(ctx context.Context) (explorer.BrowserSupport, error) {
			if s.deps.Docs == nil {
				return explorer.BrowserSupport{}, errUnavailable
			}
			docs, err := s.deps.Docs.SearchDocs(ctx, explorer.DocSearchRequest{
				Query:  name + " browser compatibility",
				Locale: s.cfg.Locale,
			})
			if err != nil {
				return explorer.BrowserSupport{}, err
			}
			if len(docs) == 0 {
				return explorer.BrowserSupport{}, ErrNoMatch
			}
			return fixedSupportMatrix(), nil
		}},
		tier[explorer.BrowserSupport]{tierScrape, func(ctx context.Context) (explorer.BrowserSupport, error) {
			if s.deps.Scraper == nil {
				return explorer.BrowserSupport{}, errUnavailable
			}
			return s.deps.Scraper.ScrapeBrowserSupport(ctx, name)
		}},
		tier[explorer.BrowserSupport]{tierSynthesis, func(context.Context) (explorer.BrowserSupport, error) {
			return fixedSupportMatrix(), nil
		}},
	)
}

// Explainer looks for a design explainer repository. Finding none is not an
// error: it returns nil.
func (s *Set) Explainer(ctx context.Context, name string) (*explorer.ExplainerInfo, error) {
	info, err := runChain(ctx, s, "explainer",
		tier[*explorer.ExplainerInfo]{tierPrimary, func(ctx context.Context) (*explorer.ExplainerInfo, error) {
			if s.deps.Repos == nil {
				return nil, errUnavailable
			}
			repos, err := s.deps.Repos.SearchRepositories(ctx, explorer.RepoSearchRequest{
				Query: explainerSlug(name) + " explainer",
				Org:   s.cfg.ExplainerOrg,
				Sort:  "updated",
				Order: "desc",
			})
			if err != nil {
				return nil, err
			}
			if len(repos) == 0 || repos[0].HTMLURL == "" {
				return nil, ErrNoMatch
			}
			repo := repos[0]
			description := repo.Description
			if description == "" {
				description = "A comprehensive explainer for the " + name
			}
			return &explorer.ExplainerInfo{
				Title:       name + " Explainer",
				Description: description,
				URL:         repo.HTMLURL,
				Author:      repo.Owner,
				Date:        repo.UpdatedAt,
			}, nil
		}},
		tier[*explorer.ExplainerInfo]{tierScrape, func(ctx context.Context) (*explorer.ExplainerInfo, error) {
			if s.deps.Scraper == nil {
				return nil, errUnavailable
			}
			info, err := s.deps.Scraper.ScrapeExplainer(ctx, name)
			if err != nil {
				return nil, err
			}
			if !info.Complete() {
				return nil, ErrNoMatch
			}
			return info, nil
		}},
	)
	if err != nil {
		if errors.Is(err, ErrNoResult) {
			s.logger.Debug("no explainer found", zap.String("api_name", name))
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// Issues lists recent open issues mentioning name.
func (s *Set) Issues(ctx context.Context, name string) ([]explorer.Issue, error) {
	return runChain(ctx, s, "issues",
		tier[[]explorer.Issue]{tierPrimary, func(ctx context.Context) ([]explorer.Issue, error) {
			if s.deps.Issues == nil {
				return nil, errUnavailable
			}
			issues, err := s.deps.Issues.SearchIssues(ctx, explorer.IssueSearchRequest{
				Query:   fmt.Sprintf("%s repo:%s is:issue is:open", name, s.cfg.IssueRepo),
				Sort:    "created",
				Order:   "desc",
				PerPage: s.cfg.MaxResults,
			})
			if err != nil {
				return nil, err
			}
			if len(issues) == 0 {
				return nil, ErrNoMatch
			}
			return capIssues(issues, s.cfg.MaxResults), nil
		}},
		tier[[]explorer.Issue]{tierScrape, func(ctx context.Context) ([]explorer.Issue, error) {
			if s.deps.Scraper == nil {
				return nil, errUnavailable
			}
			issues, err := s.deps.Scraper.ScrapeIssues(ctx, name)
			if err != nil {
				return nil, err
			}
			if issues == nil {
				issues = []explorer.Issue{}
			}
			return capIssues(issues, s.cfg.MaxResults), nil
		}},
		tier[[]explorer.Issue]{tierSynthesis, func(context.Context) ([]explorer.Issue, error) {
			return synthesizedIssues(name, s.cfg.GitHubSiteURL, s.cfg.IssueRepo), nil
		}},
	)
}

// Bugs lists engine bug records for name.
func (s *Set) Bugs(ctx context.Context, name string) ([]explorer.Bug, error) {
	return runChain(ctx, s, "bugs",
		tier[[]explorer.Bug]{tierPrimary, func(ctx context.Context) ([]explorer.Bug, error) {
			if s.deps.Bugs == nil {
				return nil, errUnavailable
			}
			bugs, err := s.deps.Bugs.SearchBugs(ctx, name)
			if err != nil {
				return nil, err
			}
			if len(bugs) == 0 {
				return nil, ErrNoMatch
			}
			return bugs, nil
		}},
		tier[[]explorer.Bug]{tierFallback, func(context.Context) ([]explorer.Bug, error) {
			if s.deps.Rand == nil {
				return nil, errUnavailable
			}
			return bugtracker.Records(name, s.deps.Rand.IntN(randomIDSpace), s.deps.Rand.IntN(randomIDSpace)), nil
		}},
		tier[[]explorer.Bug]{tierSynthesis, func(context.Context) ([]explorer.Bug, error) {
			return synthesizedBugs(name), nil
		}},
	)
}

// Status summarizes engine implementation state for name.
func (s *Set) Status(ctx context.Context, name string) (explorer.ImplementationStatus, error) {
	return runChain(ctx, s, "status",
		tier[explorer.ImplementationStatus]{tierPrimary, func(ctx context.Context) (explorer.ImplementationStatus, error) {
			if s.deps.Bugs == nil {
				return explorer.ImplementationStatus{}, errUnavailable
			}
			return s.deps.Bugs.Status(ctx, name)
		}},
		tier[explorer.ImplementationStatus]{tierSynthesis, func(context.Context) (explorer.ImplementationStatus, error) {
			return synthesizedStatus(name), nil
		}},
	)
}

// Prediction picks one of the evolution templates for name.
func (s *Set) Prediction(ctx context.Context, name string) (string, error) {
	return runChain(ctx, s, "prediction",
		tier[string]{tierSynthesis, func(context.Context) (string, error) {
			idx := 0
			if s.deps.Rand != nil {
				idx = s.deps.Rand.IntN(len(predictionTemplates))
			}
			return fmt.Sprintf(predictionTemplates[idx], name), nil
		}},
	)
}

func (s *Set) docURL(name string) string {
	return strings.TrimRight(s.cfg.DocSiteURL, "/") + explorer.DocPath(name)
}

func capIssues(issues []explorer.Issue, limit int) []explorer.Issue {
	if limit > 0 && len(issues) > limit {
		return issues[:limit]
	}
	return issues
}
