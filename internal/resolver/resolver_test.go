package resolver

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	"github.com/JakeFAU/webapi-explorer/internal/randsrc"
	"github.com/JakeFAU/webapi-explorer/internal/source/bugtracker"
)

var errDown = errors.New("connection refused")

func TestMatchCatalog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  string
	}{
		{query: "websocket", want: "WebSocket API"},
		{query: "geolocation", want: "Geolocation API"},
		{query: "  Web Audio ", want: "Web Audio API"},
		{query: "how do I use indexeddb for storage", want: "IndexedDB API"},
		{query: "", want: "Fetch API"},
		{query: "quantum teleportation", want: DefaultAPIName},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, MatchCatalog(tt.query))
		})
	}
}

func TestResolveName(t *testing.T) {
	t.Parallel()

	docs := &fakeDocs{results: map[string][]explorer.Document{
		"fetch": {
			{Title: "Using Fetch"},
			{Title: "Fetch API"},
		},
		"audio": {{Title: "HTMLAudioElement"}},
	}}
	s := New(Deps{Docs: docs}, testConfig(), nil)
	ctx := context.Background()

	name, err := s.ResolveName(ctx, "fetch")
	require.NoError(t, err)
	require.Equal(t, "Fetch API", name)

	name, err = s.ResolveName(ctx, "audio")
	require.NoError(t, err)
	require.Equal(t, "Web Audio API", name, "no title carries 'api', falls back to catalog")

	docs.err = errDown
	name, err = s.ResolveName(ctx, "websocket")
	require.NoError(t, err)
	require.Equal(t, "WebSocket API", name)

	calls := docs.calls.Load()
	name, err = s.ResolveName(ctx, "   ")
	require.NoError(t, err)
	require.Equal(t, DefaultAPIName, name)
	require.Equal(t, calls, docs.calls.Load(), "blank query skips the search")
}

func TestIntroductionTiers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	docs := &fakeDocs{results: map[string][]explorer.Document{
		"Fetch API": {{Title: "Fetch API", Excerpt: "The Fetch API provides an interface.", URL: "https://mdn.test/fetch"}},
		"Push API":  {{Title: "Push API"}},
	}}
	scraper := &fakeScraper{page: explorer.DocPage{Title: "Canvas", Description: "scraped", URL: "https://mdn.test/canvas"}}
	s := New(Deps{Docs: docs, Scraper: scraper}, testConfig(), nil)

	intro, err := s.Introduction(ctx, "Fetch API")
	require.NoError(t, err)
	require.Equal(t, explorer.Introduction{Description: "The Fetch API provides an interface.", DocURL: "https://mdn.test/fetch"}, intro)

	intro, err = s.Introduction(ctx, "Push API")
	require.NoError(t, err)
	require.Equal(t, "The Push API provides a modern interface for web functionality.", intro.Description)
	require.Equal(t, "https://developer.mozilla.org/en-US/docs/Web/API/Push_API", intro.DocURL)

	intro, err = s.Introduction(ctx, "Canvas API")
	require.NoError(t, err)
	require.Equal(t, "scraped", intro.Description)

	scraper.err = errDown
	intro, err = s.Introduction(ctx, "Canvas API")
	require.NoError(t, err)
	require.Equal(t, "The Canvas API provides a modern interface for canvas. "+
		"It offers a powerful and flexible way to interact with web technologies.", intro.Description)
	require.Equal(t, "https://developer.mozilla.org/en-US/docs/Web/API/Canvas_API", intro.DocURL)
}

func TestScrapingToggleSkipsScraper(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{page: explorer.DocPage{Description: "scraped"}}
	cfg := testConfig()
	cfg.UseScraping = false
	s := New(Deps{Scraper: scraper}, cfg, nil)

	intro, err := s.Introduction(context.Background(), "File API")
	require.NoError(t, err)
	require.Contains(t, intro.Description, "modern interface for file")
	_, err = s.Issues(context.Background(), "File API")
	require.NoError(t, err)
	require.Zero(t, scraper.calls.Load())
}

func TestBrowserSupportTiers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	docs := &fakeDocs{results: map[string][]explorer.Document{
		"Fetch API browser compatibility": {{Title: "Fetch API"}},
	}}
	scraper := &fakeScraper{support: explorer.BrowserSupport{
		Chrome: explorer.SupportStatus{Version: "88+", Status: explorer.SupportSupported},
	}}
	s := New(Deps{Docs: docs, Scraper: scraper}, testConfig(), nil)

	support, err := s.BrowserSupport(ctx, "Fetch API")
	require.NoError(t, err)
	require.Equal(t, fixedSupportMatrix(), support)

	support, err = s.BrowserSupport(ctx, "WebGL API")
	require.NoError(t, err)
	require.Equal(t, scraper.support, support)

	scraper.err = errDown
	support, err = s.BrowserSupport(ctx, "WebGL API")
	require.NoError(t, err)
	require.Equal(t, fixedSupportMatrix(), support)
}

func TestExplainerTiers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := &fakeRepos{repos: []explorer.Repository{{HTMLURL: "https://github.com/WICG/fetch", Owner: "WICG", UpdatedAt: "2024-02-02"}}}
	scraper := &fakeScraper{explainer: &explorer.ExplainerInfo{Title: "Scraped", URL: "https://github.com/WICG/scraped"}}
	s := New(Deps{Repos: repos, Scraper: scraper}, testConfig(), nil)

	info, err := s.Explainer(ctx, "Web Audio API")
	require.NoError(t, err)
	require.Equal(t, &explorer.ExplainerInfo{
		Title:       "Web Audio API Explainer",
		Description: "A comprehensive explainer for the Web Audio API",
		URL:         "https://github.com/WICG/fetch",
		Author:      "WICG",
		Date:        "2024-02-02",
	}, info)
	require.Equal(t, explorer.RepoSearchRequest{
		Query: "web-audio api explainer",
		Org:   "WICG",
		Sort:  "updated",
		Order: "desc",
	}, repos.last)

	repos.repos = nil
	info, err = s.Explainer(ctx, "Web Audio API")
	require.NoError(t, err)
	require.Equal(t, "Scraped", info.Title)

	scraper.explainer = nil
	scraper.err = errDown
	info, err = s.Explainer(ctx, "Web Audio API")
	require.NoError(t, err)
	require.Nil(t, info, "absence is a valid result")
}

func TestIssuesTiers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	many := make([]explorer.Issue, 8)
	for i := range many {
		many[i] = explorer.Issue{Number: i + 1, Title: "issue", State: explorer.IssueOpen}
	}
	issues := &fakeIssues{issues: many}
	scraper := &fakeScraper{issues: []explorer.Issue{}}
	s := New(Deps{Issues: issues, Scraper: scraper}, testConfig(), nil)

	got, err := s.Issues(ctx, "Fetch API")
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, explorer.IssueSearchRequest{
		Query:   "Fetch API repo:web-platform-tests/wpt is:issue is:open",
		Sort:    "created",
		Order:   "desc",
		PerPage: 5,
	}, issues.last)

	issues.issues = nil
	got, err = s.Issues(ctx, "Fetch API")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got, "an empty scrape is a valid result")

	scraper.err = errDown
	got, err = s.Issues(ctx, "Fetch API")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 1234, got[0].Number)
	require.Equal(t, "https://github.com/web-platform-tests/wpt/issues/1234", got[0].URL)
	require.Contains(t, got[1].Title, "Fetch API")
}

func TestBugsAndStatusTiers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(Deps{Bugs: bugtracker.Stub{}, Rand: fixedRand(7)}, testConfig(), nil)
	bugs, err := s.Bugs(ctx, "Push API")
	require.NoError(t, err)
	require.Equal(t, "chromium:123456", bugs[0].ID)

	s = New(Deps{Bugs: &failingTracker{}, Rand: fixedRand(7)}, testConfig(), nil)
	bugs, err = s.Bugs(ctx, "Push API")
	require.NoError(t, err)
	require.Equal(t, "chromium:7", bugs[0].ID)
	require.Equal(t, "https://issues.chromium.org/issues/7", bugs[1].URL)

	status, err := s.Status(ctx, "Push API")
	require.NoError(t, err)
	require.Equal(t, "Push API is implemented in Chromium.", status.Summary)
	require.NotNil(t, status.RecentChanges)
	require.Empty(t, status.RecentChanges)

	s = New(Deps{}, testConfig(), nil)
	bugs, err = s.Bugs(ctx, "Push API")
	require.NoError(t, err)
	require.Len(t, bugs, 2)
	require.Equal(t, "Implement missing Push API feature in Chromium", bugs[0].Title)
}

func TestPredictionUsesRandomSource(t *testing.T) {
	t.Parallel()

	for idx, want := range []string{"continued adoption", "standard part", "evolve with new specifications"} {
		s := New(Deps{Rand: fixedRand(idx)}, testConfig(), nil)
		got, err := s.Prediction(context.Background(), "WebRTC API")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(got, "WebRTC API "))
		require.Contains(t, got, want)
	}
}

func TestRunChainStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Deps{}, testConfig(), nil).Introduction(ctx, "Fetch API")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunChainJoinsTierErrors(t *testing.T) {
	t.Parallel()

	s := New(Deps{}, testConfig(), nil)
	_, err := runChain(context.Background(), s, "test",
		tier[int]{tierPrimary, func(context.Context) (int, error) { return 0, errDown }},
		tier[int]{tierScrape, func(context.Context) (int, error) { return 0, ErrNoMatch }},
	)
	require.ErrorIs(t, err, ErrNoResult)
	require.ErrorIs(t, err, errDown)
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestExploreWithEverySourceDown(t *testing.T) {
	t.Parallel()

	deps := Deps{
		Docs:    &fakeDocs{err: errDown},
		Issues:  &fakeIssues{err: errDown},
		Repos:   &fakeRepos{err: errDown},
		Scraper: &fakeScraper{err: errDown},
		Bugs:    &failingTracker{},
	}
	steps := explorer.New(New(deps, testConfig(), nil)).Explore(context.Background(), "Fetch API")

	require.Len(t, steps, explorer.StepCount)
	for _, step := range steps {
		require.Equal(t, explorer.StatusCompleted, step.Status, step.Title)
	}
	info := explorer.Assemble(steps)
	require.Equal(t, "Fetch API", info.Name)
	require.Contains(t, info.Description, "Fetch API")
	require.Equal(t, fixedSupportMatrix(), info.BrowserSupport)
	require.Nil(t, info.Explainer)
	require.Contains(t, info.Issues[0].Title, "Fetch API")
	require.Contains(t, info.Bugs[0].Title, "Fetch API")
	require.Contains(t, info.Status.Summary, "Fetch API")
	require.Contains(t, info.FuturePrediction, "Fetch API")
}

func TestExploreIdempotentWithFixedSeed(t *testing.T) {
	t.Parallel()

	run := func() explorer.APIInfo {
		deps := Deps{
			Docs:    &fakeDocs{err: errDown},
			Scraper: &fakeScraper{err: errDown},
			Bugs:    &failingTracker{},
			Rand:    randsrc.New(99),
		}
		return explorer.Assemble(explorer.New(New(deps, testConfig(), nil)).Explore(context.Background(), "webgl"))
	}
	first, second := run(), run()
	require.Equal(t, "WebGL API", first.Name)
	require.Equal(t, first, second)
}

func testConfig() Config {
	return Config{
		Locale:        "en-US",
		Category:      "Web APIs",
		DocSiteURL:    "https://developer.mozilla.org",
		GitHubSiteURL: "https://github.com",
		ExplainerOrg:  "WICG",
		IssueRepo:     "web-platform-tests/wpt",
		MaxResults:    5,
		UseScraping:   true,
	}
}

type fakeDocs struct {
	results map[string][]explorer.Document
	err     error
	calls   atomic.Int32
}

func (f *fakeDocs) SearchDocs(_ context.Context, req explorer.DocSearchRequest) ([]explorer.Document, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[req.Query], nil
}

type fakeIssues struct {
	issues []explorer.Issue
	err    error
	last   explorer.IssueSearchRequest
}

func (f *fakeIssues) SearchIssues(_ context.Context, req explorer.IssueSearchRequest) ([]explorer.Issue, error) {
	f.last = req
	return f.issues, f.err
}

type fakeRepos struct {
	repos []explorer.Repository
	err   error
	last  explorer.RepoSearchRequest
}

func (f *fakeRepos) SearchRepositories(_ context.Context, req explorer.RepoSearchRequest) ([]explorer.Repository, error) {
	f.last = req
	return f.repos, f.err
}

type fakeScraper struct {
	page      explorer.DocPage
	support   explorer.BrowserSupport
	issues    []explorer.Issue
	explainer *explorer.ExplainerInfo
	err       error
	calls     atomic.Int32
}

func (f *fakeScraper) ScrapeDocPage(context.Context, string) (explorer.DocPage, error) {
	f.calls.Add(1)
	return f.page, f.err
}

func (f *fakeScraper) ScrapeBrowserSupport(context.Context, string) (explorer.BrowserSupport, error) {
	f.calls.Add(1)
	return f.support, f.err
}

func (f *fakeScraper) ScrapeIssues(context.Context, string) ([]explorer.Issue, error) {
	f.calls.Add(1)
	return f.issues, f.err
}

func (f *fakeScraper) ScrapeExplainer(context.Context, string) (*explorer.ExplainerInfo, error) {
	f.calls.Add(1)
	return f.explainer, f.err
}

type failingTracker struct{}

func (failingTracker) SearchBugs(context.Context, string) ([]explorer.Bug, error) {
	return nil, errDown
}

func (failingTracker) Status(context.Context, string) (explorer.ImplementationStatus, error) {
	return explorer.ImplementationStatus{}, errDown
}

type fixedRand int

func (r fixedRand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r) % n
}
