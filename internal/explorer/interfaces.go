package explorer

import (
	"context"
	"errors"
	"time"
)

// Resolvers produces the data behind each pipeline stage. Every method is
// expected to degrade through its own fallback tiers and only return an error
// when all of them failed.
type Resolvers interface {
	ResolveName(ctx context.Context, query string) (string, error)
	Introduction(ctx context.Context, name string) (Introduction, error)
	BrowserSupport(ctx context.Context, name string) (BrowserSupport, error)
	Explainer(ctx context.Context, name string) (*ExplainerInfo, error)
	Issues(ctx context.Context, name string) ([]Issue, error)
	Bugs(ctx context.Context, name string) ([]Bug, error)
	Status(ctx context.Context, name string) (ImplementationStatus, error)
	Prediction(ctx context.Context, name string) (string, error)
}

// DocSearcher queries the documentation search service.
type DocSearcher interface {
	SearchDocs(ctx context.Context, req DocSearchRequest) ([]Document, error)
}

// IssueSearcher queries the issue tracker.
type IssueSearcher interface {
	SearchIssues(ctx context.Context, req IssueSearchRequest) ([]Issue, error)
}

// RepoSearcher queries repositories on the issue-tracker host.
type RepoSearcher interface {
	SearchRepositories(ctx context.Context, req RepoSearchRequest) ([]Repository, error)
}

// Scraper is the HTML scraping tier. Each method fetches one page and
// extracts a partial result; any error means "fall through".
type Scraper interface {
	ScrapeDocPage(ctx context.Context, name string) (DocPage, error)
	ScrapeBrowserSupport(ctx context.Context, name string) (BrowserSupport, error)
	ScrapeIssues(ctx context.Context, name string) ([]Issue, error)
	ScrapeExplainer(ctx context.Context, name string) (*ExplainerInfo, error)
}

// BugTracker is the browser-engine bug tracker. Only a synthetic
// implementation exists; a real integration replaces it wholesale.
type BugTracker interface {
	SearchBugs(ctx context.Context, name string) ([]Bug, error)
	Status(ctx context.Context, name string) (ImplementationStatus, error)
}

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// RandomSource supplies the randomness used by synthesized content.
type RandomSource interface {
	IntN(n int) int
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Run store errors.
var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunExists   = errors.New("run already exists")
	// ErrRunFinished is returned when a state update targets a run that
	// already reached a terminal state.
	ErrRunFinished = errors.New("run already finished")
)

// ErrQueueClosed is returned by Queue implementations once closed.
var ErrQueueClosed = errors.New("queue closed")

// RunStore keeps asynchronous runs and their live steps.
type RunStore interface {
	CreateRun(ctx context.Context, run Run) error
	UpdateRunState(ctx context.Context, runID string, state RunState, errText string) error
	RecordStep(ctx context.Context, runID string, step Step) error
	GetRun(ctx context.Context, runID string) (Run, error)
}

// Queue provides enqueue/dequeue semantics for runs.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}
