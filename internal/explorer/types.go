// Package explorer defines the exploration pipeline, its step model, and the
// types shared by resolvers, sources, and the HTTP surface.
package explorer

import (
	"net/http"
	"strings"
	"time"
)

// StepID is the fixed sequence position of a pipeline stage.
type StepID int

// Pipeline stages in execution order.
const (
	StepSearchAPI StepID = iota + 1
	StepIntroduction
	StepBrowserSupport
	StepExplainer
	StepIssues
	StepBugs
	StepImplStatus
	StepPrediction
)

// StepCount is the number of stages in every exploration.
const StepCount = 8

// StepStatus is the lifecycle state of a Step.
type StepStatus string

// Step status values. Transitions only move forward:
// pending -> loading -> (completed | error).
const (
	StatusPending   StepStatus = "pending"
	StatusLoading   StepStatus = "loading"
	StatusCompleted StepStatus = "completed"
	StatusError     StepStatus = "error"
)

// Terminal reports whether the status is completed or error.
func (s StepStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Step is one stage of an exploration run.
type Step struct {
	ID          StepID     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	Result      StepResult `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	DurationMs  int64      `json:"duration_ms,omitempty"`
}

type stepLabel struct {
	title       string
	description string
}

var stepLabels = map[StepID]stepLabel{
	StepSearchAPI:      {"Search Relevant API", "Finding the most relevant API from MDN Web API documentation..."},
	StepIntroduction:   {"API Introduction", "Gathering API introduction and documentation..."},
	StepBrowserSupport: {"Browser Support", "Analyzing browser support status..."},
	StepExplainer:      {"Explainer Search", "Searching for public explainers..."},
	StepIssues:         {"GitHub Issues", "Finding recent GitHub issues..."},
	StepBugs:           {"Chromium Bugs", "Searching Chromium bug portal..."},
	StepImplStatus:     {"Chromium Status", "Analyzing current Chromium implementation..."},
	StepPrediction:     {"Future Prediction", "Generating future evolution prediction..."},
}

// String returns the step title.
func (id StepID) String() string {
	if label, ok := stepLabels[id]; ok {
		return label.title
	}
	return "Unknown Step"
}

// Slug returns a lowercase label suitable for metrics and log fields.
func (id StepID) Slug() string {
	return strings.ReplaceAll(strings.ToLower(id.String()), " ", "_")
}

// NewSteps builds the eight pending steps of a fresh exploration.
func NewSteps() []Step {
	steps := make([]Step, 0, StepCount)
	for id := StepSearchAPI; id <= StepPrediction; id++ {
		label := stepLabels[id]
		steps = append(steps, Step{
			ID:          id,
			Title:       label.title,
			Description: label.description,
			Status:      StatusPending,
		})
	}
	return steps
}

// SupportLevel classifies browser support for an API.
type SupportLevel string

// Support levels reported per browser.
const (
	SupportSupported    SupportLevel = "supported"
	SupportPartial      SupportLevel = "partial"
	SupportNotSupported SupportLevel = "not-supported"
	SupportUnknown      SupportLevel = "unknown"
)

// Valid reports whether the level is one of the known values.
func (l SupportLevel) Valid() bool {
	switch l {
	case SupportSupported, SupportPartial, SupportNotSupported, SupportUnknown:
		return true
	default:
		return false
	}
}

// SupportStatus is the support state of one browser.
type SupportStatus struct {
	Version string       `json:"version"`
	Status  SupportLevel `json:"status"`
	Notes   string       `json:"notes,omitempty"`
}

// BrowserSupport is the fixed four-browser support matrix.
type BrowserSupport struct {
	Chrome  SupportStatus `json:"chrome"`
	Firefox SupportStatus `json:"firefox"`
	Safari  SupportStatus `json:"safari"`
	Edge    SupportStatus `json:"edge"`
}

// Browsers lists the matrix keys in display order.
var Browsers = []string{"chrome", "firefox", "safari", "edge"}

// ByBrowser returns the matrix keyed by browser name.
func (b BrowserSupport) ByBrowser() map[string]SupportStatus {
	return map[string]SupportStatus{
		"chrome":  b.Chrome,
		"firefox": b.Firefox,
		"safari":  b.Safari,
		"edge":    b.Edge,
	}
}

// ExplainerInfo points at a design explainer for an API.
type ExplainerInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Author      string `json:"author,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Complete reports whether the record carries a title and URL.
func (e *ExplainerInfo) Complete() bool {
	return e != nil && strings.TrimSpace(e.Title) != "" && strings.TrimSpace(e.URL) != ""
}

// IssueState is the open/closed state of a tracker issue.
type IssueState string

// Issue states.
const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
)

// Issue is a record from the source-code hosting issue tracker.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	State     IssueState `json:"state"`
	CreatedAt string     `json:"created_at"`
	Author    string     `json:"author"`
}

// Priority is a bug-tracker priority bucket.
type Priority string

// Bug priorities, most urgent first.
const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// Bug is a record from the browser-engine bug tracker.
type Bug struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Priority Priority `json:"priority"`
	Status   string   `json:"status"`
	Assignee string   `json:"assignee,omitempty"`
}

// Change is a single implementation change record.
type Change struct {
	Commit      string `json:"commit"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Author      string `json:"author"`
}

// ImplementationStatus summarizes engine implementation state.
type ImplementationStatus struct {
	Summary       string   `json:"summary"`
	RecentChanges []Change `json:"recent_changes"`
}

// Introduction is the description payload of the documentation step.
type Introduction struct {
	Description string `json:"description"`
	DocURL      string `json:"doc_url"`
}

// APIInfo aggregates everything learned about one API.
type APIInfo struct {
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	DocURL           string               `json:"doc_url"`
	BrowserSupport   BrowserSupport       `json:"browser_support"`
	Explainer        *ExplainerInfo       `json:"explainer,omitempty"`
	Issues           []Issue              `json:"issues"`
	Bugs             []Bug                `json:"bugs"`
	Status           ImplementationStatus `json:"status"`
	FuturePrediction string               `json:"future_prediction"`
}

// DocPath returns the documentation path for an API name. Only the first
// space is replaced, matching the documentation site's slug convention.
func DocPath(name string) string {
	return "/en-US/docs/Web/API/" + strings.Replace(name, " ", "_", 1)
}

// Document is one documentation search hit.
type Document struct {
	Title   string
	Excerpt string
	URL     string
}

// DocSearchRequest queries the documentation search service.
type DocSearchRequest struct {
	Query    string
	Locale   string
	Category string
}

// IssueSearchRequest queries the issue tracker.
type IssueSearchRequest struct {
	Query   string
	Sort    string
	Order   string
	PerPage int
}

// RepoSearchRequest queries repositories on the issue-tracker host.
type RepoSearchRequest struct {
	Query string
	Org   string
	Sort  string
	Order string
}

// Repository is one repository search hit.
type Repository struct {
	Description string
	HTMLURL     string
	Owner       string
	UpdatedAt   string
}

// DocPage is what the scraping tier extracts from a documentation page.
type DocPage struct {
	Title       string
	Description string
	URL         string
}

// FetchRequest captures everything needed to fetch a page.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// RunState is the lifecycle state of an asynchronous exploration.
type RunState string

// Run states.
const (
	RunQueued    RunState = "queued"
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunCanceled  RunState = "canceled"
)

// Terminal reports whether the run will no longer change.
func (s RunState) Terminal() bool {
	return s == RunSucceeded || s == RunCanceled
}

// Run is an exploration tracked by the HTTP surface.
type Run struct {
	ID        string     `json:"id"`
	Query     string     `json:"query"`
	State     RunState   `json:"state"`
	Submitted time.Time  `json:"submitted_at"`
	Started   *time.Time `json:"started_at,omitempty"`
	Finished  *time.Time `json:"finished_at,omitempty"`
	ErrorText string     `json:"error_text,omitempty"`
	Steps     []Step     `json:"steps"`
}

// QueueItem wraps a run ready to execute.
type QueueItem struct {
	RunID     string
	Query     string
	Submitted int64
}
