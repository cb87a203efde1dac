package explorer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webapi-explorer/internal/progress"
)

func TestExploreCompletesAllSteps(t *testing.T) {
	t.Parallel()

	res := newFakeResolvers()
	steps := New(res).Explore(context.Background(), "  fetch  ")

	require.Len(t, steps, StepCount)
	for i, step := range steps {
		require.Equal(t, StepID(i+1), step.ID)
		require.Equal(t, StatusCompleted, step.Status, step.Title)
		require.NotNil(t, step.Result)
		require.Equal(t, step.ID, step.Result.StepID())
		require.NotNil(t, step.StartedAt)
		require.NotNil(t, step.FinishedAt)
	}
	require.Equal(t, "fetch", res.nameQuery())
	require.Equal(t, []string{"Fetch API"}, res.uniqueNames())

	info := Assemble(steps)
	require.Equal(t, "Fetch API", info.Name)
	require.Equal(t, "intro for Fetch API", info.Description)
	require.Len(t, info.Issues, 1)
	require.Nil(t, info.Explainer)
}

func TestExploreRecordsFailureAndContinues(t *testing.T) {
	t.Parallel()

	res := newFakeResolvers()
	res.issuesErr = errors.New("upstream timeout")
	steps := New(res).Explore(context.Background(), "fetch")

	require.Equal(t, StatusError, steps[StepIssues-1].Status)
	require.Equal(t, "failed to fetch data: upstream timeout", steps[StepIssues-1].Error)
	require.Nil(t, steps[StepIssues-1].Result)
	for _, id := range []StepID{StepBugs, StepImplStatus, StepPrediction} {
		require.Equal(t, StatusCompleted, steps[id-1].Status)
	}
}

func TestExploreFailedNameKeepsQuery(t *testing.T) {
	t.Parallel()

	res := newFakeResolvers()
	res.nameErr = errors.New("no match")
	steps := New(res).Explore(context.Background(), "web audio")

	require.Equal(t, StatusError, steps[0].Status)
	require.Equal(t, []string{"web audio"}, res.uniqueNames())
}

func TestExploreRecoversResolverPanic(t *testing.T) {
	t.Parallel()

	res := newFakeResolvers()
	res.panicOn = StepBrowserSupport
	steps := New(res).Explore(context.Background(), "fetch")

	require.Equal(t, StatusError, steps[StepBrowserSupport-1].Status)
	require.Contains(t, steps[StepBrowserSupport-1].Error, "resolver panic")
	require.Equal(t, StatusCompleted, steps[StepExplainer-1].Status)
}

func TestExploreCanceledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newFakeResolvers()
	steps := New(res).Explore(ctx, "fetch")
	for _, step := range steps {
		require.Equal(t, StatusError, step.Status)
		require.Equal(t, "exploration canceled", step.Error)
	}
	require.Empty(t, res.uniqueNames())
}

func TestRunCancelMidway(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []Step
	observer := func(step Step) {
		seen = append(seen, step)
		if step.ID == StepBrowserSupport && step.Status == StatusCompleted {
			cancel()
		}
	}
	emitter := &recordingEmitter{}
	steps := New(newFakeResolvers(), WithEmitter(emitter)).Run(ctx, RunRequest{Query: "fetch", Observer: observer})

	for _, step := range steps[:StepBrowserSupport] {
		require.Equal(t, StatusCompleted, step.Status)
	}
	for _, step := range steps[StepBrowserSupport:] {
		require.Equal(t, StatusError, step.Status)
		require.Equal(t, "exploration canceled", step.Error)
	}
	// 3 steps x (loading + completed) + 5 canceled.
	require.Len(t, seen, 11)
	stages := emitter.stages()
	require.Equal(t, progress.StageRunStart, stages[0])
	require.Equal(t, progress.StageRunCanceled, stages[len(stages)-1])
}

func TestRunObserverSeesForwardTransitions(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	statuses := map[StepID][]StepStatus{}
	observer := func(step Step) {
		mu.Lock()
		defer mu.Unlock()
		statuses[step.ID] = append(statuses[step.ID], step.Status)
	}
	emitter := &recordingEmitter{}
	New(newFakeResolvers(), WithEmitter(emitter)).Run(context.Background(), RunRequest{
		ID:       "0190c3f0-0000-7000-8000-000000000001",
		Query:    "fetch",
		Observer: observer,
	})

	require.Len(t, statuses, StepCount)
	for id, got := range statuses {
		require.Equal(t, []StepStatus{StatusLoading, StatusCompleted}, got, id.String())
	}
	events := emitter.all()
	require.Len(t, events, 2+2*StepCount)
	require.Equal(t, "0190c3f0-0000-7000-8000-000000000001", events[0].RunUUID().String())
	require.Equal(t, progress.StageRunDone, events[len(events)-1].Stage)
	for _, evt := range events {
		require.NoError(t, evt.Validate())
	}
}

func TestRunStepDelayHonorsCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	exp := New(newFakeResolvers(), WithConfig(Config{StepDelay: time.Hour}))
	start := time.Now()
	steps := exp.Explore(ctx, "fetch")

	require.Less(t, time.Since(start), 5*time.Second)
	require.Equal(t, StatusCompleted, steps[0].Status)
	require.Equal(t, StatusError, steps[StepCount-1].Status)
}

func TestRunUsesClockForTimestamps(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: 10 * time.Millisecond}
	steps := New(newFakeResolvers(), WithClock(clock)).Explore(context.Background(), "fetch")

	for _, step := range steps {
		require.NotNil(t, step.StartedAt)
		require.True(t, step.FinishedAt.After(*step.StartedAt))
		require.Positive(t, step.DurationMs)
	}
}

type fakeResolvers struct {
	mu        sync.Mutex
	names     []string
	query     string
	nameErr   error
	issuesErr error
	panicOn   StepID
}

func newFakeResolvers() *fakeResolvers {
	return &fakeResolvers{}
}

func (f *fakeResolvers) record(id StepID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == StepSearchAPI {
		f.query = name
		return
	}
	f.names = append(f.names, name)
	if f.panicOn == id {
		panic("boom")
	}
}

func (f *fakeResolvers) nameQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

func (f *fakeResolvers) uniqueNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, n := range f.names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeResolvers) ResolveName(_ context.Context, query string) (string, error) {
	f.record(StepSearchAPI, query)
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return "Fetch API", nil
}

func (f *fakeResolvers) Introduction(_ context.Context, name string) (Introduction, error) {
	f.record(StepIntroduction, name)
	return Introduction{Description: "intro for " + name, DocURL: "https://example.test/" + name}, nil
}

func (f *fakeResolvers) BrowserSupport(_ context.Context, name string) (BrowserSupport, error) {
	f.record(StepBrowserSupport, name)
	return BrowserSupport{Chrome: SupportStatus{Version: "88+", Status: SupportSupported}}, nil
}

func (f *fakeResolvers) Explainer(_ context.Context, name string) (*ExplainerInfo, error) {
	f.record(StepExplainer, name)
	return nil, nil
}

func (f *fakeResolvers) Issues(_ context.Context, name string) ([]Issue, error) {
	f.record(StepIssues, name)
	if f.issuesErr != nil {
		return nil, f.issuesErr
	}
	return []Issue{{Number: 1, Title: name, State: IssueOpen}}, nil
}

func (f *fakeResolvers) Bugs(_ context.Context, name string) ([]Bug, error) {
	f.record(StepBugs, name)
	return nil, nil
}

func (f *fakeResolvers) Status(_ context.Context, name string) (ImplementationStatus, error) {
	f.record(StepImplStatus, name)
	return ImplementationStatus{Summary: name + " shipped"}, nil
}

func (f *fakeResolvers) Prediction(_ context.Context, name string) (string, error) {
	f.record(StepPrediction, name)
	return name + " will evolve", nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recordingEmitter) Emit(evt progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) all() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Event(nil), r.events...)
}

func (r *recordingEmitter) stages() []progress.Stage {
	out := []progress.Stage{}
	for _, evt := range r.all() {
		out = append(out, evt.Stage)
	}
	return out
}

type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}
