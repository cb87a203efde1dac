package explorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/metrics"
	"github.com/JakeFAU/webapi-explorer/internal/progress"
)

// Error messages recorded on failed steps.
const (
	fetchFailedPrefix = "failed to fetch data: "
	canceledMessage   = "exploration canceled"
)

// Config tunes the orchestrator.
type Config struct {
	// StepDelay pauses between steps so progress is observable by humans.
	StepDelay time.Duration
}

// StepObserver is notified after every step transition with a copy of the step.
type StepObserver func(Step)

// RunRequest describes one exploration.
type RunRequest struct {
	// ID is the run identifier; a UUID is generated when empty.
	ID       string
	Query    string
	Observer StepObserver
}

// Explorer runs the eight-step pipeline against a set of resolvers.
type Explorer struct {
	resolvers Resolvers
	emitter   progress.Emitter
	clock     Clock
	cfg       Config
	logger    *zap.Logger
}

// Option customizes an Explorer.
type Option func(*Explorer)

// WithEmitter routes progress events to emitter.
func WithEmitter(emitter progress.Emitter) Option {
	return func(e *Explorer) {
		if emitter != nil {
			e.emitter = emitter
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(e *Explorer) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Explorer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithConfig applies orchestrator settings.
func WithConfig(cfg Config) Option {
	return func(e *Explorer) {
		e.cfg = cfg
	}
}

// New constructs an Explorer.
func New(resolvers Resolvers, opts ...Option) *Explorer {
	e := &Explorer{
		resolvers: resolvers,
		emitter:   progress.NopEmitter{},
		clock:     systemClock{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Explore runs a full exploration for query and returns the final steps.
func (e *Explorer) Explore(ctx context.Context, query string) []Step {
	return e.Run(ctx, RunRequest{Query: query})
}

// Run executes the pipeline. Steps run strictly in order; a failing step is
// recorded and the pipeline moves on. When ctx is canceled the remaining
// steps are marked as errors and Run returns early.
func (e *Explorer) Run(ctx context.Context, req RunRequest) []Step {
	runID := e.runID(req.ID)
	logger := e.logger.With(zap.String("run_id", runID.String()))
	steps := NewSteps()
	started := e.clock.Now()

	e.emitter.Emit(progress.Event{
		RunID: progress.UUIDToBytes(runID),
		TS:    started,
		Stage: progress.StageRunStart,
		Query: req.Query,
	})
	logger.Info("exploration started", zap.String("query", req.Query))

	name := strings.TrimSpace(req.Query)
	for i := range steps {
		step := &steps[i]
		if ctx.Err() != nil {
			e.cancelRemaining(runID, steps[i:], req.Observer)
			e.finishRun(runID, started, progress.StageRunCanceled)
			logger.Info("exploration canceled", zap.Int("completed_steps", i))
			return steps
		}

		lc, err := newStepLifecycle(step, e.clock)
		if err != nil {
			step.Status = StatusError
			step.Error = err.Error()
			e.notify(runID, *step, req.Observer)
			continue
		}
		lc.start()
		e.notify(runID, *step, req.Observer)

		result, err := e.execute(ctx, step.ID, name)
		if err != nil {
			lc.fail(fetchFailedPrefix + err.Error())
			logger.Warn("step failed", zap.String("step", step.ID.Slug()), zap.Error(err))
		} else {
			lc.complete(result)
			if res, ok := result.(NameResult); ok {
				name = res.APIName
			}
			logger.Debug("step completed", zap.String("step", step.ID.Slug()), zap.Int64("duration_ms", step.DurationMs))
		}
		metrics.ObserveStep(step.ID.Slug(), string(step.Status), time.Duration(step.DurationMs)*time.Millisecond)
		e.notify(runID, *step, req.Observer)

		if i < len(steps)-1 {
			e.pause(ctx)
		}
	}

	e.finishRun(runID, started, progress.StageRunDone)
	logger.Info("exploration finished", zap.String("api", name))
	return steps
}

func (e *Explorer) runID(raw string) uuid.UUID {
	if id, err := uuid.Parse(raw); err == nil {
		return id
	}
	return uuid.New()
}

func (e *Explorer) execute(ctx context.Context, id StepID, name string) (StepResult, error) {
	payload, err := e.invoke(ctx, id, name)
	if err != nil {
		return nil, err
	}
	return Normalize(id, payload)
}

func (e *Explorer) invoke(ctx context.Context, id StepID, name string) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolver panic: %v", r)
		}
	}()
	switch id {
	case StepSearchAPI:
		return e.resolvers.ResolveName(ctx, name)
	case StepIntroduction:
		return e.resolvers.Introduction(ctx, name)
	case StepBrowserSupport:
		return e.resolvers.BrowserSupport(ctx, name)
	case StepExplainer:
		return e.resolvers.Explainer(ctx, name)
	case StepIssues:
		return e.resolvers.Issues(ctx, name)
	case StepBugs:
		return e.resolvers.Bugs(ctx, name)
	case StepImplStatus:
		return e.resolvers.Status(ctx, name)
	case StepPrediction:
		return e.resolvers.Prediction(ctx, name)
	default:
		return nil, fmt.Errorf("unknown step id %d", id)
	}
}

func (e *Explorer) cancelRemaining(runID uuid.UUID, rest []Step, observer StepObserver) {
	for i := range rest {
		step := &rest[i]
		if step.Status.Terminal() {
			continue
		}
		lc, err := newStepLifecycle(step, e.clock)
		if err != nil {
			step.Status = StatusError
			step.Error = canceledMessage
		} else {
			lc.fail(canceledMessage)
		}
		e.notify(runID, *step, observer)
	}
}

func (e *Explorer) notify(runID uuid.UUID, step Step, observer StepObserver) {
	evt := progress.Event{
		RunID:    progress.UUIDToBytes(runID),
		TS:       e.clock.Now(),
		Step:     int(step.ID),
		StepName: step.ID.Slug(),
	}
	switch step.Status {
	case StatusLoading:
		evt.Stage = progress.StageStepLoading
	case StatusCompleted:
		evt.Stage = progress.StageStepCompleted
		evt.Dur = time.Duration(step.DurationMs) * time.Millisecond
	case StatusError:
		evt.Stage = progress.StageStepError
		evt.Dur = time.Duration(step.DurationMs) * time.Millisecond
		evt.Note = step.Error
	default:
		return
	}
	e.emitter.Emit(evt)
	if observer != nil {
		observer(step)
	}
}

func (e *Explorer) finishRun(runID uuid.UUID, started time.Time, stage progress.Stage) {
	now := e.clock.Now()
	dur := now.Sub(started)
	if dur < 0 {
		dur = 0
	}
	e.emitter.Emit(progress.Event{
		RunID: progress.UUIDToBytes(runID),
		TS:    now,
		Stage: stage,
		Dur:   dur,
	})
}

func (e *Explorer) pause(ctx context.Context) {
	if e.cfg.StepDelay <= 0 {
		return
	}
	timer := time.NewTimer(e.cfg.StepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
