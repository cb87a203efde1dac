// Package worker executes queued explorations.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	"github.com/JakeFAU/webapi-explorer/internal/metrics"
)

// Runner executes one exploration run.
type Runner interface {
	Run(ctx context.Context, req explorer.RunRequest) []explorer.Step
}

// Worker consumes queue items and runs the exploration pipeline.
type Worker struct {
	queue    explorer.Queue
	runStore explorer.RunStore
	runner   Runner
	registry *Registry
	clock    explorer.Clock
	logger   *zap.Logger
}

// New constructs a Worker. A nil registry disables cancellation by run ID.
func New(
	queue explorer.Queue,
	runStore explorer.RunStore,
	runner Runner,
	registry *Registry,
	clock explorer.Clock,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Worker{
		queue:    queue,
		runStore: runStore,
		runner:   runner,
		registry: registry,
		clock:    clock,
		logger:   logger,
	}
}

// Run blocks, consuming queue items until the context finishes or the queue
// is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, explorer.ErrQueueClosed) {
				w.logger.Info("run queue closed, worker stopping")
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued run", zap.String("run_id", item.RunID))
		w.processRun(ctx, item)
	}
}

func (w *Worker) processRun(ctx context.Context, item explorer.QueueItem) {
	logger := w.logger.With(zap.String("run_id", item.RunID))
	if w.runner == nil {
		logger.Error("no runner configured")
		return
	}

	run, err := w.runStore.GetRun(ctx, item.RunID)
	if err != nil {
		logger.Error("load run failed", zap.Error(err))
		return
	}
	if run.State.Terminal() {
		logger.Info("skipping finished run", zap.String("state", string(run.State)))
		return
	}

	// Cancels that follow the running transition must find the run registered.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.registry.register(item.RunID, cancel)
	defer w.registry.release(item.RunID)

	if err := w.runStore.UpdateRunState(ctx, item.RunID, explorer.RunRunning, ""); err != nil {
		if errors.Is(err, explorer.ErrRunFinished) {
			logger.Info("run finished before it started", zap.Error(err))
			return
		}
		logger.Error("update run state failed", zap.Error(err))
		return
	}

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	// Store writes must outlive a canceled run so the final steps land.
	storeCtx := context.WithoutCancel(ctx)
	started := w.now()
	w.runner.Run(runCtx, explorer.RunRequest{
		ID:    item.RunID,
		Query: item.Query,
		Observer: func(step explorer.Step) {
			if err := w.runStore.RecordStep(storeCtx, item.RunID, step); err != nil {
				logger.Warn("record step failed", zap.String("step", step.ID.Slug()), zap.Error(err))
			}
		},
	})

	state, errText := deriveFinalState(runCtx)
	if err := w.runStore.UpdateRunState(storeCtx, item.RunID, state, errText); err != nil {
		if errors.Is(err, explorer.ErrRunFinished) {
			logger.Debug("run state already final", zap.Error(err))
		} else {
			logger.Error("final run state update failed", zap.Error(err))
		}
	}
	metrics.ObserveRun(string(state))
	logger.Info("run finished",
		zap.String("state", string(state)),
		zap.Duration("duration", w.now().Sub(started)),
	)
}

func (w *Worker) now() time.Time {
	if w.clock == nil {
		return time.Now().UTC()
	}
	return w.clock.Now()
}

func deriveFinalState(ctx context.Context) (explorer.RunState, string) {
	if ctx.Err() != nil {
		return explorer.RunCanceled, "exploration canceled"
	}
	return explorer.RunSucceeded, ""
}
