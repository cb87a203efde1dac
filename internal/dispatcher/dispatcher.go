// Package dispatcher manages worker fan-out over the run queue.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	"github.com/JakeFAU/webapi-explorer/internal/worker"
)

// Dispatcher fans out queued runs to a pool of workers.
type Dispatcher struct {
	queue    explorer.Queue
	workers  []*worker.Worker
	registry *worker.Registry
}

// New creates a Dispatcher. registry must be the one shared with workers for
// Cancel to reach in-flight runs.
func New(queue explorer.Queue, workers []*worker.Worker, registry *worker.Registry) *Dispatcher {
	if registry == nil {
		registry = worker.NewRegistry()
	}
	return &Dispatcher{
		queue:    queue,
		workers:  workers,
		registry: registry,
	}
}

// Run starts all workers and blocks until the context finishes.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	<-ctx.Done()
	wg.Wait()
}

// Enqueue proxies to the underlying queue.
func (d *Dispatcher) Enqueue(ctx context.Context, item explorer.QueueItem) error {
	if err := d.queue.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}

// Cancel stops an in-flight run. It reports false when no worker holds it.
func (d *Dispatcher) Cancel(runID string) bool {
	return d.registry.Cancel(runID)
}
