package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/webapi-explorer/internal/progress"
)

// PrometheusSink exports exploration progress via Prometheus. It owns the
// collectors for runs started/finished/running and per-step outcomes.
type PrometheusSink struct {
	runsStarted  prometheus.Counter
	runsFinished *prometheus.CounterVec
	runsRunning  prometheus.Gauge
	runRuntime   *prometheus.HistogramVec

	stepOutcomes *prometheus.CounterVec
	stepRuntime  *prometheus.HistogramVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "explorer_progress_runs_started_total",
			Help: "Total explorations that have started.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_progress_runs_finished_total",
			Help: "Total explorations finished partitioned by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "explorer_progress_runs_running",
			Help: "Current number of running explorations.",
		}),
		runRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "explorer_progress_run_seconds",
			Help:    "Wall time per finished exploration.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"result"}),
		stepOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_progress_steps_total",
			Help: "Terminal step transitions partitioned by step and status.",
		}, []string{"step", "status"}),
		stepRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "explorer_progress_step_seconds",
			Help:    "Step latency partitioned by step.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"step"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsFinished,
		s.runsRunning,
		s.runRuntime,
		s.stepOutcomes,
		s.stepRuntime,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart, progress.StageRunDone, progress.StageRunCanceled:
			s.handleRunEvent(evt)
		case progress.StageStepCompleted:
			s.handleStepEvent(evt, "completed")
		case progress.StageStepError:
			s.handleStepEvent(evt, "error")
		}
	}
	return nil
}

func (s *PrometheusSink) handleRunEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runsRunning.Inc()
		}
		return
	case progress.StageRunDone:
		s.observeRun(evt, "succeeded")
	case progress.StageRunCanceled:
		s.observeRun(evt, "canceled")
	}
	if s.tracker.complete(evt.RunID) {
		s.runsRunning.Dec()
	}
}

func (s *PrometheusSink) observeRun(evt progress.Event, result string) {
	s.runsFinished.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.runRuntime.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) handleStepEvent(evt progress.Event, status string) {
	name := evt.StepName
	if name == "" {
		name = "unknown"
	}
	s.stepOutcomes.WithLabelValues(name, status).Inc()
	if evt.Dur > 0 {
		s.stepRuntime.WithLabelValues(name).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
