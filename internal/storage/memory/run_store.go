package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
)

// RunStore keeps exploration runs in memory.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]explorer.Run
	clock explorer.Clock
}

var _ explorer.RunStore = (*RunStore)(nil)

// NewRunStore constructs a RunStore that stamps run times from clock. A nil
// clock uses the wall clock in UTC.
func NewRunStore(clock explorer.Clock) *RunStore {
	return &RunStore{runs: make(map[string]explorer.Run), clock: clock}
}

// CreateRun stores a new run. Runs without steps get the eight pending steps.
func (s *RunStore) CreateRun(_ context.Context, run explorer.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("%w: %s", explorer.ErrRunExists, run.ID)
	}
	if len(run.Steps) == 0 {
		run.Steps = explorer.NewSteps()
	} else {
		run.Steps = cloneSteps(run.Steps)
	}
	s.runs[run.ID] = run
	return nil
}

// UpdateRunState moves a run to state. Terminal states are sticky: updates
// after a run finished leave it untouched and return ErrRunFinished.
func (s *RunStore) UpdateRunState(
	_ context.Context,
	runID string,
	state explorer.RunState,
	errText string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", explorer.ErrRunNotFound, runID)
	}
	if run.State.Terminal() {
		return fmt.Errorf("%w: %s is %s", explorer.ErrRunFinished, runID, run.State)
	}
	run.State = state
	run.ErrorText = errText
	now := s.now()
	if state == explorer.RunRunning && run.Started == nil {
		run.Started = pointerTime(now)
	}
	if state.Terminal() {
		run.Finished = pointerTime(now)
	}
	s.runs[runID] = run
	return nil
}

// RecordStep replaces the stored copy of step.
func (s *RunStore) RecordStep(_ context.Context, runID string, step explorer.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", explorer.ErrRunNotFound, runID)
	}
	idx := int(step.ID) - 1
	if idx < 0 || idx >= len(run.Steps) {
		return fmt.Errorf("record step: step id %d out of range", step.ID)
	}
	run.Steps[idx] = step
	s.runs[runID] = run
	return nil
}

// GetRun returns a snapshot of the run.
func (s *RunStore) GetRun(_ context.Context, runID string) (explorer.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return explorer.Run{}, fmt.Errorf("%w: %s", explorer.ErrRunNotFound, runID)
	}
	run.Steps = cloneSteps(run.Steps)
	return run, nil
}

func (s *RunStore) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}

func cloneSteps(steps []explorer.Step) []explorer.Step {
	out := make([]explorer.Step, len(steps))
	copy(out, steps)
	return out
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}
