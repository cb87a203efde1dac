package explorer

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// Step lifecycle events.
const (
	eventStart   = "START"
	eventSucceed = "SUCCEED"
	eventFail    = "FAIL"
)

// Machine state names; they mirror the StepStatus values.
const (
	statePending   = "pending"
	stateLoading   = "loading"
	stateCompleted = "completed"
	stateError     = "error"
)

type lifecycleContext struct{}

// stepLifecycle guards a Step with a state machine so status only ever moves
// forward and terminal steps are never mutated again.
type stepLifecycle struct {
	interp *statekit.Interpreter[lifecycleContext]
	step   *Step
	clock  Clock
}

func buildStepMachine() (*statekit.Interpreter[lifecycleContext], error) {
	machine, err := statekit.NewMachine[lifecycleContext]("exploration-step").
		WithInitial(statePending).
		WithContext(lifecycleContext{}).
		State(statePending).
		On(eventStart).Target(stateLoading).
		On(eventFail).Target(stateError).Done().
		State(stateLoading).
		On(eventSucceed).Target(stateCompleted).
		On(eventFail).Target(stateError).Done().
		State(stateCompleted).Done().
		State(stateError).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build step machine: %w", err)
	}
	return statekit.NewInterpreter(machine), nil
}

func newStepLifecycle(step *Step, clock Clock) (*stepLifecycle, error) {
	interp, err := buildStepMachine()
	if err != nil {
		return nil, err
	}
	interp.Start()
	return &stepLifecycle{interp: interp, step: step, clock: clock}, nil
}

func (l *stepLifecycle) current() StepStatus {
	return StepStatus(l.interp.State().Value)
}

func (l *stepLifecycle) send(event statekit.EventType) bool {
	before := l.current()
	l.interp.Send(statekit.Event{Type: event})
	after := l.current()
	if before == after {
		return false
	}
	l.step.Status = after
	return true
}

// start moves pending -> loading.
func (l *stepLifecycle) start() bool {
	if !l.send(eventStart) {
		return false
	}
	now := l.clock.Now()
	l.step.StartedAt = &now
	return true
}

// complete moves loading -> completed and attaches the result.
func (l *stepLifecycle) complete(result StepResult) bool {
	if !l.send(eventSucceed) {
		return false
	}
	l.step.Result = result
	l.finish()
	return true
}

// fail moves pending or loading -> error and records the message.
func (l *stepLifecycle) fail(msg string) bool {
	if !l.send(eventFail) {
		return false
	}
	l.step.Error = msg
	l.finish()
	return true
}

func (l *stepLifecycle) finish() {
	now := l.clock.Now()
	l.step.FinishedAt = &now
	if l.step.StartedAt != nil {
		l.step.DurationMs = now.Sub(*l.step.StartedAt).Milliseconds()
	}
	l.interp.Stop()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
