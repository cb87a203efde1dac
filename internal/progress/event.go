package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageRunDone       Stage = "RUN_DONE"
	StageRunCanceled   Stage = "RUN_CANCELED"
	StageStepLoading   Stage = "STEP_LOADING"
	StageStepCompleted Stage = "STEP_COMPLETED"
	StageStepError     Stage = "STEP_ERROR"
)

// Event captures a single milestone of an exploration run.
type Event struct {
	// RunID identifies the exploration using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which run or step milestone occurred.
	Stage Stage
	// Step is the 1-based step ordinal for step stages.
	Step int
	// StepName is the metrics-safe step label.
	StepName string
	// Query is the raw user query; set on run stages only.
	Query string
	// Dur captures step or run latency on terminal stages.
	Dur time.Duration
	// Note carries low-volume context such as a step error message.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunCanceled:
	case StageStepLoading, StageStepCompleted, StageStepError:
		if e.Step <= 0 {
			return errors.New("step stages require a step ordinal")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
