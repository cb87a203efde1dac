package explorer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStepLifecycleForwardOnly(t *testing.T) {
	t.Parallel()

	step := NewSteps()[0]
	lc, err := newStepLifecycle(&step, systemClock{})
	require.NoError(t, err)

	require.False(t, lc.complete(NameResult{APIName: "x"}), "pending cannot complete")
	require.Equal(t, StatusPending, step.Status)

	require.True(t, lc.start())
	require.Equal(t, StatusLoading, step.Status)
	require.False(t, lc.start(), "loading cannot restart")

	require.True(t, lc.complete(NameResult{APIName: "Fetch API"}))
	require.Equal(t, StatusCompleted, step.Status)
	require.NotNil(t, step.FinishedAt)

	require.False(t, lc.fail("late"), "terminal steps never change")
	require.Equal(t, StatusCompleted, step.Status)
	require.Empty(t, step.Error)
	require.Equal(t, NameResult{APIName: "Fetch API"}, step.Result)
}

func TestStepLifecycleFailFromPending(t *testing.T) {
	t.Parallel()

	step := NewSteps()[4]
	lc, err := newStepLifecycle(&step, systemClock{})
	require.NoError(t, err)

	require.True(t, lc.fail("exploration canceled"))
	require.Equal(t, StatusError, step.Status)
	require.Equal(t, "exploration canceled", step.Error)
	require.Nil(t, step.StartedAt)
	require.Zero(t, step.DurationMs)
}

func TestNewStepsLabels(t *testing.T) {
	t.Parallel()

	steps := NewSteps()
	require.Len(t, steps, StepCount)
	require.Equal(t, "Search Relevant API", steps[0].Title)
	require.Equal(t, "Future Prediction", steps[7].Title)
	require.Equal(t, "chromium_status", StepImplStatus.Slug())
	require.Equal(t, "Unknown Step", StepID(42).String())
	for _, step := range steps {
		require.Equal(t, StatusPending, step.Status)
		require.NotEmpty(t, step.Description)
	}
	require.True(t, StatusError.Terminal())
	require.False(t, StatusLoading.Terminal())
}
