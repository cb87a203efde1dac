package explorer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      StepID
		payload any
		want    StepResult
		wantErr error
	}{
		{
			name:    "name trimmed",
			id:      StepSearchAPI,
			payload: "  Fetch API ",
			want:    NameResult{APIName: "Fetch API"},
		},
		{
			name:    "blank name",
			id:      StepSearchAPI,
			payload: "   ",
			wantErr: ErrEmptyName,
		},
		{
			name:    "introduction",
			id:      StepIntroduction,
			payload: Introduction{Description: "d", DocURL: "u"},
			want:    IntroductionResult{Description: "d", DocURL: "u"},
		},
		{
			name:    "nil explainer",
			id:      StepExplainer,
			payload: nil,
			want:    ExplainerResult{},
		},
		{
			name:    "typed nil explainer",
			id:      StepExplainer,
			payload: (*ExplainerInfo)(nil),
			want:    ExplainerResult{},
		},
		{
			name:    "explainer without url",
			id:      StepExplainer,
			payload: &ExplainerInfo{Title: "Fetch API Explainer"},
			want:    ExplainerResult{},
		},
		{
			name:    "nil issues become empty",
			id:      StepIssues,
			payload: []Issue(nil),
			want:    IssuesResult{Issues: []Issue{}},
		},
		{
			name:    "nil bugs become empty",
			id:      StepBugs,
			payload: []Bug(nil),
			want:    BugsResult{Bugs: []Bug{}},
		},
		{
			name:    "status changes non-nil",
			id:      StepImplStatus,
			payload: ImplementationStatus{Summary: "s"},
			want:    StatusResult{ImplementationStatus{Summary: "s", RecentChanges: []Change{}}},
		},
		{
			name:    "prediction",
			id:      StepPrediction,
			payload: "p",
			want:    PredictionResult{Prediction: "p"},
		},
		{
			name:    "wrong payload type",
			id:      StepIssues,
			payload: "not issues",
			wantErr: ErrPayloadMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tt.id, tt.payload)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeBrowserSupportFillsUnknown(t *testing.T) {
	t.Parallel()

	got, err := Normalize(StepBrowserSupport, BrowserSupport{
		Chrome:  SupportStatus{Version: "88+", Status: SupportSupported},
		Firefox: SupportStatus{Status: "maybe"},
	})
	require.NoError(t, err)
	support := got.(SupportResult).BrowserSupport
	require.Equal(t, SupportStatus{Version: "88+", Status: SupportSupported}, support.Chrome)
	require.Equal(t, SupportStatus{Version: "Unknown", Status: SupportUnknown}, support.Firefox)
	require.Equal(t, SupportUnknown, support.Safari.Status)
	require.Len(t, support.ByBrowser(), len(Browsers))
}

func TestNormalizeExplainerCopies(t *testing.T) {
	t.Parallel()

	in := &ExplainerInfo{Title: "T", URL: "https://github.com/WICG/x"}
	got, err := Normalize(StepExplainer, in)
	require.NoError(t, err)
	in.Title = "mutated"
	require.Equal(t, "T", got.(ExplainerResult).Explainer.Title)
}

func TestAssembleSkipsIncompleteSteps(t *testing.T) {
	t.Parallel()

	steps := NewSteps()
	steps[0].Status = StatusCompleted
	steps[0].Result = NameResult{APIName: "WebGL API"}
	steps[4].Status = StatusError
	steps[4].Error = "failed to fetch data: x"

	info := Assemble(steps)
	require.Equal(t, "WebGL API", info.Name)
	require.NotNil(t, info.Issues)
	require.Empty(t, info.Issues)
	require.NotNil(t, info.Status.RecentChanges)
}

func TestDocPathReplacesFirstSpace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/en-US/docs/Web/API/Fetch_API", DocPath("Fetch API"))
	require.Equal(t, "/en-US/docs/Web/API/Web_Audio API", DocPath("Web Audio API"))
}
