package explorer

// StepResult is the tagged result of a completed step. Each step ID has
// exactly one concrete result type.
type StepResult interface {
	StepID() StepID
}

// NameResult is the result of StepSearchAPI.
type NameResult struct {
	APIName string `json:"api_name"`
}

// StepID implements StepResult.
func (NameResult) StepID() StepID { return StepSearchAPI }

// IntroductionResult is the result of StepIntroduction.
type IntroductionResult struct {
	Description string `json:"description"`
	DocURL      string `json:"doc_url"`
}

// StepID implements StepResult.
func (IntroductionResult) StepID() StepID { return StepIntroduction }

// SupportResult is the result of StepBrowserSupport.
type SupportResult struct {
	BrowserSupport BrowserSupport `json:"browser_support"`
}

// StepID implements StepResult.
func (SupportResult) StepID() StepID { return StepBrowserSupport }

// ExplainerResult is the result of StepExplainer. A nil Explainer means no
// explainer was found, which is a valid outcome.
type ExplainerResult struct {
	Explainer *ExplainerInfo `json:"explainer"`
}

// StepID implements StepResult.
func (ExplainerResult) StepID() StepID { return StepExplainer }

// IssuesResult is the result of StepIssues.
type IssuesResult struct {
	Issues []Issue `json:"issues"`
}

// StepID implements StepResult.
func (IssuesResult) StepID() StepID { return StepIssues }

// BugsResult is the result of StepBugs.
type BugsResult struct {
	Bugs []Bug `json:"bugs"`
}

// StepID implements StepResult.
func (BugsResult) StepID() StepID { return StepBugs }

// StatusResult is the result of StepImplStatus.
type StatusResult struct {
	ImplementationStatus
}

// StepID implements StepResult.
func (StatusResult) StepID() StepID { return StepImplStatus }

// PredictionResult is the result of StepPrediction.
type PredictionResult struct {
	Prediction string `json:"prediction"`
}

// StepID implements StepResult.
func (PredictionResult) StepID() StepID { return StepPrediction }

// Assemble folds the completed steps of a run into an APIInfo. Steps that
// did not complete leave their fields at the zero value, with list fields
// still non-nil.
func Assemble(steps []Step) APIInfo {
	info := APIInfo{
		Issues: []Issue{},
		Bugs:   []Bug{},
		Status: ImplementationStatus{RecentChanges: []Change{}},
	}
	for _, step := range steps {
		if step.Status != StatusCompleted {
			continue
		}
		switch res := step.Result.(type) {
		case NameResult:
			info.Name = res.APIName
		case IntroductionResult:
			info.Description = res.Description
			info.DocURL = res.DocURL
		case SupportResult:
			info.BrowserSupport = res.BrowserSupport
		case ExplainerResult:
			info.Explainer = res.Explainer
		case IssuesResult:
			info.Issues = res.Issues
		case BugsResult:
			info.Bugs = res.Bugs
		case StatusResult:
			info.Status = res.ImplementationStatus
		case PredictionResult:
			info.FuturePrediction = res.Prediction
		}
	}
	return info
}
