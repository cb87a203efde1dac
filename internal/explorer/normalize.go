package explorer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPayloadMismatch is returned when a resolver payload does not match the
// shape expected for its step.
var ErrPayloadMismatch = errors.New("unexpected payload for step")

// ErrEmptyName is returned when name resolution produced a blank name.
var ErrEmptyName = errors.New("resolved api name is empty")

// Normalize maps a raw resolver payload onto the result type fixed by the
// step ID. Missing optional parts become nil (explainer) or empty slices.
func Normalize(id StepID, payload any) (StepResult, error) {
	switch id {
	case StepSearchAPI:
		name, ok := payload.(string)
		if !ok {
			return nil, mismatch(id, payload)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrEmptyName
		}
		return NameResult{APIName: name}, nil
	case StepIntroduction:
		intro, ok := payload.(Introduction)
		if !ok {
			return nil, mismatch(id, payload)
		}
		return IntroductionResult(intro), nil
	case StepBrowserSupport:
		support, ok := payload.(BrowserSupport)
		if !ok {
			return nil, mismatch(id, payload)
		}
		return SupportResult{BrowserSupport: normalizeSupport(support)}, nil
	case StepExplainer:
		switch v := payload.(type) {
		case nil:
			return ExplainerResult{}, nil
		case *ExplainerInfo:
			if !v.Complete() {
				return ExplainerResult{}, nil
			}
			cp := *v
			return ExplainerResult{Explainer: &cp}, nil
		default:
			return nil, mismatch(id, payload)
		}
	case StepIssues:
		issues, ok := payload.([]Issue)
		if !ok {
			return nil, mismatch(id, payload)
		}
		if issues == nil {
			issues = []Issue{}
		}
		return IssuesResult{Issues: issues}, nil
	case StepBugs:
		bugs, ok := payload.([]Bug)
		if !ok {
			return nil, mismatch(id, payload)
		}
		if bugs == nil {
			bugs = []Bug{}
		}
		return BugsResult{Bugs: bugs}, nil
	case StepImplStatus:
		status, ok := payload.(ImplementationStatus)
		if !ok {
			return nil, mismatch(id, payload)
		}
		if status.RecentChanges == nil {
			status.RecentChanges = []Change{}
		}
		return StatusResult{ImplementationStatus: status}, nil
	case StepPrediction:
		prediction, ok := payload.(string)
		if !ok {
			return nil, mismatch(id, payload)
		}
		return PredictionResult{Prediction: prediction}, nil
	default:
		return nil, fmt.Errorf("unknown step id %d", id)
	}
}

func mismatch(id StepID, payload any) error {
	return fmt.Errorf("%w %q: %T", ErrPayloadMismatch, id.String(), payload)
}

func normalizeSupport(b BrowserSupport) BrowserSupport {
	return BrowserSupport{
		Chrome:  normalizeStatus(b.Chrome),
		Firefox: normalizeStatus(b.Firefox),
		Safari:  normalizeStatus(b.Safari),
		Edge:    normalizeStatus(b.Edge),
	}
}

func normalizeStatus(s SupportStatus) SupportStatus {
	if !s.Status.Valid() {
		s.Status = SupportUnknown
	}
	if strings.TrimSpace(s.Version) == "" {
		s.Version = "Unknown"
	}
	return s
}
