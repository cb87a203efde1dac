// Package bugtracker holds the synthetic browser-engine bug tracker. No real
// tracker API is integrated; Stub returns deterministic records so the
// pipeline has something to show.
package bugtracker

import (
	"context"
	"fmt"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
)

// IssueBaseURL is where bug records point.
const IssueBaseURL = "https://issues.chromium.org/issues/"

// Stub implements explorer.BugTracker with fixed records.
type Stub struct{}

// SearchBugs returns two bug records mentioning name.
func (Stub) SearchBugs(ctx context.Context, name string) ([]explorer.Bug, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("bug search: %w", err)
	}
	return Records(name, 123456, 123457), nil
}

// Status returns a fixed implementation summary for name.
func (Stub) Status(ctx context.Context, name string) (explorer.ImplementationStatus, error) {
	if err := ctx.Err(); err != nil {
		return explorer.ImplementationStatus{}, fmt.Errorf("implementation status: %w", err)
	}
	return explorer.ImplementationStatus{
		Summary: fmt.Sprintf("%s is fully implemented in Chromium with good performance and stability. "+
			"Recent updates have improved compatibility and added new features.", name),
		RecentChanges: []explorer.Change{
			{Commit: "abc123", Description: fmt.Sprintf("Add %s feature support", name), Date: "2024-01-20", Author: "chromium-dev"},
			{Commit: "def456", Description: fmt.Sprintf("Fix %s memory leak issue", name), Date: "2024-01-15", Author: "memory-team"},
			{Commit: "ghi789", Description: fmt.Sprintf("Improve %s error handling", name), Date: "2024-01-10", Author: "stability-team"},
		},
	}, nil
}

// Records builds the two canonical bug records for name with the given IDs.
func Records(name string, first, second int) []explorer.Bug {
	return []explorer.Bug{
		{
			ID:       fmt.Sprintf("chromium:%d", first),
			Title:    fmt.Sprintf("Implement %s feature", name),
			URL:      fmt.Sprintf("%s%d", IssueBaseURL, first),
			Priority: explorer.PriorityP1,
			Status:   "Assigned",
			Assignee: "chromium-dev",
		},
		{
			ID:       fmt.Sprintf("chromium:%d", second),
			Title:    fmt.Sprintf("Fix %s compatibility issue", name),
			URL:      fmt.Sprintf("%s%d", IssueBaseURL, second),
			Priority: explorer.PriorityP2,
			Status:   "Open",
			Assignee: "perf-team",
		},
	}
}
