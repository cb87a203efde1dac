package resolver

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	"github.com/JakeFAU/webapi-explorer/internal/source/bugtracker"
)

var predictionTemplates = []string{
	"%s is expected to see continued adoption and enhancement. We predict new features will be added in the next 2-3 years, " +
		"with improved performance optimizations and better integration with other web APIs.",
	"%s will likely become a standard part of modern web development toolkits, with improved browser support and developer tooling.",
	"%s is expected to evolve with new specifications and implementations, providing better performance and developer experience.",
}

func shortDescription(name string) string {
	return fmt.Sprintf("The %s provides a modern interface for web functionality.", name)
}

func synthesizedDescription(name string) string {
	subject := "web functionality"
	lower := strings.ToLower(name)
	if strings.Contains(lower, "api") {
		subject = strings.Replace(lower, " api", "", 1)
	}
	return fmt.Sprintf("The %s provides a modern interface for %s. "+
		"It offers a powerful and flexible way to interact with web technologies.", name, subject)
}

func fixedSupportMatrix() explorer.BrowserSupport {
	return explorer.BrowserSupport{
		Chrome:  explorer.SupportStatus{Version: "88+", Status: explorer.SupportSupported},
		Firefox: explorer.SupportStatus{Version: "85+", Status: explorer.SupportSupported},
		Safari:  explorer.SupportStatus{Version: "14+", Status: explorer.SupportSupported},
		Edge:    explorer.SupportStatus{Version: "88+", Status: explorer.SupportSupported},
	}
}

func explainerSlug(name string) string {
	return strings.Replace(strings.ToLower(name), " ", "-", 1)
}

func synthesizedIssues(name, siteURL, repo string) []explorer.Issue {
	base := fmt.Sprintf("%s/%s/issues/", strings.TrimRight(siteURL, "/"), repo)
	return []explorer.Issue{
		{
			Number:    1234,
			Title:     fmt.Sprintf("Add support for new %s feature", name),
			URL:       base + "1234",
			State:     explorer.IssueOpen,
			CreatedAt: "2024-01-15",
			Author:    "webdev-user",
		},
		{
			Number:    1235,
			Title:     fmt.Sprintf("Fix %s compatibility issue with Safari", name),
			URL:       base + "1235",
			State:     explorer.IssueOpen,
			CreatedAt: "2024-01-10",
			Author:    "browser-team",
		},
	}
}

func synthesizedBugs(name string) []explorer.Bug {
	bugs := bugtracker.Records(name, 123456, 123457)
	bugs[0].Title = fmt.Sprintf("Implement missing %s feature in Chromium", name)
	bugs[1].Title = fmt.Sprintf("Fix %s performance regression", name)
	return bugs
}

func synthesizedStatus(name string) explorer.ImplementationStatus {
	return explorer.ImplementationStatus{
		Summary:       fmt.Sprintf("%s is implemented in Chromium.", name),
		RecentChanges: []explorer.Change{},
	}
}
