package scrape

import (
	"bytes"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	issuePath    = regexp.MustCompile(`/issues/(\d+)/?$`)
)

// CleanText strips markup from s, unescapes entities, and collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(strictPolicy.Sanitize(s))), " ")
}

// ParseDocument parses an HTML body.
func ParseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// ExtractTitle returns the cleaned <title> text.
func ExtractTitle(doc *goquery.Document) string {
	return CleanText(doc.Find("title").First().Text())
}

// ExtractMetaDescription returns the description meta tag, falling back to
// og:description.
func ExtractMetaDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if text := CleanText(content); text != "" {
				return text
			}
		}
	}
	return ""
}

// ReadableExcerpt runs readability over body and returns its excerpt.
func ReadableExcerpt(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return ""
	}
	return CleanText(article.Excerpt)
}

// ExtractIssueLinks collects up to limit distinct issue links. Relative hrefs
// are resolved against base.
func ExtractIssueLinks(doc *goquery.Document, base string, limit int) []explorer.Issue {
	baseURL, err := url.Parse(base)
	if err != nil {
		return []explorer.Issue{}
	}
	issues := []explorer.Issue{}
	seen := map[int]bool{}
	doc.Find(`a[href*="/issues/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if limit > 0 && len(issues) >= limit {
			return false
		}
		href, _ := sel.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := baseURL.ResolveReference(ref)
		match := issuePath.FindStringSubmatch(abs.Path)
		if match == nil {
			return true
		}
		number, err := strconv.Atoi(match[1])
		if err != nil || seen[number] {
			return true
		}
		title := CleanText(sel.Text())
		if title == "" {
			return true
		}
		seen[number] = true
		abs.RawQuery = ""
		abs.Fragment = ""
		issues = append(issues, explorer.Issue{
			Number: number,
			Title:  title,
			URL:    abs.String(),
			State:  explorer.IssueOpen,
		})
		return true
	})
	return issues
}

// ExtractRepoLink returns the first "/<org>/<repo>" link on a search page
// whose owner matches org case-insensitively.
func ExtractRepoLink(doc *goquery.Document, base, org string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	var found string
	doc.Find(`a[href^="/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		parts := strings.Split(strings.Trim(href, "/"), "/")
		if len(parts) != 2 || parts[1] == "" || !strings.EqualFold(parts[0], org) {
			return true
		}
		found = baseURL.ResolveReference(&url.URL{Path: "/" + parts[0] + "/" + parts[1]}).String()
		return false
	})
	return found
}

// SupportFromKeywords marks a browser supported iff its name appears in body.
func SupportFromKeywords(body string) explorer.BrowserSupport {
	lower := strings.ToLower(body)
	status := func(browser, version string) explorer.SupportStatus {
		if strings.Contains(lower, browser) {
			return explorer.SupportStatus{Version: version, Status: explorer.SupportSupported}
		}
		return explorer.SupportStatus{Version: "Not supported", Status: explorer.SupportNotSupported}
	}
	return explorer.BrowserSupport{
		Chrome:  status("chrome", "88+"),
		Firefox: status("firefox", "85+"),
		Safari:  status("safari", "14+"),
		Edge:    status("edge", "88+"),
	}
}
