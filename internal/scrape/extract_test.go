package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "highlight markup", in: "The <mark>Fetch</mark> API", want: "The Fetch API"},
		{name: "entities", in: "Request &amp; Response", want: "Request & Response"},
		{name: "script dropped", in: "ok<script>alert(1)</script>", want: "ok"},
		{name: "whitespace", in: "  a \n\t b  ", want: "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestExtractTitleAndMeta(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`<html><head>
<title>Fetch API - Web APIs | MDN</title>
<meta property="og:description" content="og text">
<meta name="description" content="The Fetch API provides an interface for fetching resources.">
</head></html>`))
	require.NoError(t, err)
	require.Equal(t, "Fetch API - Web APIs | MDN", ExtractTitle(doc))
	require.Equal(t, "The Fetch API provides an interface for fetching resources.", ExtractMetaDescription(doc))

	doc, err = ParseDocument([]byte(`<html><head><meta property="og:description" content="og only"></head></html>`))
	require.NoError(t, err)
	require.Equal(t, "og only", ExtractMetaDescription(doc))
}

func TestExtractIssueLinks(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`<html><body>
<a href="/web-platform-tests/wpt/issues/101">Fetch: redirect test flaky</a>
<a href="/web-platform-tests/wpt/issues/101#comment">Fetch: redirect test flaky</a>
<a href="/web-platform-tests/wpt/issues/new">New issue</a>
<a href="https://github.com/web-platform-tests/wpt/issues/102">Fetch <em>abort</em> coverage</a>
<a href="/web-platform-tests/wpt/issues/103"></a>
<a href="/web-platform-tests/wpt/issues/104">Third</a>
</body></html>`))
	require.NoError(t, err)

	issues := ExtractIssueLinks(doc, "https://github.com", 2)
	require.Len(t, issues, 2)
	require.Equal(t, 101, issues[0].Number)
	require.Equal(t, "https://github.com/web-platform-tests/wpt/issues/101", issues[0].URL)
	require.Equal(t, "Fetch abort coverage", issues[1].Title)
	require.Equal(t, explorer.IssueOpen, issues[1].State)

	require.Len(t, ExtractIssueLinks(doc, "https://github.com", 0), 3)
}

func TestExtractRepoLink(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`<html><body>
<a href="/login">Sign in</a>
<a href="/someone/fetch-explainer">other org</a>
<a href="/WICG/fetch-explainer">WICG/fetch-explainer</a>
</body></html>`))
	require.NoError(t, err)
	require.Equal(t, "https://github.com/WICG/fetch-explainer", ExtractRepoLink(doc, "https://github.com", "wicg"))
	require.Empty(t, ExtractRepoLink(doc, "https://github.com", "w3c"))
}

func TestSupportFromKeywords(t *testing.T) {
	t.Parallel()

	support := SupportFromKeywords("Works in Chrome and FIREFOX")
	require.Equal(t, explorer.SupportStatus{Version: "88+", Status: explorer.SupportSupported}, support.Chrome)
	require.Equal(t, explorer.SupportSupported, support.Firefox.Status)
	require.Equal(t, explorer.SupportStatus{Version: "Not supported", Status: explorer.SupportNotSupported}, support.Safari)
	require.Equal(t, explorer.SupportNotSupported, support.Edge.Status)
}
