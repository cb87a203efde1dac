// Package mdn is the structured client for the documentation search API.
package mdn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	"github.com/JakeFAU/webapi-explorer/internal/scrape"
	"github.com/JakeFAU/webapi-explorer/internal/source"
)

// Config points the client at the documentation service.
type Config struct {
	BaseURL string
	SiteURL string
	Timeout time.Duration
}

// Client implements explorer.DocSearcher.
type Client struct {
	cfg Config
	api *source.Client
}

type searchResponse struct {
	Documents []struct {
		Title   string `json:"title"`
		Excerpt string `json:"excerpt"`
		Summary string `json:"summary"`
		MDNURL  string `json:"mdn_url"`
	} `json:"documents"`
}

// New constructs a Client.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		api: source.NewClient(source.Options{
			Name:       "mdn",
			Timeout:    cfg.Timeout,
			Headers:    http.Header{"Accept": []string{"application/json"}},
			HTTPClient: httpClient,
			Logger:     logger,
		}),
	}
}

// SearchDocs runs a documentation search. Excerpts are reduced to plain text
// and relative document URLs are made absolute.
func (c *Client) SearchDocs(ctx context.Context, req explorer.DocSearchRequest) ([]explorer.Document, error) {
	q := url.Values{}
	q.Set("q", req.Query)
	if req.Locale != "" {
		q.Set("locale", req.Locale)
	}
	if req.Category != "" {
		q.Set("category", req.Category)
	}
	u, err := source.Endpoint(c.cfg.BaseURL, "/search", q)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := c.api.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("mdn search %q: %w", req.Query, err)
	}
	docs := make([]explorer.Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		excerpt := d.Excerpt
		if excerpt == "" {
			excerpt = d.Summary
		}
		docs = append(docs, explorer.Document{
			Title:   scrape.CleanText(d.Title),
			Excerpt: scrape.CleanText(excerpt),
			URL:     c.absolute(d.MDNURL),
		})
	}
	return docs, nil
}

func (c *Client) absolute(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return strings.TrimRight(c.cfg.SiteURL, "/") + "/" + strings.TrimLeft(raw, "/")
}
