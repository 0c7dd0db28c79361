package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/akarpovich/newsbrief/pkg/domain"
)

// HTTPFetcher retrieves and parses syndication feeds over HTTP. A returned
// error is the recorded per-source failure reason; callers are expected to
// treat it as a zero-article contribution rather than propagate it.
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	searchTemplate string // search endpoint with a %s placeholder for the encoded query
}

// NewHTTPFetcher creates a feed fetcher with the given per-request timeout.
// searchTemplate is the query-search feed endpoint, e.g.
// "https://news.google.com/rss/search?q=%s&hl=en-IN&gl=IN&ceid=IN:en".
func NewHTTPFetcher(timeout time.Duration, userAgent, searchTemplate string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:      userAgent,
		searchTemplate: searchTemplate,
	}
}

// FetchFeed retrieves the feed at feedURL and converts up to maxItems raw
// entries into articles. Entries with an empty cleaned title are dropped and
// not backfilled from beyond the initial maxItems slice. Published timestamps
// are kept as the raw strings the source sent, format varies by feed.
func (f *HTTPFetcher) FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]domain.Article, error) {
	body, err := f.get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	sourceName := Clean(parsed.Title)
	if sourceName == "" {
		sourceName = feedURL
	}

	entries := parsed.Items
	if len(entries) > maxItems {
		entries = entries[:maxItems]
	}

	articles := make([]domain.Article, 0, len(entries))
	for _, entry := range entries {
		title := Clean(entry.Title)
		if title == "" {
			continue // title is the dedup key, untitled entries are useless
		}

		link := entry.Link
		if link == "" {
			link = "#"
		}

		articles = append(articles, domain.Article{
			Title:      title,
			Summary:    Clean(entry.Description),
			URL:        link,
			SourceName: sourceName,
			Published:  entry.Published,
		})
	}

	return articles, nil
}

// FetchQuerySearch encodes query into the search-feed template and fetches it
func (f *HTTPFetcher) FetchQuerySearch(ctx context.Context, query string, maxItems int) ([]domain.Article, error) {
	searchURL := fmt.Sprintf(f.searchTemplate, url.QueryEscape(strings.TrimSpace(query)))
	return f.FetchFeed(ctx, searchURL, maxItems)
}

// get performs the HTTP request and returns the response body
func (f *HTTPFetcher) get(ctx context.Context, feedURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	addBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
