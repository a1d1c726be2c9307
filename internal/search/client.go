package search

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Client fetches and parses results from an HTML search-results surface
// (DuckDuckGo's html endpoint). It is fail-soft: any fetch or parse failure
// yields an empty result list, never an error, so a broken search can not
// abort a conversation turn.
type Client struct {
	endpoint   string
	userAgent  string
	maxResults int
	httpClient *http.Client
	cache      *Cache
}

// NewClient creates a search client. cache may be nil to disable caching.
func NewClient(endpoint, userAgent string, maxResults int, cache *Cache) *Client {
	if maxResults <= 0 || maxResults > 5 {
		maxResults = 5
	}
	return &Client{
		endpoint:   endpoint,
		userAgent:  userAgent,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cache: cache,
	}
}

// Search runs the query and returns at most maxResults parsed results in
// source order. It never returns an error; failures come back as an empty
// slice after logging.
func (c *Client) Search(ctx context.Context, query string) []Result {
	if strings.TrimSpace(query) == "" {
		return []Result{}
	}

	if cached, ok := c.cache.Get(ctx, query); ok {
		log.Printf("[Retriever] Cache hit for query: %s", truncate(query, 80))
		return cached
	}

	html, err := c.fetchResultsPage(ctx, query)
	if err != nil {
		log.Printf("[Retriever] Search fetch failed: %v", err)
		return []Result{}
	}

	results, err := c.parseResults(html)
	if err != nil {
		log.Printf("[Retriever] Search parse failed: %v", err)
		return []Result{}
	}

	c.cache.Put(ctx, query, results)
	return results
}

func (c *Client) fetchResultsPage(ctx context.Context, query string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Browser-like headers: the HTML surface rejects obvious bots
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search surface returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// parseResults extracts result blocks from the search page HTML. Malformed
// blocks are skipped individually; the rest survive.
func (c *Client) parseResults(html string) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	results := make([]Result, 0, c.maxResults)
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		anchor := s.Find("a.result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return true
		}

		dest := decodeRedirectURL(href)
		if !isHTTPURL(dest) {
			return true
		}

		title := strings.TrimSpace(anchor.Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())
		if title == "" && snippet == "" {
			return true
		}

		results = append(results, Result{
			Title:   title,
			URL:     dest,
			Snippet: snippet,
		})
		return len(results) < c.maxResults
	})

	return results, nil
}

// decodeRedirectURL unwraps DuckDuckGo's /l/?uddg=<dest> redirect links and
// returns the destination. Non-wrapped URLs pass through, protocol-relative
// ones get https.
func decodeRedirectURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(parsed.Path, "/l/") || parsed.Path == "/l/" {
		if dest := parsed.Query().Get("uddg"); dest != "" {
			if unescaped, err := url.QueryUnescape(dest); err == nil {
				return unescaped
			}
			return dest
		}
	}
	return href
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
