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
	readability "github.com/go-shiori/go-readability"

	"agentsearch/internal/llm"
)

const (
	// Extracted text shorter than this is boilerplate, not content.
	minExtractedChars = 100
	// Cap on text handed to the summarization call.
	maxExtractedChars = 5000
)

// PageSummarizer fetches a candidate result page and condenses it into a
// short summary focused on the asked question. Every failure path returns
// an empty string so the caller can fall back to the search snippet.
type PageSummarizer struct {
	httpClient *http.Client
	userAgent  string
	completer  llm.Completer
}

// NewPageSummarizer creates a page summarizer. timeout bounds each page
// fetch; the summarization call is bounded by the caller's context.
func NewPageSummarizer(timeout time.Duration, userAgent string, completer llm.Completer) *PageSummarizer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PageSummarizer{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		completer:  completer,
	}
}

// FetchAndSummarize retrieves url and returns a 2-3 sentence summary of its
// content as it relates to question, or "" if anything fails.
func (p *PageSummarizer) FetchAndSummarize(ctx context.Context, pageURL, question string) string {
	text, err := p.fetchReadableText(ctx, pageURL)
	if err != nil {
		log.Printf("[PageSummarizer] Fetch failed for %s: %v", truncate(pageURL, 80), err)
		return ""
	}
	if len(text) < minExtractedChars {
		log.Printf("[PageSummarizer] Extracted text too short (%d chars) for %s", len(text), truncate(pageURL, 80))
		return ""
	}
	if len(text) > maxExtractedChars {
		text = text[:maxExtractedChars]
	}

	summary, err := p.summarize(ctx, text, question)
	if err != nil {
		log.Printf("[PageSummarizer] Summarization failed for %s: %v", truncate(pageURL, 80), err)
		return ""
	}
	return summary
}

func (p *PageSummarizer) fetchReadableText(ctx context.Context, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return normalizeWhitespace(article.TextContent), nil
	}

	// Readability gave up; strip tags ourselves
	return extractPlainText(string(body)), nil
}

// extractPlainText removes script/style blocks and returns the visible text.
func extractPlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, iframe").Remove()
	return normalizeWhitespace(doc.Find("body").Text())
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (p *PageSummarizer) summarize(ctx context.Context, text, question string) (string, error) {
	messages := []llm.Message{
		{
			Role:    "system",
			Content: "You condense web page content. Reply with 2-3 plain sentences covering only what is relevant to the question. No preamble, no bullet points.",
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Question: %s\n\nPage content:\n%s\n\nSummarize the page content in 2-3 sentences as it relates to the question.", question, text),
		},
	}

	summary, err := p.completer.Complete(ctx, messages, 160, nil)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("empty summary")
	}
	return summary, nil
}
