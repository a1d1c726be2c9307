package pipeline

import (
	"context"

	"agentsearch/internal/auditlog"
	"agentsearch/internal/search"
)

// Searcher retrieves external results for a query. Implementations are
// fail-soft: an empty slice, never an error.
type Searcher interface {
	Search(ctx context.Context, query string) []search.Result
}

// PageCondenser fetches one result page and condenses it for a question.
// Returns "" when the page is unusable so the caller can fall back to the
// search snippet.
type PageCondenser interface {
	FetchAndSummarize(ctx context.Context, url, question string) string
}

// Auditor records retrieval attempts and relevance decisions. Recording
// must never fail the turn; implementations swallow their own errors.
type Auditor interface {
	RecordSearch(ctx context.Context, entry auditlog.WebSearchLogEntry)
	RecordDecision(ctx context.Context, rec auditlog.RelevanceDecisionRecord)
}
