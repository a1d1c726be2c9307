package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"agentsearch/internal/search"
)

// Number of results condensed into the context block.
const summarizedResultCount = 3

// ResultSummarizer distills relevant results into one compact, attributed
// context block. Pages that fail to fetch or summarize fall back to their
// search snippet.
type ResultSummarizer struct {
	condenser PageCondenser
}

func NewResultSummarizer(condenser PageCondenser) *ResultSummarizer {
	return &ResultSummarizer{condenser: condenser}
}

// BuildContext condenses the best results into an attributed block wrapped
// with a preface naming the original question. Returns "" when there is
// nothing to summarize.
func (s *ResultSummarizer) BuildContext(ctx context.Context, question string, q search.Query, results []search.Result) string {
	chosen := search.TopByKeyword(q.RewrittenQuestion, results, summarizedResultCount)
	if len(chosen) == 0 {
		return ""
	}

	// Candidate pages are independent; fetch them concurrently. Each
	// goroutine writes only its own slot.
	summaries := make([]string, len(chosen))
	var wg sync.WaitGroup
	for i, r := range chosen {
		wg.Add(1)
		go func(i int, r search.Result) {
			defer wg.Done()
			summaries[i] = s.condenser.FetchAndSummarize(ctx, r.URL, question)
		}(i, r)
	}
	wg.Wait()

	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for the question %q:\n\n", question)
	for i, r := range chosen {
		summary := summaries[i]
		if summary == "" {
			summary = r.Snippet
		}
		fmt.Fprintf(&b, "[Source %d] %s\n%s\n(%s)\n\n", i+1, r.Title, summary, r.URL)
	}
	return strings.TrimSpace(b.String())
}
