package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"agentsearch/internal/agent"
	"agentsearch/internal/llm"
	"agentsearch/internal/search"
)

// QueryRewriter reformulates a conversational question into a
// search-optimized query contextualized to the persona. On any failure the
// original question passes through unchanged.
type QueryRewriter struct {
	completer llm.Completer
}

func NewQueryRewriter(completer llm.Completer) *QueryRewriter {
	return &QueryRewriter{completer: completer}
}

// Rewrite produces the turn's SearchQuery. Contract:
//  1. A third party named in the question (person, role, proper noun other
//     than the persona) is preserved verbatim, never replaced by the
//     persona's name.
//  2. Indirect self-reference ("you", "your") or an unnamed subject gets
//     the persona's name and domain injected to narrow the search.
//  3. The core intent of the question is retained.
func (r *QueryRewriter) Rewrite(ctx context.Context, question string, a agent.Context) search.Query {
	q := search.Query{
		OriginalQuestion:  question,
		RewrittenQuestion: question,
		AgentName:         a.Name,
		AgentIdentity:     a.Identity,
	}

	messages := []llm.Message{
		{
			Role: "system",
			Content: "You rewrite a conversational question into a concise web search query.\n" +
				"Rules:\n" +
				"1. If the question names a specific person, organization or role other than the persona, keep that name EXACTLY as written. Never replace it with the persona's name.\n" +
				"2. If the question says \"you\" or \"your\" or names nobody, it is about the persona: add the persona's name and, if helpful, their role or place to narrow the search.\n" +
				"3. Keep the core intent of the question. Drop filler words.\n" +
				"Reply with the search query only, on one line, no quotes.",
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Persona name: %s\nPersona identity: %s\n\nQuestion: %s", a.Name, a.Identity, question),
		},
	}

	reply, err := r.completer.Complete(ctx, messages, 64, []string{"\n"})
	if err != nil {
		log.Printf("[QueryRewriter] Rewrite failed, using original question: %v", err)
		return q
	}

	rewritten := sanitizeQuery(reply)
	if rewritten == "" {
		log.Printf("[QueryRewriter] Empty rewrite, using original question")
		return q
	}

	q.RewrittenQuestion = rewritten
	return q
}

// sanitizeQuery trims quoting and keeps only the first line of the model
// output.
func sanitizeQuery(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.Trim(s, "\"'` ")
	return strings.TrimSpace(s)
}
