package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"agentsearch/internal/llm"
)

// NeedAssessor decides whether a question requires information beyond the
// persona's identity and memory. On classifier failure it fails closed
// (false): a missed search costs less than blocking the turn.
type NeedAssessor struct {
	completer llm.Completer
}

func NewNeedAssessor(completer llm.Completer) *NeedAssessor {
	return &NeedAssessor{completer: completer}
}

// NeedsExternalInfo returns true when answering the question needs current
// facts, statistics or events the persona cannot know from its identity.
func (a *NeedAssessor) NeedsExternalInfo(ctx context.Context, question, identity string) bool {
	if strings.TrimSpace(question) == "" {
		return false
	}

	messages := []llm.Message{
		{
			Role: "system",
			Content: "You decide whether a question asked of a fictional persona requires an external web search to answer well.\n" +
				"Answer NO for self-referential or opinion questions (\"what do you think\", \"how are you\", feelings, preferences, the persona's own life).\n" +
				"Answer YES for questions about current facts, statistics, news, or events outside the persona's own experience.\n" +
				"Reply with exactly one word: YES or NO.",
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Persona identity: %s\n\nQuestion: %s\n\nDoes answering require external information?", identity, question),
		},
	}

	reply, err := a.completer.Complete(ctx, messages, 8, nil)
	if err != nil {
		log.Printf("[NeedAssessor] Classification failed, defaulting to no search: %v", err)
		return false
	}

	token := firstToken(reply)
	switch token {
	case "YES":
		return true
	case "NO":
		return false
	default:
		log.Printf("[NeedAssessor] Unparseable classification %q, defaulting to no search", truncate(reply, 60))
		return false
	}
}

// firstToken returns the first whitespace-delimited token, uppercased and
// stripped of punctuation.
func firstToken(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Trim(fields[0], ".,:;!\"'"))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
