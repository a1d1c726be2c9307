package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"agentsearch/internal/agent"
	"agentsearch/internal/auditlog"
	"agentsearch/internal/llm"
	"agentsearch/internal/search"
)

// RelevanceOutcome is the result of one classification attempt.
// ClassifierError marks the fail-open default taken when the call itself
// broke, so the audit trail can tell it apart from a genuine decision.
type RelevanceOutcome struct {
	Decision        auditlog.Decision
	Reasoning       string
	ClassifierError bool
}

// RelevanceClassifier judges whether retrieved results are specifically
// about the requesting persona, not merely about the topic. It runs after
// retrieval on purpose: topic filtering alone cannot separate "generic
// domain news" from "news about this individual".
//
// Failure default is RELEVANT (fail open): surfacing possibly-useful
// information beats silently discarding it.
type RelevanceClassifier struct {
	completer llm.Completer
}

func NewRelevanceClassifier(completer llm.Completer) *RelevanceClassifier {
	return &RelevanceClassifier{completer: completer}
}

// Classify inspects the result list for the agent. Result sets in which no
// title or snippet mentions the agent's name or an alias are NOT_RELEVANT
// without consulting the model.
func (c *RelevanceClassifier) Classify(ctx context.Context, results []search.Result, a agent.Context, question string) RelevanceOutcome {
	if !anyResultMentionsAgent(results, a) {
		return RelevanceOutcome{
			Decision:  auditlog.DecisionNotRelevant,
			Reasoning: fmt.Sprintf("no result mentions %s by name", a.Name),
		}
	}

	messages := []llm.Message{
		{
			Role: "system",
			Content: "You judge whether web search results are specifically about a given persona, not just about the same topic.\n" +
				"Results about a different person with the same role, or generic news in the persona's field, are NOT_RELEVANT.\n" +
				"Respond in exactly this format:\n" +
				"DECISION: RELEVANT\n" +
				"REASONING: <one sentence>\n" +
				"or\n" +
				"DECISION: NOT_RELEVANT\n" +
				"REASONING: <one sentence>",
		},
		{
			Role:    "user",
			Content: buildClassificationPrompt(results, a, question),
		},
	}

	reply, err := c.completer.Complete(ctx, messages, 96, nil)
	if err != nil {
		log.Printf("[RelevanceClassifier] Classification call failed, defaulting to RELEVANT: %v", err)
		return RelevanceOutcome{
			Decision:        auditlog.DecisionRelevant,
			Reasoning:       "classifier error, fail-open default",
			ClassifierError: true,
		}
	}

	decision, reasoning, ok := parseDecision(reply)
	if !ok {
		log.Printf("[RelevanceClassifier] Unparseable decision %q, defaulting to RELEVANT", truncate(reply, 80))
		return RelevanceOutcome{
			Decision:        auditlog.DecisionRelevant,
			Reasoning:       "unparseable classifier output, fail-open default",
			ClassifierError: true,
		}
	}

	return RelevanceOutcome{Decision: decision, Reasoning: reasoning}
}

func buildClassificationPrompt(results []search.Result, a agent.Context, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Persona: %s\nIdentity: %s\nOriginal question: %s\n\nSearch results:\n", a.Name, a.Identity, question)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n    %s\n    %s\n", i+1, r.Title, r.Snippet, r.URL)
	}
	b.WriteString("\nAre these results specifically about this persona?")
	return b.String()
}

// parseDecision extracts the decision token with exact matching. Substring
// containment is wrong here: "NOT_RELEVANT" contains "RELEVANT".
func parseDecision(reply string) (auditlog.Decision, string, bool) {
	var decision auditlog.Decision
	var reasoning string
	found := false

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "DECISION:"); ok && !found {
			token := strings.ToUpper(strings.TrimSpace(rest))
			switch token {
			case string(auditlog.DecisionRelevant):
				decision = auditlog.DecisionRelevant
				found = true
			case string(auditlog.DecisionNotRelevant):
				decision = auditlog.DecisionNotRelevant
				found = true
			}
			continue
		}
		if rest, ok := strings.CutPrefix(line, "REASONING:"); ok {
			reasoning = strings.TrimSpace(rest)
		}
	}

	if !found {
		// Tolerate a bare token reply, still exact-match only
		token := strings.ToUpper(strings.TrimSpace(reply))
		switch token {
		case string(auditlog.DecisionRelevant):
			return auditlog.DecisionRelevant, "", true
		case string(auditlog.DecisionNotRelevant):
			return auditlog.DecisionNotRelevant, "", true
		}
		return "", "", false
	}
	return decision, reasoning, true
}

func anyResultMentionsAgent(results []search.Result, a agent.Context) bool {
	aliases := agent.Aliases(a)
	for _, r := range results {
		text := strings.ToLower(r.Title + " " + r.Snippet)
		for _, alias := range aliases {
			if strings.Contains(text, strings.ToLower(alias)) {
				return true
			}
		}
	}
	return false
}
