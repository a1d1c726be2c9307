package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agentsearch/internal/agent"
)

func TestRewrite_UsesModelOutput(t *testing.T) {
	r := NewQueryRewriter(&fixedCompleter{reply: "Riverbend weather forecast today"})
	q := r.Rewrite(context.Background(), "What's the weather like?", mayorPark)

	if q.RewrittenQuestion != "Riverbend weather forecast today" {
		t.Errorf("unexpected rewrite: %q", q.RewrittenQuestion)
	}
	if q.OriginalQuestion != "What's the weather like?" {
		t.Errorf("original question must be preserved: %q", q.OriginalQuestion)
	}
	if q.AgentName != "Mayor Park" {
		t.Errorf("agent name missing from query: %q", q.AgentName)
	}
}

func TestRewrite_ThirdPartyEntitySurvivesFailure(t *testing.T) {
	// Pass-through on failure keeps named third parties byte-identical
	r := NewQueryRewriter(&fixedCompleter{err: errors.New("offline")})
	question := "What did Governor Martinez say about the dam?"
	q := r.Rewrite(context.Background(), question, mayorPark)

	if q.RewrittenQuestion != question {
		t.Errorf("failure must pass the question through unchanged, got %q", q.RewrittenQuestion)
	}
	if !strings.Contains(q.RewrittenQuestion, "Governor Martinez") {
		t.Errorf("third-party entity lost: %q", q.RewrittenQuestion)
	}
	if strings.Count(q.RewrittenQuestion, "Mayor Park") != 0 {
		t.Errorf("persona name must not be substituted for the entity")
	}
}

func TestRewrite_EmptyOutputFallsBack(t *testing.T) {
	r := NewQueryRewriter(&fixedCompleter{reply: "   "})
	q := r.Rewrite(context.Background(), "original question", mayorPark)
	if q.RewrittenQuestion != "original question" {
		t.Errorf("blank rewrite must fall back to the original, got %q", q.RewrittenQuestion)
	}
}

func TestRewrite_StripsQuotesAndExtraLines(t *testing.T) {
	r := NewQueryRewriter(&fixedCompleter{reply: "\"Mayor Park budget 2026\"\nHere is why I chose this query..."})
	q := r.Rewrite(context.Background(), "What's your budget?", mayorPark)
	if q.RewrittenQuestion != "Mayor Park budget 2026" {
		t.Errorf("expected sanitized single-line query, got %q", q.RewrittenQuestion)
	}
}

func TestRewrite_Idempotent(t *testing.T) {
	comp := &fixedCompleter{reply: "Mayor Park infrastructure plan"}
	r := NewQueryRewriter(comp)
	a := agent.Context{Name: "Mayor Park", Identity: "governs Riverbend"}

	first := r.Rewrite(context.Background(), "What's your plan?", a)
	second := r.Rewrite(context.Background(), "What's your plan?", a)
	if first != second {
		t.Errorf("identical inputs against a deterministic completer must produce identical output:\n%+v\n%+v", first, second)
	}
}
