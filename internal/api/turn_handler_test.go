package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"agentsearch/internal/auditlog"
	"agentsearch/internal/llm"
	"agentsearch/internal/pipeline"
	"agentsearch/internal/search"
)

// routingCompleter answers each pipeline prompt by system-prompt content,
// so one stub can serve need assessment, rewriting, classification and
// persona generation in the same turn.
type routingCompleter struct {
	needsSearch bool
	reply       string
	generateErr error
}

func (r *routingCompleter) Complete(_ context.Context, messages []llm.Message, _ int, _ []string) (string, error) {
	sys := messages[0].Content
	switch {
	case strings.Contains(sys, "external web search"):
		if r.needsSearch {
			return "YES", nil
		}
		return "NO", nil
	case strings.Contains(sys, "rewrite a conversational question"):
		return "Lucky AI Town latest news", nil
	case strings.Contains(sys, "specifically about a given persona"):
		return "DECISION: RELEVANT\nREASONING: The results describe this persona.", nil
	default:
		if r.generateErr != nil {
			return "", r.generateErr
		}
		return r.reply, nil
	}
}

type fixedSearcher struct{ results []search.Result }

func (s *fixedSearcher) Search(_ context.Context, _ string) []search.Result { return s.results }

type snippetCondenser struct{}

func (snippetCondenser) FetchAndSummarize(_ context.Context, _, _ string) string {
	return "Condensed page text about Lucky."
}

func turnRouter(t *testing.T, completer llm.Completer, searcher pipeline.Searcher, enabled bool, store *auditlog.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	pipe := pipeline.New(pipeline.Options{
		Completer:        completer,
		Retriever:        searcher,
		Condenser:        snippetCondenser{},
		Audit:            store,
		WebSearchEnabled: enabled,
	})
	r := gin.New()
	r.POST("/api/turn", TurnHandler(testConfig(), pipe, completer))
	return r
}

func postTurn(t *testing.T, r *gin.Engine, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/turn", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func luckyPayload(question string) map[string]any {
	return map[string]any{
		"agent_name":     "Lucky",
		"agent_identity": "Lucky is a cheerful town baker who loves gossip.",
		"other_name":     "Stella",
		"question":       question,
	}
}

func TestTurnHandler_BadRequest(t *testing.T) {
	r := turnRouter(t, &routingCompleter{reply: "hi"}, &fixedSearcher{}, false, setupStore(t))

	w := postTurn(t, r, map[string]any{"agent_name": "Lucky"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing question, got %d", w.Code)
	}
}

func TestTurnHandler_PlainReply(t *testing.T) {
	r := turnRouter(t, &routingCompleter{reply: "Hello Stella, lovely morning!"}, &fixedSearcher{}, false, setupStore(t))

	w := postTurn(t, r, luckyPayload("how are you today?"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp turnResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != "Hello Stella, lovely morning!" || resp.Augmented {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestTurnHandler_AugmentedTurn(t *testing.T) {
	store := setupStore(t)
	completer := &routingCompleter{needsSearch: true, reply: "I read that Lucky won the bake-off!"}
	searcher := &fixedSearcher{results: []search.Result{
		{Title: "Lucky wins the bake-off", URL: "https://example.com/news", Snippet: "Lucky took first place."},
	}}
	r := turnRouter(t, completer, searcher, true, store)

	w := postTurn(t, r, luckyPayload("did you win the bake-off?"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp turnResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Augmented || resp.TriggerType != string(auditlog.TriggerProactive) {
		t.Errorf("expected augmented proactive turn, got %+v", resp)
	}
	if resp.Decision != string(auditlog.DecisionRelevant) {
		t.Errorf("expected RELEVANT decision, got %q", resp.Decision)
	}
	if resp.Query != "Lucky AI Town latest news" {
		t.Errorf("unexpected rewritten query %q", resp.Query)
	}

	entries, err := store.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 1 || !entries[0].Success {
		t.Errorf("expected one successful audit entry, got %+v", entries)
	}
}

func TestTurnHandler_GenerationFailure(t *testing.T) {
	completer := &routingCompleter{generateErr: errors.New("backend down")}
	r := turnRouter(t, completer, &fixedSearcher{}, false, setupStore(t))

	w := postTurn(t, r, luckyPayload("how are you?"))
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 when generation fails, got %d", w.Code)
	}
}
