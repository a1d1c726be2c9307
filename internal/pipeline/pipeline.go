package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"agentsearch/internal/agent"
	"agentsearch/internal/auditlog"
	"agentsearch/internal/llm"
	"agentsearch/internal/search"
)

// augmentationPreface tells the generator why external content is present.
const augmentationPreface = "The following information was retrieved from a web search because the question goes beyond what this persona inherently knows. Use it to answer accurately while staying fully in character.\n\n"

// GenerateFunc is the external response-generation collaborator. The
// augmentation argument is "" when the reply should come from persona
// knowledge alone.
type GenerateFunc func(ctx context.Context, augmentation string) (string, error)

// TurnResult is what one pipeline invocation hands back to the caller.
type TurnResult struct {
	Reply       string
	Augmented   bool
	TriggerType auditlog.TriggerType // empty when no retrieval ran
	Query       *search.Query
	Decision    auditlog.Decision // empty when no classification ran
	Context     string            // the formatted context block, if used
	FailureLang string            // language tag when the reply matched a failure pattern
}

// Options wires a Pipeline. WebSearchEnabled is the feature gate resolved
// once by the caller; the pipeline never reads ambient process state.
type Options struct {
	Completer        llm.Completer
	Retriever        Searcher
	Condenser        PageCondenser
	Audit            Auditor
	WebSearchEnabled bool
	FailurePatterns  []FailurePattern
}

// Pipeline is the per-turn knowledge-gap resolution chain. It owns no
// mutable state across turns; every step is fail-soft, so the worst outcome
// of any internal error is an un-augmented reply.
type Pipeline struct {
	assessor   *NeedAssessor
	rewriter   *QueryRewriter
	retriever  Searcher
	classifier *RelevanceClassifier
	summarizer *ResultSummarizer
	detector   *FailureDetector
	audit      Auditor
	enabled    bool
}

func New(opts Options) *Pipeline {
	return &Pipeline{
		assessor:   NewNeedAssessor(opts.Completer),
		rewriter:   NewQueryRewriter(opts.Completer),
		retriever:  opts.Retriever,
		classifier: NewRelevanceClassifier(opts.Completer),
		summarizer: NewResultSummarizer(opts.Condenser),
		detector:   NewFailureDetector(opts.FailurePatterns),
		audit:      opts.Audit,
		enabled:    opts.WebSearchEnabled,
	}
}

// RunTurn executes one conversational turn:
//
//	need check -> (rewrite -> retrieve -> classify -> summarize)? ->
//	generate -> failure check -> at most one fallback cycle.
//
// Only the generation collaborator can fail the turn; everything owned by
// the pipeline degrades instead.
func (p *Pipeline) RunTurn(ctx context.Context, tc agent.TurnContext, question string, generate GenerateFunc) (*TurnResult, error) {
	res := &TurnResult{}

	if p.enabled && p.assessor.NeedsExternalInfo(ctx, question, tc.Agent().Identity) {
		log.Printf("[Pipeline] Question needs external info for %s: %s", tc.Agent().Name, truncate(question, 80))
		cycle := p.searchCycle(ctx, tc, question, auditlog.TriggerProactive)
		res.TriggerType = auditlog.TriggerProactive
		res.Query = &cycle.query
		res.Decision = cycle.decision
		res.Context = cycle.formatted
	}

	reply, err := generate(ctx, augmentationFor(res.Context))
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	res.Reply = reply
	res.Augmented = res.Context != ""

	// Fallback fires only when no augmentation context was used this turn,
	// and at most once regardless of what the regenerated reply looks like.
	if res.Augmented {
		return res, nil
	}
	lang, matched := p.detector.Match(reply)
	if !matched {
		return res, nil
	}
	res.FailureLang = lang
	if !p.enabled {
		log.Printf("[Pipeline] Reply signals inability to answer (%s) but web search is disabled", lang)
		return res, nil
	}

	log.Printf("[Pipeline] Reply signals inability to answer (%s), running fallback retrieval for %s", lang, tc.Agent().Name)
	cycle := p.searchCycle(ctx, tc, question, auditlog.TriggerFallback)
	res.TriggerType = auditlog.TriggerFallback
	res.Query = &cycle.query
	res.Decision = cycle.decision
	if cycle.formatted == "" {
		// Nothing usable came back; the original reply stands
		return res, nil
	}

	regenerated, err := generate(ctx, augmentationFor(cycle.formatted))
	if err != nil {
		log.Printf("[Pipeline] Fallback regeneration failed, keeping original reply: %v", err)
		return res, nil
	}
	res.Reply = regenerated
	res.Context = cycle.formatted
	res.Augmented = true
	return res, nil
}

type cycleResult struct {
	query     search.Query
	decision  auditlog.Decision
	formatted string
}

// searchCycle runs rewrite -> retrieve -> classify -> summarize and records
// one WebSearchLogEntry for the retrieval attempt plus one
// RelevanceDecisionRecord when classification ran.
func (p *Pipeline) searchCycle(ctx context.Context, tc agent.TurnContext, question string, trigger auditlog.TriggerType) cycleResult {
	a := tc.Agent()
	q := p.rewriter.Rewrite(ctx, question, a)

	start := time.Now()
	results := p.retriever.Search(ctx, q.RewrittenQuestion)
	durationMs := time.Since(start).Milliseconds()

	out := cycleResult{query: q}

	if len(results) == 0 {
		p.audit.RecordSearch(ctx, auditlog.WebSearchLogEntry{
			EntryID:       uuid.NewString(),
			Timestamp:     time.Now().UTC(),
			Question:      question,
			AgentName:     a.Name,
			AgentIdentity: a.Identity,
			Success:       false,
			DurationMs:    durationMs,
			Error:         "search returned no results",
			TriggerType:   trigger,
		})
		return out
	}

	resultsJSON, _ := json.Marshal(results)

	outcome := p.classifier.Classify(ctx, results, a, question)
	out.decision = outcome.Decision
	p.audit.RecordDecision(ctx, auditlog.RelevanceDecisionRecord{
		DecisionID:        uuid.NewString(),
		Timestamp:         time.Now().UTC(),
		AgentName:         a.Name,
		Question:          question,
		RewrittenQuestion: q.RewrittenQuestion,
		Results:           resultsJSON,
		Decision:          outcome.Decision,
		Reasoning:         outcome.Reasoning,
		ClassifierError:   outcome.ClassifierError,
		TriggerType:       trigger,
	})

	if outcome.Decision == auditlog.DecisionRelevant {
		out.formatted = p.summarizer.BuildContext(ctx, question, q, results)
	}

	p.audit.RecordSearch(ctx, auditlog.WebSearchLogEntry{
		EntryID:          uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		Question:         question,
		AgentName:        a.Name,
		AgentIdentity:    a.Identity,
		SearchResults:    resultsJSON,
		Success:          true,
		DurationMs:       durationMs,
		ResultCount:      len(results),
		FormattedContext: out.formatted,
		TriggerType:      trigger,
	})
	return out
}

func augmentationFor(formatted string) string {
	if formatted == "" {
		return ""
	}
	return augmentationPreface + formatted
}
