package search

// Query carries one turn's search reformulation. Ephemeral: created when
// augmentation is attempted, persisted only through the audit log.
type Query struct {
	OriginalQuestion  string `json:"original_question"`
	RewrittenQuestion string `json:"rewritten_question"`
	AgentName         string `json:"agent_name"`
	AgentIdentity     string `json:"agent_identity"`
}

// Result is a single parsed search result. Summary is filled in later if
// page summarization succeeds; callers fall back to Snippet otherwise.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Summary string `json:"summary,omitempty"`
}
