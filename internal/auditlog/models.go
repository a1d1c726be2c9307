package auditlog

import (
	"time"

	"gorm.io/datatypes"
)

// TriggerType records whether a retrieval ran before generation (proactive)
// or after a reply signalled inability to answer (fallback).
type TriggerType string

const (
	TriggerProactive TriggerType = "proactive"
	TriggerFallback  TriggerType = "fallback"
)

// Decision is the relevance classification vocabulary. Exactly two values;
// parsing elsewhere is exact-match, never substring.
type Decision string

const (
	DecisionRelevant    Decision = "RELEVANT"
	DecisionNotRelevant Decision = "NOT_RELEVANT"
)

// WebSearchLogEntry is the permanent record of one retrieval attempt,
// success or failure. Append-only: the hot path only ever inserts.
type WebSearchLogEntry struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	EntryID          string         `json:"entry_id" gorm:"size:36;uniqueIndex"`
	Timestamp        time.Time      `json:"timestamp" gorm:"index"`
	Question         string         `json:"question"`
	AgentName        string         `json:"agent_name" gorm:"index"`
	AgentIdentity    string         `json:"agent_identity,omitempty"`
	SearchResults    datatypes.JSON `json:"search_results"`
	Success          bool           `json:"success"`
	DurationMs       int64          `json:"duration_ms"`
	ResultCount      int            `json:"result_count"`
	FormattedContext string         `json:"formatted_context,omitempty"`
	Error            string         `json:"error,omitempty"`
	TriggerType      TriggerType    `json:"trigger_type" gorm:"size:16"`
}

func (WebSearchLogEntry) TableName() string {
	return "web_search_log"
}

// RelevanceDecisionRecord is the permanent record of one classification
// attempt. ClassifierError marks fail-open defaults so they are
// distinguishable from genuine decisions.
type RelevanceDecisionRecord struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	DecisionID        string         `json:"decision_id" gorm:"size:36;uniqueIndex"`
	Timestamp         time.Time      `json:"timestamp" gorm:"index"`
	AgentName         string         `json:"agent_name" gorm:"index"`
	Question          string         `json:"question"`
	RewrittenQuestion string         `json:"rewritten_question"`
	Results           datatypes.JSON `json:"results"`
	Decision          Decision       `json:"decision" gorm:"size:16"`
	Reasoning         string         `json:"reasoning"`
	ClassifierError   bool           `json:"classifier_error"`
	TriggerType       TriggerType    `json:"trigger_type" gorm:"size:16"`
}

func (RelevanceDecisionRecord) TableName() string {
	return "relevance_decisions"
}

// Stats is the aggregate view over the search log.
type Stats struct {
	TotalSearches  int64   `json:"total_searches"`
	SuccessCount   int64   `json:"success_count"`
	SuccessRate    float64 `json:"success_rate"`
	AvgDurationMs  float64 `json:"avg_duration_ms"`
	ProactiveCount int64   `json:"proactive_count"`
	FallbackCount  int64   `json:"fallback_count"`
}
