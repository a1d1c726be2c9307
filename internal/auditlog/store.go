package auditlog

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Store persists audit records. Inserts never return errors: a broken audit
// trail degrades to diagnostic log lines, it must not touch the turn.
// Concurrent writers need no coordination beyond the database itself since
// the hot path is insert-only.
type Store struct {
	db *gorm.DB

	mu        sync.RWMutex
	listeners []func(WebSearchLogEntry)
}

// NewStore wraps a gorm handle whose schema has been migrated.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&WebSearchLogEntry{}, &RelevanceDecisionRecord{})
}

// Subscribe registers a callback invoked after each successful search-log
// insert. Used by the live feed; callbacks must not block.
func (s *Store) Subscribe(fn func(WebSearchLogEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// RecordSearch inserts one retrieval attempt record.
func (s *Store) RecordSearch(ctx context.Context, entry WebSearchLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("[AuditLog] Failed to record search attempt: %v", err)
		return
	}
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(entry)
	}
}

// RecordDecision inserts one classification attempt record.
func (s *Store) RecordDecision(ctx context.Context, rec RelevanceDecisionRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		log.Printf("[AuditLog] Failed to record relevance decision: %v", err)
	}
}

// ListRecent returns the newest search-log entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]WebSearchLogEntry, error) {
	var entries []WebSearchLogEntry
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(clampLimit(limit)).
		Find(&entries).Error
	return entries, err
}

// ListByAgent returns the newest entries for one agent, newest first.
func (s *Store) ListByAgent(ctx context.Context, agentName string, limit int) ([]WebSearchLogEntry, error) {
	var entries []WebSearchLogEntry
	err := s.db.WithContext(ctx).
		Where("agent_name = ?", agentName).
		Order("timestamp DESC").
		Limit(clampLimit(limit)).
		Find(&entries).Error
	return entries, err
}

// ListByTimeRange returns entries within [start, end], oldest first.
func (s *Store) ListByTimeRange(ctx context.Context, start, end time.Time) ([]WebSearchLogEntry, error) {
	var entries []WebSearchLogEntry
	err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Order("timestamp ASC").
		Find(&entries).Error
	return entries, err
}

// ListRecentDecisions returns the newest relevance decisions, newest first.
func (s *Store) ListRecentDecisions(ctx context.Context, limit int) ([]RelevanceDecisionRecord, error) {
	var records []RelevanceDecisionRecord
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(clampLimit(limit)).
		Find(&records).Error
	return records, err
}

// AggregateStats computes counts, success rate, average duration and the
// proactive/fallback split over the whole search log.
func (s *Store) AggregateStats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{}

	if err := db.Model(&WebSearchLogEntry{}).Count(&stats.TotalSearches).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&WebSearchLogEntry{}).Where("success = ?", true).Count(&stats.SuccessCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&WebSearchLogEntry{}).
		Select("COALESCE(AVG(duration_ms), 0)").
		Scan(&stats.AvgDurationMs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&WebSearchLogEntry{}).Where("trigger_type = ?", TriggerProactive).Count(&stats.ProactiveCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&WebSearchLogEntry{}).Where("trigger_type = ?", TriggerFallback).Count(&stats.FallbackCount).Error; err != nil {
		return nil, err
	}

	if stats.TotalSearches > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalSearches)
	}
	return stats, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
