package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"agentsearch/internal/auditlog"
)

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RecentLogHandler returns the newest search-log entries.
func RecentLogHandler(store *auditlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.ListRecent(c.Request.Context(), limitParam(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "failed to query search log"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

// AgentLogHandler returns the newest entries for one agent.
func AgentLogHandler(store *auditlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "agent name required"}})
			return
		}
		entries, err := store.ListByAgent(c.Request.Context(), name, limitParam(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "failed to query search log"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"agent": name, "entries": entries})
	}
}

// RangeLogHandler returns entries inside a [start, end] RFC3339 window.
func RangeLogHandler(store *auditlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, err1 := time.Parse(time.RFC3339, c.Query("start"))
		end, err2 := time.Parse(time.RFC3339, c.Query("end"))
		if err1 != nil || err2 != nil || end.Before(start) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "start and end must be RFC3339 timestamps with start <= end"}})
			return
		}
		entries, err := store.ListByTimeRange(c.Request.Context(), start, end)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "failed to query search log"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

// StatsHandler returns the aggregate statistics view.
func StatsHandler(store *auditlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.AggregateStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "failed to compute stats"}})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// RecentDecisionsHandler returns the newest relevance decisions.
func RecentDecisionsHandler(store *auditlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := store.ListRecentDecisions(c.Request.Context(), limitParam(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "failed to query decisions"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"decisions": records})
	}
}

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		return 50
	}
	return limit
}
