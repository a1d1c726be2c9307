package api

import (
	"path"

	"github.com/gin-gonic/gin"

	"agentsearch/internal/auditlog"
	"agentsearch/internal/auth"
	"agentsearch/internal/config"
	"agentsearch/internal/llm"
	"agentsearch/internal/pipeline"
)

// SetupRouter wires the audit API, the turn endpoint, and the live log feed.
// Everything under /api requires a bearer token; the websocket feed does its
// own token check because browsers cannot set headers on websocket dials.
func SetupRouter(cfg *config.Config, store *auditlog.Store, pipe *pipeline.Pipeline, completer llm.Completer, feed *LogFeed) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath

	r.GET(path.Join(subpath, "health"), healthHandler)
	r.GET(path.Join(subpath, "ws", "log"), WSLogFeedHandler(cfg, feed))

	api := r.Group(path.Join(subpath, "api"), auth.AuthMiddleware(cfg))
	{
		api.GET("/search-log/recent", RecentLogHandler(store))
		api.GET("/search-log/agent/:name", AgentLogHandler(store))
		api.GET("/search-log/range", RangeLogHandler(store))
		api.GET("/search-log/stats", StatsHandler(store))
		api.GET("/relevance-decisions/recent", RecentDecisionsHandler(store))

		api.POST("/turn", TurnHandler(cfg, pipe, completer))
	}

	return r
}
