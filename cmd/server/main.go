package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"agentsearch/internal/api"
	"agentsearch/internal/auditlog"
	"agentsearch/internal/config"
	"agentsearch/internal/db"
	"agentsearch/internal/llm"
	"agentsearch/internal/pipeline"
	redisdb "agentsearch/internal/redis"
	"agentsearch/internal/search"
)

func main() {
	// Optional .env for local development; real deployments use config.json.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	rdb := redisdb.NewClient(cfg)

	completer := llm.NewClient(cfg.LLM.URL, cfg.LLM.Model)
	cache := search.NewCache(rdb, time.Duration(cfg.Search.CacheTTLMinutes)*time.Minute)
	retriever := search.NewClient(cfg.Search.Endpoint, cfg.Search.UserAgent, cfg.Search.MaxResults, cache)
	condenser := search.NewPageSummarizer(
		time.Duration(cfg.Search.PageTimeoutSeconds)*time.Second,
		cfg.Search.PageUserAgent,
		completer,
	)
	store := auditlog.NewStore(db.DB)

	enabled := webSearchEnabled(cfg)
	log.Printf("[Main] Web search enabled: %v", enabled)

	pipe := pipeline.New(pipeline.Options{
		Completer:        completer,
		Retriever:        retriever,
		Condenser:        condenser,
		Audit:            store,
		WebSearchEnabled: enabled,
	})

	feed := api.NewLogFeed(store)
	r := api.SetupRouter(cfg, store, pipe, completer, feed)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// webSearchEnabled resolves the feature gate exactly once at startup: the
// AGENTSEARCH_WEB_SEARCH environment variable overrides config.json when set.
func webSearchEnabled(cfg *config.Config) bool {
	if raw, ok := os.LookupEnv("AGENTSEARCH_WEB_SEARCH"); ok {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			log.Printf("[Main] Ignoring invalid AGENTSEARCH_WEB_SEARCH value %q", raw)
			return cfg.Search.WebSearchEnabled
		}
		return enabled
	}
	return cfg.Search.WebSearchEnabled
}
