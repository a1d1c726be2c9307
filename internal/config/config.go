package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Subpath   string `json:"subpath"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Postgres struct {
		DSN string `json:"dsn"`
	} `json:"postgres"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	LLM struct {
		URL       string `json:"url"`
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
	} `json:"llm"`
	Search struct {
		Endpoint           string `json:"endpoint"`
		UserAgent          string `json:"user_agent"`
		PageUserAgent      string `json:"page_user_agent"`
		MaxResults         int    `json:"max_results"`
		PageTimeoutSeconds int    `json:"page_timeout_seconds"`
		CacheTTLMinutes    int    `json:"cache_ttl_minutes"`
		WebSearchEnabled   bool   `json:"web_search_enabled"`
	} `json:"search"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		// Minimal validation
		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}
		applyDefaults(&c)
		cfg = &c
	})
	return cfg, cfgErr
}

func applyDefaults(c *Config) {
	// Route registration requires a leading slash; an empty subpath mounts
	// everything at the root.
	if !strings.HasPrefix(c.Server.Subpath, "/") {
		c.Server.Subpath = "/" + c.Server.Subpath
	}
	if c.Search.Endpoint == "" {
		c.Search.Endpoint = "https://html.duckduckgo.com/html/"
	}
	if c.Search.UserAgent == "" {
		c.Search.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.Search.PageUserAgent == "" {
		c.Search.PageUserAgent = "AgentSearch/1.0 (conversational agent retrieval)"
	}
	if c.Search.MaxResults <= 0 || c.Search.MaxResults > 5 {
		c.Search.MaxResults = 5
	}
	if c.Search.PageTimeoutSeconds <= 0 {
		c.Search.PageTimeoutSeconds = 5
	}
	if c.Search.CacheTTLMinutes <= 0 {
		c.Search.CacheTTLMinutes = 15
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 512
	}
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
