package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(rdb, time.Minute)
}

func TestCache_PutAndGet(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	results := []Result{
		{Title: "Town news", URL: "https://example.com/news", Snippet: "latest happenings"},
	}
	cache.Put(ctx, "town news", results)

	got, ok := cache.Get(ctx, "town news")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].URL != "https://example.com/news" {
		t.Errorf("unexpected cached results: %+v", got)
	}
}

func TestCache_MissForUnknownQuery(t *testing.T) {
	cache := setupCache(t)
	if _, ok := cache.Get(context.Background(), "never stored"); ok {
		t.Error("expected cache miss")
	}
}

func TestCache_EmptyResultsNotStored(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	cache.Put(ctx, "outage query", nil)
	if _, ok := cache.Get(ctx, "outage query"); ok {
		t.Error("empty result sets must not be cached")
	}
}

func TestCache_NilIsSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	cache.Put(ctx, "q", []Result{{Title: "t", URL: "https://example.com"}})
	if _, ok := cache.Get(ctx, "q"); ok {
		t.Error("nil cache must never hit")
	}
	if NewCache(nil, time.Minute) != nil {
		t.Error("NewCache(nil) should disable caching")
	}
}

func TestSearch_CacheHitSkipsHTTP(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(searchPage(resultBlock("Town news", "https://example.com/news", "snippet"))))
	}))
	defer srv.Close()

	cache := setupCache(t)
	client := NewClient(srv.URL, "test-agent", 5, cache)
	ctx := context.Background()

	first := client.Search(ctx, "town news")
	if len(first) != 1 || hits.Load() != 1 {
		t.Fatalf("expected one fetched result, got %d results after %d requests", len(first), hits.Load())
	}

	second := client.Search(ctx, "town news")
	if len(second) != 1 {
		t.Fatalf("expected cached result, got %d", len(second))
	}
	if hits.Load() != 1 {
		t.Errorf("cache hit still issued an HTTP search (%d requests)", hits.Load())
	}
}
