package cache

import (
	"testing"
	"time"

	"jobrag/internal/domain"
)

func TestQueryCacheHitAndMiss(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	results := []domain.Candidate{{Chunk: domain.Chunk{ID: "1", Text: "x"}, Distance: 0.1}}
	c.Put("query", domain.Filters{Company: "Acme"}, 5, -1, results)

	got, ok := c.Get("query", domain.Filters{Company: "Acme"}, 5, -1)
	if !ok || len(got) != 1 || got[0].ID != "1" {
		t.Errorf("expected cache hit, got ok=%v results=%v", ok, got)
	}

	// Any argument change is a different key.
	if _, ok := c.Get("query", domain.Filters{}, 5, -1); ok {
		t.Error("expected miss for different filters")
	}
	if _, ok := c.Get("query", domain.Filters{Company: "Acme"}, 6, -1); ok {
		t.Error("expected miss for different limit")
	}
	if _, ok := c.Get("query", domain.Filters{Company: "Acme"}, 5, 0.5); ok {
		t.Error("expected miss for different max distance")
	}
}

func TestQueryCacheTTL(t *testing.T) {
	c := NewQueryCache(10, time.Millisecond)
	c.Put("q", domain.Filters{}, 5, -1, nil)

	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("q", domain.Filters{}, 5, -1); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("expected expired entry to be dropped, size=%d", c.Size())
	}
}

func TestQueryCacheEviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("a", domain.Filters{}, 1, -1, nil)
	c.Put("b", domain.Filters{}, 1, -1, nil)
	c.Put("c", domain.Filters{}, 1, -1, nil)

	if c.Size() != 2 {
		t.Fatalf("expected size 2 after eviction, got %d", c.Size())
	}
	if _, ok := c.Get("a", domain.Filters{}, 1, -1); ok {
		t.Error("expected oldest entry evicted")
	}
}
