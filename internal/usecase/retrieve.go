package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"jobrag/internal/adapter/cache"
	"jobrag/internal/domain"
	"jobrag/internal/port"
)

// Default over-fetch parameters. A posting is stored as several chunks, so
// the store is asked for many more rows than the caller wants; collapsing
// chunks to one candidate per posting would otherwise starve the result set.
const (
	DefaultOverfetchFactor = 15
	DefaultMinFetch        = 100
)

// Retriever combines the embedding gateway and the vector store into
// posting-level retrieval: embed, over-fetch, collapse to one chunk per
// posting, apply the optional distance ceiling, sort, truncate.
type Retriever struct {
	embedder        port.Embedder
	store           port.VectorStore
	dimension       int
	overfetchFactor int
	minFetch        int
	cache           *cache.QueryCache
	logger          *zap.Logger
}

// NewRetriever creates a retriever. embedder may be nil when no provider is
// configured; Retrieve then fails with ErrEmbeddingUnavailable. cache may be
// nil to disable result caching.
func NewRetriever(
	embedder port.Embedder,
	store port.VectorStore,
	dimension int,
	overfetchFactor int,
	minFetch int,
	queryCache *cache.QueryCache,
	logger *zap.Logger,
) *Retriever {
	if overfetchFactor <= 0 {
		overfetchFactor = DefaultOverfetchFactor
	}
	if minFetch <= 0 {
		minFetch = DefaultMinFetch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embedder:        embedder,
		store:           store,
		dimension:       dimension,
		overfetchFactor: overfetchFactor,
		minFetch:        minFetch,
		cache:           queryCache,
		logger:          logger,
	}
}

// Retrieve returns at most limit candidates matching the query and filters,
// one per posting, sorted by ascending distance. A negative maxDistance
// disables the ceiling.
func (r *Retriever) Retrieve(ctx context.Context, query string, filters domain.Filters, limit int, maxDistance float64) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be at least 1, got %d", limit)
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	if r.cache != nil {
		if cached, ok := r.cache.Get(query, filters, limit, maxDistance); ok {
			return cached, nil
		}
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}
	if len(vectors[0]) != r.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, r.dimension, len(vectors[0]))
	}

	fetchLimit := limit * r.overfetchFactor
	if fetchLimit < r.minFetch {
		fetchLimit = r.minFetch
	}

	rows, err := r.store.Search(ctx, vectors[0], filters, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := dedupeByPosting(rows)
	if maxDistance >= 0 {
		kept := results[:0]
		for _, c := range results {
			if c.Distance <= maxDistance {
				kept = append(kept, c)
			}
		}
		results = kept
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if limit < len(results) {
		results = results[:limit]
	}

	r.logger.Debug("retrieval complete",
		zap.Int("fetched", len(rows)),
		zap.Int("returned", len(results)))

	if r.cache != nil {
		r.cache.Put(query, filters, limit, maxDistance, results)
	}

	return results, nil
}

// dedupeByPosting keeps one candidate per posting. The store returns rows in
// ascending distance order, so the first chunk seen for a posting is its best
// one; that also makes the tie-break first-seen by construction.
func dedupeByPosting(rows []domain.Candidate) []domain.Candidate {
	seen := make(map[domain.PostingKey]int, len(rows))
	out := make([]domain.Candidate, 0, len(rows))
	for _, c := range rows {
		key := c.PostingKey()
		if i, ok := seen[key]; ok {
			if c.Distance < out[i].Distance {
				out[i] = c
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, c)
	}
	return out
}
