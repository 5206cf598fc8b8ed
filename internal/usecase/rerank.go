package usecase

import (
	"context"
	"fmt"
	"sort"

	"jobrag/internal/domain"
	"jobrag/internal/port"
)

// Reranker reorders candidates by cross-encoder relevance to the query.
type Reranker struct {
	scorer port.Scorer
}

// NewReranker creates a reranker around the given scorer.
func NewReranker(scorer port.Scorer) *Reranker {
	return &Reranker{scorer: scorer}
}

// Rerank scores every candidate's text against the query in one batched call
// and returns the candidates sorted by descending score, ties keeping their
// input order. topK <= 0 returns all candidates.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []domain.Candidate, topK int) ([]domain.Candidate, error) {
	if len(candidates) == 0 {
		return []domain.Candidate{}, nil
	}
	if r.scorer == nil {
		return nil, domain.ErrScorerUnavailable
	}

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Text
	}

	scores, err := r.scorer.ScoreBatch(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder scoring failed: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("scorer returned %d scores for %d candidates", len(scores), len(candidates))
	}

	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].RerankScore = scores[i]
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RerankScore > out[j].RerankScore
	})

	if topK > 0 && topK < len(out) {
		out = out[:topK]
	}
	return out, nil
}
