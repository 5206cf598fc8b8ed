package port

import (
	"context"

	"jobrag/internal/domain"
)

// VectorStore searches stored chunk embeddings. Results come back ordered by
// ascending distance; only the supplied filter fields constrain the query.
type VectorStore interface {
	Search(ctx context.Context, vector []float32, filters domain.Filters, limit int) ([]domain.Candidate, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	Close() error
}

// VectorWriter loads prepared chunks and their vectors into a store.
// Retrieval never writes; only ingest uses this.
type VectorWriter interface {
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
}
