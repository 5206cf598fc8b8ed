package domain

import "errors"

// Pipeline failure taxonomy. Each failed request is attributable to exactly
// one stage; nothing is retried below the caller.
var (
	// ErrEmbeddingUnavailable means no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding provider not configured")

	// ErrDimensionMismatch means the embedder returned a vector whose length
	// does not match the store's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreUnavailable wraps vector store connectivity or query failures.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrScorerUnavailable means no cross-encoder scorer is configured.
	ErrScorerUnavailable = errors.New("rerank scorer not configured")
)
