package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"jobrag/config"
	"jobrag/internal/adapter/cache"
	"jobrag/internal/adapter/embedding"
	"jobrag/internal/adapter/llm"
	"jobrag/internal/adapter/rerank"
	"jobrag/internal/adapter/store"
	"jobrag/internal/port"
	"jobrag/internal/usecase"
)

// openStore opens the configured vector store backend. The caller owns the
// returned store and must Close it.
func openStore(cfg *config.Config) (port.VectorStore, error) {
	switch cfg.Database.Driver {
	case "bolt":
		path := cfg.Database.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(GetRootDir(), path)
		}
		return store.NewBoltStore(path, cfg.Embedding.Dimension)
	case "", "postgres":
		return store.NewPostgresStore(cfg.Database, GetLogger())
	default:
		return nil, fmt.Errorf("unknown database driver %q (want postgres or bolt)", cfg.Database.Driver)
	}
}

// buildRetriever wires the embedder, query cache and store into a retriever.
// Fails when the embedding credential is missing since nothing can be
// retrieved without query vectors.
func buildRetriever(cfg *config.Config, st port.VectorStore) (*usecase.Retriever, error) {
	emb, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.APIKeyEnv,
		cfg.Embedding.Model,
		cfg.Embedding.Dimension,
		cfg.Embedding.BatchSize,
	)
	if err != nil {
		return nil, err
	}

	qc := cache.NewQueryCache(cfg.Retrieve.CacheSize, time.Duration(cfg.Retrieve.CacheTTLSeconds)*time.Second)
	return usecase.NewRetriever(
		emb,
		st,
		cfg.Embedding.Dimension,
		cfg.Retrieve.OverfetchFactor,
		cfg.Retrieve.MinFetch,
		qc,
		GetLogger(),
	), nil
}

// buildReranker wires the cross-encoder scorer. Fails when the scorer
// credential is missing.
func buildReranker(cfg *config.Config) (*usecase.Reranker, error) {
	scorer, err := rerank.NewHTTPScorer(cfg.Rerank.Endpoint, cfg.Rerank.APIKeyEnv, cfg.Rerank.Model)
	if err != nil {
		return nil, err
	}
	return usecase.NewReranker(scorer), nil
}

// optionalReranker returns nil instead of an error when the scorer credential
// is missing, for commands where reranking is opt-in.
func optionalReranker(cfg *config.Config) *usecase.Reranker {
	r, err := buildReranker(cfg)
	if err != nil {
		GetLogger().Debug("reranker not configured", zap.Error(err))
		return nil
	}
	return r
}

// optionalCompleter returns nil when the completion credential is missing so
// that generation degrades to returning sources only.
func optionalCompleter(cfg *config.Config) port.ChatCompleter {
	c, err := llm.NewOpenAIChat(cfg.Generate.APIKeyEnv, cfg.Generate.Model, cfg.Generate.MaxTokens)
	if err != nil {
		GetLogger().Warn("completion provider not configured", zap.Error(err))
		return nil
	}
	return c
}

// effectiveMaxDistance resolves the distance ceiling from a flag and the
// config. A non-positive value disables the ceiling.
func effectiveMaxDistance(flagValue float64, flagSet bool, cfg *config.Config) float64 {
	v := cfg.Retrieve.MaxDistance
	if flagSet {
		v = flagValue
	}
	if v <= 0 {
		return -1
	}
	return v
}
