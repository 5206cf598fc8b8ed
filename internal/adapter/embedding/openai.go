package embedding

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"jobrag/internal/domain"
)

// OpenAIEmbedder generates embeddings through the OpenAI API.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

// NewOpenAIEmbedder creates an embedder reading its API key from the named
// environment variable. Returns an error when the key is not set so callers
// can degrade instead of failing on first use.
func NewOpenAIEmbedder(apiKeyEnv, model string, dimension, batchSize int) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", domain.ErrEmbeddingUnavailable, apiKeyEnv)
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(apiKey),
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
	}, nil
}

// Embed generates embeddings for the given texts in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var all [][]float32
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts[i:end],
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding request failed: %w", err)
		}
		if len(resp.Data) != end-i {
			return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), end-i)
		}

		for _, d := range resp.Data {
			if len(d.Embedding) != e.dimension {
				return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, e.dimension, len(d.Embedding))
			}
			all = append(all, d.Embedding)
		}
	}

	return all, nil
}

// Dimension returns the embedding vector dimension.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the name of the embedding model.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
