package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"jobrag/internal/domain"
)

// HTTPScorer scores (query, passage) pairs against a hosted cross-encoder
// exposing the rerank JSON protocol (Cohere and compatible services).
type HTTPScorer struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// NewHTTPScorer creates a scorer reading its API key from the named
// environment variable.
func NewHTTPScorer(endpoint, apiKeyEnv, model string) (*HTTPScorer, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", domain.ErrScorerUnavailable, apiKeyEnv)
	}
	if endpoint == "" {
		endpoint = "https://api.cohere.ai/v1/rerank"
	}

	return &HTTPScorer{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// ScoreBatch scores every passage against the query in one request and
// returns scores in input order.
func (s *HTTPScorer) ScoreBatch(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	jsonData, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: passages,
		Model:     s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API returned status %d: %s", resp.StatusCode, string(body))
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	scores := make([]float64, len(passages))
	for _, res := range rerankResp.Results {
		if res.Index < 0 || res.Index >= len(passages) {
			return nil, fmt.Errorf("rerank result index %d out of range", res.Index)
		}
		scores[res.Index] = res.RelevanceScore
	}

	return scores, nil
}

// ModelName returns the scoring model name.
func (s *HTTPScorer) ModelName() string {
	return s.model
}
