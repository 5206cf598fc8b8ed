package port

import "context"

// Scorer scores (query, passage) pairs with a cross-encoder model.
type Scorer interface {
	// ScoreBatch scores every passage against the query in one call and
	// returns one relevance score per passage, in input order. Higher is
	// more relevant.
	ScoreBatch(ctx context.Context, query string, passages []string) ([]float64, error)

	// ModelName returns the name of the scoring model.
	ModelName() string
}
