package usecase

import (
	"context"

	"jobrag/internal/domain"
)

type fakeEmbedder struct {
	vector    []float32
	dimension int
	calls     int
	err       error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return f.dimension }
func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }

type fakeStore struct {
	results     []domain.Candidate
	lastLimit   int
	lastFilters domain.Filters
	err         error
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, filters domain.Filters, limit int) ([]domain.Candidate, error) {
	f.lastLimit = limit
	f.lastFilters = filters
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Candidate, 0, len(f.results))
	for _, c := range f.results {
		if filters.Matches(c.Metadata) {
			out = append(out, c)
		}
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.results), nil }
func (f *fakeStore) Close() error                           { return nil }

type fakeScorer struct {
	scores map[string]float64
	calls  int
	err    error
}

func (f *fakeScorer) ScoreBatch(ctx context.Context, query string, passages []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = f.scores[p]
	}
	return out, nil
}

func (f *fakeScorer) ModelName() string { return "fake-scorer" }

type fakeCompleter struct {
	answer     string
	lastSystem string
	lastUser   string
	lastModel  string
	calls      int
	err        error
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	f.lastModel = model
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// candidate builds a test candidate with the standard posting metadata.
func candidate(id string, rowID int64, company, jobRole, text string, distance float64) domain.Candidate {
	return domain.Candidate{
		Chunk: domain.Chunk{
			ID:   id,
			Text: text,
			Metadata: domain.Metadata{
				domain.MetaSourceRowID: float64(rowID),
				domain.MetaCompany:     company,
				domain.MetaJobRole:     jobRole,
			},
		},
		Distance: distance,
	}
}
