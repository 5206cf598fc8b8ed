package usecase

import (
	"context"
	"strings"
	"testing"

	"jobrag/internal/domain"
)

func newTestGenerator(store *fakeStore, scorer *fakeScorer, completer *fakeCompleter) *Generator {
	emb := &fakeEmbedder{vector: []float32{1, 0, 0}, dimension: 3}
	retriever := NewRetriever(emb, store, 3, 15, 100, nil, nil)
	var reranker *Reranker
	if scorer != nil {
		reranker = NewReranker(scorer)
	}
	// A typed nil completer must not reach the generator as a non-nil
	// interface value.
	if completer == nil {
		return NewGenerator(retriever, reranker, nil, 6000, 20, nil)
	}
	return NewGenerator(retriever, reranker, completer, 6000, 20, nil)
}

func TestGenerateAnswersFromContext(t *testing.T) {
	store := &fakeStore{results: []domain.Candidate{
		candidate("c1", 1, "Acme", "백엔드", "backend posting", 0.1),
		candidate("c2", 2, "Globex", "데이터", "data posting", 0.2),
	}}
	completer := &fakeCompleter{answer: "Acme is hiring backend engineers."}

	got, err := newTestGenerator(store, nil, completer).Generate(context.Background(), "backend jobs?", GenerateOptions{MaxDistance: -1})
	if err != nil {
		t.Fatal(err)
	}
	if got.Answer != completer.answer {
		t.Errorf("expected the provider answer, got %q", got.Answer)
	}
	if len(got.Sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(got.Sources))
	}
	if got.ContextLength == 0 {
		t.Error("expected non-zero context length")
	}
	if completer.calls != 1 {
		t.Errorf("expected one completion call, got %d", completer.calls)
	}
	if !strings.Contains(completer.lastUser, "backend posting") {
		t.Error("user prompt missing posting text")
	}
	if !strings.Contains(completer.lastUser, "backend jobs?") {
		t.Error("user prompt missing the question")
	}
	if !strings.Contains(completer.lastSystem, "Deleting information is forbidden") {
		t.Error("system prompt missing the no-deletion rule")
	}
	if !strings.Contains(completer.lastSystem, "Speculative rewriting is forbidden") {
		t.Error("system prompt missing the no-speculation rule")
	}
	if !strings.Contains(completer.lastSystem, "at least three distinct postings") {
		t.Error("system prompt missing the minimum-postings rule")
	}
}

func TestGenerateEmptyContext(t *testing.T) {
	// All candidates lack a company, so assembly yields nothing and the
	// provider must not be called.
	store := &fakeStore{results: []domain.Candidate{
		candidate("c1", 1, "", "백엔드", "anonymous", 0.1),
	}}
	completer := &fakeCompleter{answer: "should not be used"}

	got, err := newTestGenerator(store, nil, completer).Generate(context.Background(), "q", GenerateOptions{MaxDistance: -1})
	if err != nil {
		t.Fatal(err)
	}
	if got.Answer != AnswerNoPostings {
		t.Errorf("expected fixed no-postings answer, got %q", got.Answer)
	}
	if len(got.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(got.Sources))
	}
	if got.ContextLength != 0 {
		t.Errorf("expected zero context length, got %d", got.ContextLength)
	}
	if completer.calls != 0 {
		t.Errorf("expected no completion call, got %d", completer.calls)
	}
}

func TestGenerateWithoutProvider(t *testing.T) {
	store := &fakeStore{results: []domain.Candidate{
		candidate("c1", 1, "Acme", "백엔드", "backend posting", 0.1),
	}}

	got, err := newTestGenerator(store, nil, nil).Generate(context.Background(), "q", GenerateOptions{MaxDistance: -1})
	if err != nil {
		t.Fatal(err)
	}
	if got.Answer != AnswerProviderUnavailable {
		t.Errorf("expected fixed provider answer, got %q", got.Answer)
	}
	// The retrieval result still reaches the caller.
	if len(got.Sources) != 1 || got.Sources[0].ID != "c1" {
		t.Errorf("expected assembled sources, got %+v", got.Sources)
	}
	if got.ContextLength == 0 {
		t.Error("expected non-zero context length")
	}
}

func TestGenerateWithRerank(t *testing.T) {
	store := &fakeStore{results: []domain.Candidate{
		candidate("c1", 1, "Acme", "백엔드", "weak match", 0.1),
		candidate("c2", 2, "Globex", "데이터", "strong match", 0.2),
	}}
	scorer := &fakeScorer{scores: map[string]float64{"weak match": 0.1, "strong match": 0.9}}
	completer := &fakeCompleter{answer: "answer"}

	got, err := newTestGenerator(store, scorer, completer).Generate(context.Background(), "q", GenerateOptions{
		UseRerank:   true,
		FinalCount:  2,
		MaxDistance: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if scorer.calls != 1 {
		t.Errorf("expected one scoring call, got %d", scorer.calls)
	}
	if got.Sources[0].ID != "c2" {
		t.Errorf("expected reranked order in sources, got %s first", got.Sources[0].ID)
	}
}

func TestGenerateRerankRequestedButUnavailable(t *testing.T) {
	store := &fakeStore{results: []domain.Candidate{
		candidate("c1", 1, "Acme", "백엔드", "text", 0.1),
	}}
	_, err := newTestGenerator(store, nil, &fakeCompleter{answer: "a"}).Generate(context.Background(), "q", GenerateOptions{
		UseRerank:   true,
		MaxDistance: -1,
	})
	if err == nil {
		t.Error("expected error when rerank requested without a scorer")
	}
}

func TestGeneratePassesModel(t *testing.T) {
	store := &fakeStore{results: []domain.Candidate{
		candidate("c1", 1, "Acme", "백엔드", "text", 0.1),
	}}
	completer := &fakeCompleter{answer: "a"}
	_, err := newTestGenerator(store, nil, completer).Generate(context.Background(), "q", GenerateOptions{
		Model:       "gpt-4o",
		MaxDistance: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if completer.lastModel != "gpt-4o" {
		t.Errorf("expected model override passed through, got %q", completer.lastModel)
	}
}
