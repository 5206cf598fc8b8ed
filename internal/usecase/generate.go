package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobrag/internal/domain"
	"jobrag/internal/port"
)

// Fixed answers for the two degraded terminal states. Neither is an error:
// an empty corpus match and a missing credential both produce a usable,
// honest response.
const (
	AnswerNoPostings          = "No matching job postings were found, so an answer could not be generated."
	AnswerProviderUnavailable = "The completion provider is not configured, so only the retrieved postings are returned."
)

const systemPrompt = `You are an assistant that answers questions using the supplied job postings (JDs).

Rules you must follow:
- You may rephrase a posting in natural language as long as its meaning is preserved.
- Deleting information is forbidden. Do not omit anything the postings state.
- Speculative rewriting is forbidden. Do not guess or add anything the postings do not state.
- Answer only from the job postings below. Do not generalize beyond their literal wording, and do not mention postings that are not listed.
- When the context contains at least three relevant postings, include at least three distinct postings in the answer.`

const userPromptFormat = `Answer the question using the job postings below. Include everything relevant to the question and nothing that is not. For each posting, summarize only its main responsibilities, and list every posting related to the question.

--- job postings ---
%s
--- end ---

Question: %s`

// Generator runs the full pipeline: retrieve, optionally rerank, assemble,
// and invoke the completion provider.
type Generator struct {
	retriever *Retriever
	reranker  *Reranker
	completer port.ChatCompleter
	logger    *zap.Logger

	maxContextChars int
	retrieveLimit   int
}

// NewGenerator creates a generator. reranker may be nil when no scorer is
// configured and completer may be nil when no provider credential is set; in
// both cases generation degrades instead of failing.
func NewGenerator(
	retriever *Retriever,
	reranker *Reranker,
	completer port.ChatCompleter,
	maxContextChars int,
	retrieveLimit int,
	logger *zap.Logger,
) *Generator {
	if maxContextChars <= 0 {
		maxContextChars = 6000
	}
	if retrieveLimit <= 0 {
		retrieveLimit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		retriever:       retriever,
		reranker:        reranker,
		completer:       completer,
		maxContextChars: maxContextChars,
		retrieveLimit:   retrieveLimit,
		logger:          logger,
	}
}

// GenerateOptions shape a single generation request.
type GenerateOptions struct {
	Filters     domain.Filters
	UseRerank   bool
	FinalCount  int     // postings to put in the context, default 5
	MaxDistance float64 // negative disables the retrieval distance ceiling
	Model       string  // empty selects the provider default
}

// Generate answers the query from retrieved postings. The returned Answer
// always reports the sources that were assembled, even when the provider is
// unavailable.
func (g *Generator) Generate(ctx context.Context, query string, opts GenerateOptions) (domain.Answer, error) {
	requestID := uuid.NewString()
	logger := g.logger.With(zap.String("request_id", requestID))

	finalCount := opts.FinalCount
	if finalCount <= 0 {
		finalCount = 5
	}

	items, err := g.retriever.Retrieve(ctx, query, opts.Filters, g.retrieveLimit, opts.MaxDistance)
	if err != nil {
		return domain.Answer{}, err
	}
	logger.Debug("retrieved candidates", zap.Int("count", len(items)))

	if opts.UseRerank && len(items) > 0 {
		if g.reranker == nil {
			return domain.Answer{}, domain.ErrScorerUnavailable
		}
		// Rerank a larger pool than the final count so that posting dedup in
		// assembly still has enough candidates to choose from.
		pool := 2 * finalCount
		if pool < 10 {
			pool = 10
		}
		items, err = g.reranker.Rerank(ctx, query, items, pool)
		if err != nil {
			return domain.Answer{}, err
		}
		logger.Debug("reranked candidates", zap.Int("count", len(items)))
	}

	assembled := Assemble(items, finalCount, g.maxContextChars)
	if assembled.Empty() {
		logger.Info("no context assembled", zap.String("query", query))
		return domain.Answer{
			Answer:  AnswerNoPostings,
			Sources: []domain.Candidate{},
		}, nil
	}

	if g.completer == nil {
		logger.Info("completion provider not configured, returning sources only")
		return domain.Answer{
			Answer:        AnswerProviderUnavailable,
			Sources:       assembled.Selected,
			ContextLength: assembled.Length,
		}, nil
	}

	userPrompt := fmt.Sprintf(userPromptFormat, assembled.Text, query)
	text, err := g.completer.Complete(ctx, systemPrompt, userPrompt, opts.Model)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("answer generation failed: %w", err)
	}

	logger.Info("answer generated",
		zap.Int("sources", len(assembled.Selected)),
		zap.Int("context_length", assembled.Length))

	return domain.Answer{
		Answer:        text,
		Sources:       assembled.Selected,
		ContextLength: assembled.Length,
	}, nil
}
