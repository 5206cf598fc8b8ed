package usecase

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"jobrag/internal/domain"
)

// RetrieveFunc abstracts retrieval for evaluation so the harness can be run
// against the real pipeline or a recorded one.
type RetrieveFunc func(ctx context.Context, query string, limit int) ([]domain.Candidate, error)

// EvalOptions shape one evaluation run.
type EvalOptions struct {
	K          int // retrieval depth per query
	UseRerank  bool
	RerankTopK int // 0 falls back to K
	// OnProgress, when set, is called after each record with the number of
	// records processed so far and the total.
	OnProgress func(done, total int)
}

// Evaluator replays labeled queries through retrieval (optionally reranking)
// and measures ranking quality.
type Evaluator struct {
	reranker *Reranker
}

// NewEvaluator creates an evaluator. reranker may be nil when reranked runs
// are not needed.
func NewEvaluator(reranker *Reranker) *Evaluator {
	return &Evaluator{reranker: reranker}
}

// Run computes hit@k, MRR and recall@k averaged over the records. Records
// with an empty relevant set are skipped and do not count toward NQueries.
func (e *Evaluator) Run(ctx context.Context, records []domain.EvalRecord, retrieve RetrieveFunc, opts EvalOptions) (domain.EvalMetrics, error) {
	if opts.K < 1 {
		opts.K = 20
	}
	if opts.UseRerank && e.reranker == nil {
		return domain.EvalMetrics{}, domain.ErrScorerUnavailable
	}

	var hitSum, mrrSum, recallSum float64
	evaluated := 0

	for i, rec := range records {
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(records))
		}
		if len(rec.RelevantSourceRowID) == 0 {
			continue
		}

		retrieved, err := retrieve(ctx, rec.Query, opts.K)
		if err != nil {
			return domain.EvalMetrics{}, fmt.Errorf("retrieval failed for query %q: %w", rec.Query, err)
		}
		if opts.UseRerank {
			topK := opts.RerankTopK
			if topK <= 0 {
				topK = opts.K
			}
			retrieved, err = e.reranker.Rerank(ctx, rec.Query, retrieved, topK)
			if err != nil {
				return domain.EvalMetrics{}, fmt.Errorf("rerank failed for query %q: %w", rec.Query, err)
			}
		}

		firstRank, matched := matchRelevant(retrieved, rec.RelevantSourceRowID)
		if matched > 0 {
			hitSum++
		}
		if firstRank > 0 {
			mrrSum += 1.0 / float64(firstRank)
		}
		recall := float64(matched) / float64(len(rec.RelevantSourceRowID))
		if recall > 1 {
			recall = 1
		}
		recallSum += recall
		evaluated++
	}

	if evaluated == 0 {
		return domain.EvalMetrics{}, nil
	}
	n := float64(evaluated)
	return domain.EvalMetrics{
		HitAtK:    hitSum / n,
		MRR:       mrrSum / n,
		RecallAtK: recallSum / n,
		NQueries:  evaluated,
	}, nil
}

// matchRelevant returns the 1-based rank of the first retrieved item whose
// source row ID is relevant (0 if none) and the number of distinct relevant
// postings retrieved.
func matchRelevant(retrieved []domain.Candidate, relevantIDs []int64) (firstRank, matched int) {
	relevant := make(map[int64]bool, len(relevantIDs))
	for _, id := range relevantIDs {
		relevant[id] = true
	}

	seen := make(map[int64]bool)
	for rank, c := range retrieved {
		id, ok := c.Metadata.SourceRowID()
		if !ok || !relevant[id] {
			continue
		}
		if firstRank == 0 {
			firstRank = rank + 1
		}
		seen[id] = true
	}
	return firstRank, len(seen)
}

// LoadEvalSet reads evaluation records from a JSON array or JSONL file.
func LoadEvalSet(path string) ([]domain.EvalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open eval set: %w", err)
	}
	defer f.Close()

	// Peek at the first non-space byte to pick the format.
	reader := bufio.NewReader(f)
	var first byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return nil, nil // empty file
		}
		if !isSpace(b) {
			first = b
			_ = reader.UnreadByte()
			break
		}
	}

	if first == '[' {
		var records []domain.EvalRecord
		if err := json.NewDecoder(reader).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to parse eval set %s: %w", path, err)
		}
		return records, nil
	}

	var records []domain.EvalRecord
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec domain.EvalRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse eval record %q: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read eval set %s: %w", path, err)
	}
	return records, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
