package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"jobrag/internal/domain"
	"jobrag/internal/usecase"
)

var (
	evaluateSet        string
	evaluateK          int
	evaluateRerank     bool
	evaluateRerankTopK int
	evaluateJSON       bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure retrieval quality against a labeled eval set",
	Long: `Replay labeled queries through retrieval (optionally reranking) and
report hit@k, MRR and recall@k. Eval sets are JSON arrays or JSONL files of
{"query": ..., "relevant_source_row_ids": [...]} records; records without
relevant IDs are skipped.

Examples:
  jobrag evaluate --evalset eval/queries.jsonl
  jobrag evaluate --evalset "eval/**/*.jsonl" --k 10 --rerank --json`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateSet, "evalset", "", "eval set file or glob (required)")
	evaluateCmd.Flags().IntVarP(&evaluateK, "k", "k", 20, "retrieval depth per query")
	evaluateCmd.Flags().BoolVar(&evaluateRerank, "rerank", false, "rerank candidates before scoring")
	evaluateCmd.Flags().IntVar(&evaluateRerankTopK, "rerank-top-k", 0, "candidates to keep after reranking (default is k)")
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "output as JSON")
	evaluateCmd.MarkFlagRequired("evalset")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	paths, err := doublestar.FilepathGlob(evaluateSet)
	if err != nil {
		return fmt.Errorf("bad evalset pattern: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no eval set files match %q", evaluateSet)
	}

	var records []domain.EvalRecord
	for _, path := range paths {
		recs, err := usecase.LoadEvalSet(path)
		if err != nil {
			return err
		}
		records = append(records, recs...)
	}
	if len(records) == 0 {
		return fmt.Errorf("eval set is empty")
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer st.Close()

	retriever, err := buildRetriever(cfg, st)
	if err != nil {
		return err
	}

	var reranker *usecase.Reranker
	if evaluateRerank {
		reranker, err = buildReranker(cfg)
		if err != nil {
			return err
		}
	}

	retrieve := func(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
		return retriever.Retrieve(ctx, query, domain.Filters{}, limit, -1)
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Evaluating"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	metrics, err := usecase.NewEvaluator(reranker).Run(cmd.Context(), records, retrieve, usecase.EvalOptions{
		K:          evaluateK,
		UseRerank:  evaluateRerank,
		RerankTopK: evaluateRerankTopK,
		OnProgress: func(done, total int) {
			_ = bar.Set(done)
		},
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evaluateJSON {
		output, _ := json.MarshalIndent(metrics, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Queries evaluated: %d\n", metrics.NQueries)
	fmt.Printf("hit@%d:    %.4f\n", evaluateK, metrics.HitAtK)
	fmt.Printf("mrr:      %.4f\n", metrics.MRR)
	fmt.Printf("recall@%d: %.4f\n", evaluateK, metrics.RecallAtK)

	return nil
}
