package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jobrag/internal/domain"
)

var (
	rerankQuery string
	rerankInput string
	rerankTopK  int
	rerankJSON  bool
)

var rerankCmd = &cobra.Command{
	Use:   "rerank",
	Short: "Rescore retrieved candidates with the cross-encoder",
	Long: `Score a candidate list against the query with the cross-encoder and
print it reordered by descending relevance. Candidates are read as a JSON
array, as produced by 'jobrag retrieve --json'.

Examples:
  jobrag retrieve -q "백엔드 개발자" --json | jobrag rerank -q "백엔드 개발자"
  jobrag rerank -q "backend" --input candidates.json --top-k 5`,
	RunE: runRerank,
}

func init() {
	rootCmd.AddCommand(rerankCmd)
	rerankCmd.Flags().StringVarP(&rerankQuery, "query", "q", "", "query the candidates are scored against (required)")
	rerankCmd.Flags().StringVar(&rerankInput, "input", "-", "candidate JSON file ('-' reads stdin)")
	rerankCmd.Flags().IntVarP(&rerankTopK, "top-k", "k", 0, "keep only the best k candidates (default from config)")
	rerankCmd.Flags().BoolVar(&rerankJSON, "json", false, "output as JSON")
	rerankCmd.MarkFlagRequired("query")
}

func runRerank(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	candidates, err := readCandidates(rerankInput)
	if err != nil {
		return err
	}

	reranker, err := buildReranker(cfg)
	if err != nil {
		return err
	}

	topK := cfg.Rerank.TopK
	if cmd.Flags().Changed("top-k") {
		topK = rerankTopK
	}

	results, err := reranker.Rerank(cmd.Context(), rerankQuery, candidates, topK)
	if err != nil {
		return fmt.Errorf("rerank failed: %w", err)
	}

	if rerankJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No candidates to rerank.")
		return nil
	}
	fmt.Printf("Reranked %d candidates for: %s\n\n", len(results), rerankQuery)
	for i, r := range results {
		printCandidate(i+1, r, fmt.Sprintf("score: %.4f", r.RerankScore))
	}

	return nil
}

func readCandidates(input string) ([]domain.Candidate, error) {
	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	var candidates []domain.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse candidates: %w", err)
	}
	return candidates, nil
}
