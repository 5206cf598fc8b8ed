package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"jobrag/internal/domain"
	"jobrag/internal/usecase"
)

var (
	generateQuery        string
	generateCompany      string
	generateJobRole      string
	generateCareerType   string
	generateCompanyYears string
	generateRerank       bool
	generateFinalCount   int
	generateMaxDistance  float64
	generateModel        string
	generateJSON         bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Answer a question from retrieved postings",
	Long: `Run the full pipeline: retrieve posting chunks, optionally rerank them,
assemble a context and ask the LLM to answer from it. Without an LLM
credential the matched postings are still printed.

Examples:
  jobrag generate -q "신입 백엔드 공고 알려줘"
  jobrag generate -q "data roles at Acme" --company Acme --rerank --json`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateQuery, "query", "q", "", "question to answer (required)")
	generateCmd.Flags().StringVar(&generateCompany, "company", "", "filter by exact company name")
	generateCmd.Flags().StringVar(&generateJobRole, "job-role", "", "filter by exact job role")
	generateCmd.Flags().StringVar(&generateCareerType, "career-type", "", "filter by career type")
	generateCmd.Flags().StringVar(&generateCompanyYears, "company-years", "", "filter by company tenure")
	generateCmd.Flags().BoolVar(&generateRerank, "rerank", false, "rerank candidates before assembling the context")
	generateCmd.Flags().IntVar(&generateFinalCount, "final-count", 0, "postings to include in the context (default from config)")
	generateCmd.Flags().Float64Var(&generateMaxDistance, "max-distance", -1, "drop results above this cosine distance (non-positive disables)")
	generateCmd.Flags().StringVar(&generateModel, "model", "", "completion model (default from config)")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "output as JSON")
	generateCmd.MarkFlagRequired("query")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer st.Close()

	retriever, err := buildRetriever(cfg, st)
	if err != nil {
		return err
	}

	generator := usecase.NewGenerator(
		retriever,
		optionalReranker(cfg),
		optionalCompleter(cfg),
		cfg.Generate.MaxContextChars,
		cfg.Generate.RetrieveLimit,
		GetLogger(),
	)

	finalCount := cfg.Generate.FinalCount
	if generateFinalCount > 0 {
		finalCount = generateFinalCount
	}

	answer, err := generator.Generate(cmd.Context(), generateQuery, usecase.GenerateOptions{
		Filters: domain.Filters{
			Company:         generateCompany,
			JobRole:         generateJobRole,
			CareerType:      generateCareerType,
			CompanyYearsNum: generateCompanyYears,
		},
		UseRerank:   generateRerank,
		FinalCount:  finalCount,
		MaxDistance: effectiveMaxDistance(generateMaxDistance, cmd.Flags().Changed("max-distance"), cfg),
		Model:       generateModel,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if generateJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Printf("\nSources (%d postings, %d chars):\n", len(answer.Sources), answer.ContextLength)
		for i, s := range answer.Sources {
			fmt.Printf("  [%d] %s / %s\n", i+1, s.Metadata.Company(), s.Metadata.JobRole())
		}
	}

	return nil
}
