package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"jobrag/internal/domain"
)

var (
	retrieveQuery        string
	retrieveCompany      string
	retrieveJobRole      string
	retrieveCareerType   string
	retrieveCompanyYears string
	retrieveLimit        int
	retrieveMaxDistance  float64
	retrieveJSON         bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Search the corpus for matching posting chunks",
	Long: `Embed the query and search the vector store for the nearest posting
chunks. Results are deduplicated per posting and ordered by ascending
cosine distance.

Examples:
  jobrag retrieve -q "백엔드 개발자"
  jobrag retrieve -q "data engineer" --company "Acme" --limit 5 --json`,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringVarP(&retrieveQuery, "query", "q", "", "search query (required)")
	retrieveCmd.Flags().StringVar(&retrieveCompany, "company", "", "filter by exact company name")
	retrieveCmd.Flags().StringVar(&retrieveJobRole, "job-role", "", "filter by exact job role")
	retrieveCmd.Flags().StringVar(&retrieveCareerType, "career-type", "", "filter by career type")
	retrieveCmd.Flags().StringVar(&retrieveCompanyYears, "company-years", "", "filter by company tenure")
	retrieveCmd.Flags().IntVarP(&retrieveLimit, "limit", "k", 0, "number of results (default from config)")
	retrieveCmd.Flags().Float64Var(&retrieveMaxDistance, "max-distance", -1, "drop results above this cosine distance (non-positive disables)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	retrieveCmd.MarkFlagRequired("query")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
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

	limit := cfg.Retrieve.Limit
	if retrieveLimit > 0 {
		limit = retrieveLimit
	}
	maxDist := effectiveMaxDistance(retrieveMaxDistance, cmd.Flags().Changed("max-distance"), cfg)

	filters := domain.Filters{
		Company:         retrieveCompany,
		JobRole:         retrieveJobRole,
		CareerType:      retrieveCareerType,
		CompanyYearsNum: retrieveCompanyYears,
	}

	results, err := retriever.Retrieve(cmd.Context(), retrieveQuery, filters, limit, maxDist)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d postings for: %s\n\n", len(results), retrieveQuery)
	for i, r := range results {
		printCandidate(i+1, r, fmt.Sprintf("distance: %.4f", r.Distance))
	}

	return nil
}

// printCandidate renders one result in the shared text format.
func printCandidate(rank int, c domain.Candidate, score string) {
	fmt.Printf("--- [%d] %s / %s (%s) ---\n", rank, c.Metadata.Company(), c.Metadata.JobRole(), score)
	text := c.Text
	if len(text) > 500 {
		text = text[:500] + "..."
	}
	fmt.Println(text)
	fmt.Println()
}
