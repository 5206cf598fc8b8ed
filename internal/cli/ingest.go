package cli

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"jobrag/internal/adapter/embedding"
	"jobrag/internal/port"
	"jobrag/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [chunk files...]",
	Short: "Embed prepared chunk files into the vector store",
	Long: `Embed posting chunks and write them to the vector store. Inputs are
JSONL files of {"text": ..., "metadata": {...}} objects, one chunk per line,
as produced by the upstream chunking stage. Arguments may be globs.

Examples:
  jobrag ingest chunks/postings.jsonl
  jobrag ingest "chunks/**/*.jsonl"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	var paths []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files match %q", arg)
		}
		paths = append(paths, matches...)
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer st.Close()

	writer, ok := st.(port.VectorWriter)
	if !ok {
		return fmt.Errorf("the %s store is read-only", cfg.Database.Driver)
	}

	emb, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.APIKeyEnv,
		cfg.Embedding.Model,
		cfg.Embedding.Dimension,
		cfg.Embedding.BatchSize,
	)
	if err != nil {
		return err
	}

	ingestor := usecase.NewIngestor(emb, writer, cfg.Embedding.BatchSize, GetLogger())

	total := 0
	for _, path := range paths {
		fmt.Printf("Ingesting %s...\n", path)

		var bar *progressbar.ProgressBar
		stored, err := ingestor.IngestFile(cmd.Context(), path, func(done, totalChunks int) {
			if bar == nil {
				bar = progressbar.NewOptions(totalChunks,
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Embedding"),
					progressbar.OptionOnCompletion(func() {
						fmt.Println()
					}),
				)
			}
			_ = bar.Set(done)
		})
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		total += stored
	}

	count, err := st.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d chunks (%d total in store).\n", total, count)

	return nil
}
