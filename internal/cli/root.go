package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jobrag",
	Short: "Job posting RAG - retrieve, rerank and answer over a job posting corpus",
	Long: `jobrag answers questions about job postings. It embeds the question,
searches a pgvector or local corpus for matching posting chunks, optionally
reranks them with a cross-encoder, and asks an LLM to answer from the
assembled postings.

Example usage:
  jobrag retrieve -q "백엔드 개발자"          # Search the corpus
  jobrag generate -q "신입 데이터 엔지니어 공고는?"  # Answer with an LLM
  jobrag evaluate --evalset eval/*.jsonl       # Measure retrieval quality`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// Credentials commonly live in a .env next to the corpus.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = newLogger(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./jobrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	// Keep stdout clean for command output.
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *zap.Logger {
	return logger
}
