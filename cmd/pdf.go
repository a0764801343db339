package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/trialrag/internal/indexer"
	"github.com/ziadkadry99/trialrag/internal/progress"
	"github.com/ziadkadry99/trialrag/internal/query"
	"github.com/ziadkadry99/trialrag/internal/readers"
)

var pdfRebuild bool

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Index a directory of protocol PDFs and ask questions about it",
	Long: `Builds a vector index over every file in pdf.data_dir (or reloads the one
persisted in pdf.index_dir) and asks the configured PDF questions.`,
	RunE: runPDF,
}

func init() {
	pdfCmd.Flags().BoolVar(&pdfRebuild, "rebuild", false, "rebuild the index even if one exists")
	pdfCmd.Flags().String("data-dir", "", "directory holding the documents (overrides pdf.data_dir)")
	pdfCmd.Flags().String("index-dir", "", "directory holding the index (overrides pdf.index_dir)")
	rootCmd.AddCommand(pdfCmd)
}

func runPDF(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.PDF.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("index-dir"); v != "" {
		cfg.PDF.IndexDir = v
	}
	if err := cfg.PDF.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return err
	}
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return err
	}

	r := startRun(out, "pdf")

	reader := readers.NewDirectoryReader(cfg.PDF.DataDir, cfg.PDF.Include, cfg.PDF.Exclude, logger)
	reader.IndexDir = cfg.PDF.IndexDir
	m, err := indexer.Materialize(ctx, cfg.PDF.IndexDir, reader, indexer.Options{
		Embedder:     embedder,
		Rebuild:      pdfRebuild,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Concurrency:  cfg.EmbedConcurrency,
		Reporter:     progress.NewReporter("Embedding documents"),
		Out:          out,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	logger.Debug("pdf index ready",
		zap.Bool("built", m.Built),
		zap.Int("documents", m.Manifest.Documents),
		zap.Int("nodes", m.Manifest.Nodes))

	r.inference()
	engine := query.NewEngine(
		&query.VectorRetriever{Store: m.Store, TopK: cfg.SimilarityTopK},
		provider, cfg.Model, logger)
	for _, q := range cfg.PDF.Questions {
		resp, err := engine.Query(ctx, q)
		if err != nil {
			return err
		}
		r.answer(resp.String())
	}

	r.finish()
	return nil
}
