package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/trialrag/internal/demo"
	"github.com/ziadkadry99/trialrag/internal/document"
	"github.com/ziadkadry99/trialrag/internal/query"
)

var demoDebug int

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Ask questions about a single hand-written document",
	Long: `Builds an in-memory summary index over one hand-written FDA application
document and asks the demo questions. Every question sees the whole
document, so no embedding model is needed.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().IntVar(&demoDebug, "debug", -1, "1 prints the LLM and embedding renderings, 2 prints the reference-document info (default: config debug)")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	debug := cfg.Debug
	if demoDebug >= 0 {
		debug = demoDebug
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return err
	}

	r := startRun(out, "demo")

	doc := demo.MelanomaApplication()
	index := query.NewSummaryIndex(cfg.ChunkSize, cfg.ChunkOverlap)
	index.Insert(doc)

	switch debug {
	case 1:
		fmt.Fprintf(out, "\nThe LLM sees this: \n %s\n", doc.Content(document.MetadataModeLLM))
		fmt.Fprintf(out, "\nThe Embedding model sees this: \n %s\n", doc.Content(document.MetadataModeEmbed))
	case 2:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(index.RefDocInfo()); err != nil {
			return fmt.Errorf("printing reference-document info: %w", err)
		}
	}

	r.inference()
	engine := query.NewEngine(index, provider, cfg.Model, logger)
	for _, q := range cfg.Demo.Questions {
		resp, err := engine.Query(ctx, q)
		if err != nil {
			return err
		}
		r.answer(resp.String())
	}

	r.finish()
	return nil
}

