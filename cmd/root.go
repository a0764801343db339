package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/trialrag/internal/embeddings"
	"github.com/ziadkadry99/trialrag/internal/llm"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "trialrag",
	Short: "Ask a local LLM questions about clinical-trial documents",
	Long: `trialrag builds retrieval indexes over clinical-trial material (a
hand-written demo document, a directory of protocol PDFs, or per-sponsor
TrialTwin SQLite extracts) and answers natural-language questions about
them with a model served by a local Ollama or OpenAI-compatible server.`,
	SilenceUsage: true,
}

// Execute runs the root command. Model-not-found errors get an extra hint.
func Execute() error {
	err := rootCmd.Execute()
	if errors.Is(err, llm.ErrModelNotFound) || errors.Is(err, embeddings.ErrModelNotFound) {
		fmt.Fprintln(os.Stderr, "Hint: the model has not been downloaded to this machine. Run `trialrag models` to see what is installed.")
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".trialrag.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
