package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/trialrag/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models installed on the local model server",
	Long: `Lists the models the configured server has installed and checks that the
configured generation and embedding models are among them.`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return err
	}
	lister, ok := provider.(llm.ModelLister)
	if !ok {
		return fmt.Errorf("provider %s cannot list models", provider.Name())
	}

	installed, err := lister.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing models on %s: %w", cfg.BaseURL, err)
	}

	headingColor.Fprintf(out, "Installed on %s (%d):\n", cfg.BaseURL, len(installed))
	for _, m := range installed {
		if m.Size > 0 {
			fmt.Fprintf(out, "  %-40s %6.1f GB\n", m.Name, float64(m.Size)/1e9)
		} else {
			fmt.Fprintf(out, "  %s\n", m.Name)
		}
	}

	fmt.Fprintln(out)
	headingColor.Fprintln(out, "Configured:")
	missing := 0
	for _, want := range []struct{ role, name string }{
		{"generation", cfg.Model},
		{"embedding", cfg.EmbeddingModel},
	} {
		if hasModel(installed, want.name) {
			okColor.Fprintf(out, "  %-10s %s (installed)\n", want.role, want.name)
			continue
		}
		missing++
		missingColor.Fprintf(out, "  %-10s %s (missing: %s)\n", want.role, want.name, llm.PullHint(want.name))
	}
	if missing > 0 {
		return fmt.Errorf("%d configured model(s) missing: %w", missing, llm.ErrModelNotFound)
	}
	return nil
}

// hasModel reports whether name is installed. An untagged name matches its
// ":latest" tag, as Ollama resolves it.
func hasModel(installed []llm.ModelInfo, name string) bool {
	for _, m := range installed {
		if m.Name == name {
			return true
		}
		if !strings.Contains(name, ":") && m.Name == name+":latest" {
			return true
		}
	}
	return false
}
