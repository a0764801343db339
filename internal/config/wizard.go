package config

import (
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to trialrag! Let's point it at your local model server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select local inference server",
		Items: []string{
			"ollama: Ollama daemon",
			"openai: any OpenAI-compatible server (LM Studio, vLLM, llama.cpp)",
		},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = []ProviderType{ProviderOllama, ProviderOpenAI}[providerIdx]

	// 2. Server address.
	defaultURL := DefaultOllamaBaseURL
	if cfg.Provider == ProviderOpenAI {
		defaultURL = "http://localhost:1234/v1"
	}
	urlPrompt := promptui.Prompt{
		Label:   "Server base URL",
		Default: defaultURL,
	}
	if cfg.BaseURL, err = urlPrompt.Run(); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	// 3. Generation model.
	modelPrompt := promptui.SelectWithAdd{
		Label:    "Select generation model (pull it first: ollama pull <name>)",
		Items:    KnownModels,
		AddLabel: "Other",
	}
	if _, cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}

	// 4. Embedding model.
	embedPrompt := promptui.Prompt{
		Label:   "Embedding model",
		Default: cfg.EmbeddingModel,
	}
	if cfg.EmbeddingModel, err = embedPrompt.Run(); err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}

	// 5. Timeout. Low-powered hardware needs more.
	timeoutPrompt := promptui.Prompt{
		Label:   "Request timeout",
		Default: cfg.RequestTimeout,
		Validate: func(s string) error {
			d, err := time.ParseDuration(s)
			if err != nil {
				return err
			}
			if d <= 0 {
				return fmt.Errorf("must be positive")
			}
			return nil
		},
	}
	if cfg.RequestTimeout, err = timeoutPrompt.Run(); err != nil {
		return nil, fmt.Errorf("request timeout: %w", err)
	}

	// 6. Data locations.
	dataPrompt := promptui.Prompt{
		Label:   "Directory holding your PDFs",
		Default: cfg.PDF.DataDir,
	}
	if cfg.PDF.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("pdf data dir: %w", err)
	}

	sqlitePrompt := promptui.Prompt{
		Label:   "Directory holding the TrialTwin SQLite files",
		Default: cfg.Trials.SQLiteDir,
	}
	if cfg.Trials.SQLiteDir, err = sqlitePrompt.Run(); err != nil {
		return nil, fmt.Errorf("sqlite dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	if cfg.Provider == ProviderOllama {
		fmt.Printf("Make sure both models are available:\n  ollama pull %s\n  ollama pull %s\n", cfg.Model, cfg.EmbeddingModel)
	}
	return cfg, nil
}
