package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TRIALRAG_MODEL.
// Nested keys use a double underscore: TRIALRAG_TRIALS__LIMIT_RECORDS.
const EnvPrefix = "TRIALRAG_"

// identifierPattern matches names that can be used as SQLite table names
// and index directory suffixes without quoting surprises.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is a plain SQL identifier.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// when the file exists. Variables already set are left alone.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (TRIALRAG_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: TRIALRAG_MODEL -> model,
	// TRIALRAG_TRIALS__SPONSORS=Abbott,Pfizer -> trials.sponsors.
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKeyValue maps an environment variable to a koanf key. List-valued
// keys accept comma-separated values.
func envKeyValue(key, value string) (string, interface{}) {
	k := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	k = strings.ReplaceAll(k, "__", ".")

	switch k {
	case "trials.sponsors", "trials.columns", "pdf.include", "pdf.exclude":
		return k, splitAndTrim(value)
	}
	return k, value
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOllama: true,
	ProviderOpenAI: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of ollama, openai", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}

	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	if c.SimilarityTopK <= 0 {
		return fmt.Errorf("similarity_top_k must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size)")
	}
	if c.EmbedConcurrency < 0 {
		return fmt.Errorf("embed_concurrency must be non-negative")
	}

	if c.Trials.LimitRecords <= 0 {
		return fmt.Errorf("trials.limit_records must be positive")
	}
	if !IsIdentifier(c.Trials.OrderBy) {
		return fmt.Errorf("invalid trials.order_by %q", c.Trials.OrderBy)
	}
	for _, s := range c.Trials.Sponsors {
		if !IsIdentifier(c.Trials.TablePrefix + s) {
			return fmt.Errorf("invalid sponsor name %q: letters, digits and underscores only", s)
		}
	}
	for _, col := range c.Trials.Columns {
		if !IsIdentifier(col) {
			return fmt.Errorf("invalid trials column %q", col)
		}
	}
	if c.Server.IndexIdleTimeout != "" {
		if d, err := time.ParseDuration(c.Server.IndexIdleTimeout); err != nil || d < 0 {
			return fmt.Errorf("invalid server.index_idle_timeout %q", c.Server.IndexIdleTimeout)
		}
	}
	if strings.Count(c.Trials.FilePattern, "%s") != 1 {
		return fmt.Errorf("trials.file_pattern must contain exactly one %%s")
	}
	if err := c.PDF.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate checks the PDF directories. Building an index replaces its
// directory, so it must not be the data directory.
func (p PDFConfig) Validate() error {
	if p.IndexDir == "" {
		return fmt.Errorf("pdf.index_dir is required")
	}
	if sameDir(p.IndexDir, p.DataDir) {
		return fmt.Errorf("pdf.index_dir must differ from pdf.data_dir (%s)", p.DataDir)
	}
	return nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// splitAndTrim splits a comma-separated string and drops empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
