package config

import "time"

// ProviderType identifies the kind of local inference server.
type ProviderType string

const (
	// ProviderOllama talks to an Ollama daemon (/api/chat, /api/embed).
	ProviderOllama ProviderType = "ollama"
	// ProviderOpenAI talks to any OpenAI-compatible server (LM Studio, vLLM, llama.cpp).
	ProviderOpenAI ProviderType = "openai"
)

// Config is the top-level trialrag configuration, corresponding to .trialrag.yml.
// It is built once per run and passed by value to every collaborator.
type Config struct {
	Provider            ProviderType `yaml:"provider" koanf:"provider"`
	BaseURL             string       `yaml:"base_url" koanf:"base_url"`
	APIKey              string       `yaml:"api_key,omitempty" koanf:"api_key"`
	Model               string       `yaml:"model" koanf:"model"`
	EmbeddingModel      string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDimensions int          `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`
	RequestTimeout      string       `yaml:"request_timeout" koanf:"request_timeout"`
	SimilarityTopK      int          `yaml:"similarity_top_k" koanf:"similarity_top_k"`
	ChunkSize           int          `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap        int          `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	EmbedConcurrency    int          `yaml:"embed_concurrency" koanf:"embed_concurrency"`
	Debug               int          `yaml:"debug" koanf:"debug"`
	LogFile             string       `yaml:"log_file,omitempty" koanf:"log_file"`
	PDF                 PDFConfig    `yaml:"pdf" koanf:"pdf"`
	Trials              TrialsConfig `yaml:"trials" koanf:"trials"`
	Demo                DemoConfig   `yaml:"demo" koanf:"demo"`
	Server              ServerConfig `yaml:"server" koanf:"server"`
}

// PDFConfig holds settings for the document-directory flow.
type PDFConfig struct {
	DataDir   string   `yaml:"data_dir" koanf:"data_dir"`
	IndexDir  string   `yaml:"index_dir" koanf:"index_dir"`
	Include   []string `yaml:"include" koanf:"include"`
	Exclude   []string `yaml:"exclude" koanf:"exclude"`
	Questions []string `yaml:"questions" koanf:"questions"`
}

// TrialsConfig holds settings for the per-sponsor SQLite flow.
type TrialsConfig struct {
	SQLiteDir      string   `yaml:"sqlite_dir" koanf:"sqlite_dir"`
	IndexRoot      string   `yaml:"index_root,omitempty" koanf:"index_root"`
	FilePattern    string   `yaml:"file_pattern" koanf:"file_pattern"`
	TablePrefix    string   `yaml:"table_prefix,omitempty" koanf:"table_prefix"`
	Sponsors       []string `yaml:"sponsors" koanf:"sponsors"`
	LimitRecords   int      `yaml:"limit_records" koanf:"limit_records"`
	OrderBy        string   `yaml:"order_by" koanf:"order_by"`
	Columns        []string `yaml:"columns" koanf:"columns"`
	Questions      []string `yaml:"questions" koanf:"questions"`
	StopAfterFirst bool     `yaml:"stop_after_first" koanf:"stop_after_first"`
}

// DemoConfig holds the questions asked against the hand-authored document.
type DemoConfig struct {
	Questions []string `yaml:"questions" koanf:"questions"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	// IndexIdleTimeout unloads an index nobody has queried for this long.
	// Empty or "0" keeps loaded indexes for the life of the process.
	IndexIdleTimeout string `yaml:"index_idle_timeout" koanf:"index_idle_timeout"`
}

// IdleTimeout returns the parsed index idle timeout; zero means never.
func (s ServerConfig) IdleTimeout() time.Duration {
	d, err := time.ParseDuration(s.IndexIdleTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Timeout returns the parsed request timeout. Call Validate first; an
// unparsable value yields the default.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}

// IndexRootDir returns the directory under which per-sponsor index
// directories are created.
func (t TrialsConfig) IndexRootDir() string {
	if t.IndexRoot != "" {
		return t.IndexRoot
	}
	return t.SQLiteDir
}
