package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
	ProviderMiniMax    ProviderType = "minimax"
	ProviderOpenRouter ProviderType = "openrouter"

	// ProviderHash is the offline embedding provider. It has no chat model.
	ProviderHash ProviderType = "hash"
)

// Config is the top-level adverify configuration, corresponding to .adverify.yml.
type Config struct {
	Provider          ProviderType  `yaml:"provider" koanf:"provider"`
	Model             string        `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType  `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string        `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string        `yaml:"data_dir" koanf:"data_dir"`
	Port              int           `yaml:"port" koanf:"port"`
	TopK              int           `yaml:"top_k" koanf:"top_k"`
	ChunkSize         int           `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap      int           `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" koanf:"fetch_timeout"`
	ModelTimeout      time.Duration `yaml:"model_timeout" koanf:"model_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" koanf:"max_retries"`
	CORSAllowAll      bool          `yaml:"cors_allow_all" koanf:"cors_allow_all"`
	KnowledgeDir      string        `yaml:"knowledge_dir" koanf:"knowledge_dir"`
	KnowledgeInclude  []string      `yaml:"knowledge_include" koanf:"knowledge_include"`
	KnowledgeExclude  []string      `yaml:"knowledge_exclude" koanf:"knowledge_exclude"`
}

// DBPath is the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return joinData(c.DataDir, "adverify.db")
}

// VectorDir is where the knowledge store persists its index.
func (c *Config) VectorDir() string {
	return joinData(c.DataDir, "vectordb")
}

// IngestInclude returns the knowledge_include globs or their default.
func (c *Config) IngestInclude() []string {
	if len(c.KnowledgeInclude) == 0 {
		return DefaultKnowledgeInclude
	}
	return c.KnowledgeInclude
}
