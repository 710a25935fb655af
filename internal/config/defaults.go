package config

import (
	"path/filepath"
	"time"
)

// Preset holds the default chat and embedding models for a provider.
type Preset struct {
	Model             string
	EmbeddingProvider ProviderType
	EmbeddingModel    string
}

var presets = map[ProviderType]Preset{
	ProviderOpenAI:     {Model: "gpt-4", EmbeddingProvider: ProviderOpenAI, EmbeddingModel: "text-embedding-3-small"},
	ProviderAnthropic:  {Model: "claude-sonnet-4-5-20250929", EmbeddingProvider: ProviderOpenAI, EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle:     {Model: "gemini-2.5-flash", EmbeddingProvider: ProviderGoogle, EmbeddingModel: "text-embedding-004"},
	ProviderOllama:     {Model: "llama3", EmbeddingProvider: ProviderOllama, EmbeddingModel: "nomic-embed-text"},
	ProviderMiniMax:    {Model: "MiniMax-M2.5", EmbeddingProvider: ProviderOpenAI, EmbeddingModel: "text-embedding-3-small"},
	ProviderOpenRouter: {Model: "openai/gpt-4o", EmbeddingProvider: ProviderOpenAI, EmbeddingModel: "text-embedding-3-small"},
}

// DefaultKnowledgeInclude are the guideline files picked up by `kb ingest`
// when knowledge_include is unset.
var DefaultKnowledgeInclude = []string{"**/*.md", "**/*.txt"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           ".adverify",
		Port:              8080,
		TopK:              5,
		ChunkSize:         1000,
		ChunkOverlap:      100,
		FetchTimeout:      10 * time.Second,
		ModelTimeout:      90 * time.Second,
		RequestsPerMinute: 60,
		MaxRetries:        3,
	}
}

// GetPreset returns the model defaults for provider, falling back to OpenAI.
func GetPreset(provider ProviderType) Preset {
	if p, ok := presets[provider]; ok {
		return p
	}
	return presets[ProviderOpenAI]
}

func joinData(dir, name string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}
