package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ziadkadry99/ad-verify/internal/config"
	"github.com/ziadkadry99/ad-verify/internal/embeddings"
	"github.com/ziadkadry99/ad-verify/internal/knowledge"
	"github.com/ziadkadry99/ad-verify/internal/llm"
	"github.com/ziadkadry99/ad-verify/internal/metrics"
	"github.com/ziadkadry99/ad-verify/internal/vectordb"
	"github.com/ziadkadry99/ad-verify/internal/verifier"
	"github.com/ziadkadry99/ad-verify/internal/webcontext"
)

// ollamaDimensions is the output size of nomic-embed-text, the default
// Ollama embedding model.
const ollamaDimensions = 768

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `adverify init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates the embedder used for both indexing and
// queries. Switching embedders requires `adverify kb rebuild`.
func createEmbedderFromConfig(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(cfg.EmbeddingProvider).EmbeddingModel
	}

	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings (or set embedding_provider: hash)")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model), os.Getenv("OPENAI_BASE_URL")), nil
	case config.ProviderGoogle:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderGoogle))
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		return embeddings.NewGoogleEmbedder(ctx, apiKey, embeddings.GoogleModel(model))
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, ollamaDimensions, os.Getenv("OLLAMA_HOST")), nil
	case config.ProviderHash:
		return embeddings.NewHashEmbedder(0), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
}

// createLLMProviderFromConfig creates a rate-limited, retrying provider.
func createLLMProviderFromConfig(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	return llm.NewProviderWithOptions(ctx, string(cfg.Provider), cfg.Model, llm.Options{
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxRetries:        cfg.MaxRetries,
	})
}

// openKnowledge builds the knowledge store and loads or seeds it.
func openKnowledge(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*knowledge.Store, error) {
	embedder, err := createEmbedderFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	vectors, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	opts := []knowledge.Option{
		knowledge.WithSplitter(knowledge.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)),
	}
	if m != nil {
		opts = append(opts, knowledge.WithCountObserver(m.SetKnowledgeChunks))
	}
	kb := knowledge.NewStore(vectors, cfg.VectorDir(), opts...)
	if err := kb.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing knowledge store in %s: %w", cfg.VectorDir(), err)
	}
	return kb, nil
}

// buildEngine wires the verification pipeline around kb.
func buildEngine(ctx context.Context, cfg *config.Config, kb *knowledge.Store, m *metrics.Metrics) (*verifier.Engine, error) {
	provider, err := createLLMProviderFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	fetcherOpts := []webcontext.Option{
		webcontext.WithTimeout(cfg.FetchTimeout),
		webcontext.WithUserAgent("adverify/" + Version),
	}
	engineOpts := []verifier.Option{
		verifier.WithModel(cfg.Model),
		verifier.WithTopK(cfg.TopK),
		verifier.WithModelTimeout(cfg.ModelTimeout),
	}
	if m != nil {
		fetcherOpts = append(fetcherOpts, webcontext.WithObserver(m.ObserveContextFetch))
		engineOpts = append(engineOpts, verifier.WithRecorder(m))
	}

	return verifier.NewEngine(kb, webcontext.New(fetcherOpts...), provider, engineOpts...), nil
}
