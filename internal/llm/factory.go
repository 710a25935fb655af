package llm

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Options tunes the middleware stack built around a provider.
type Options struct {
	// RequestsPerMinute caps outbound calls. Zero disables rate limiting.
	RequestsPerMinute int
	// MaxRetries is the number of extra attempts after a transient failure.
	MaxRetries int
	// RetryBaseDelay and RetryMaxDelay bound the backoff between attempts.
	// Zero means 500ms and 10s.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "anthropic", "openai", "google", "ollama",
// "openrouter", "minimax".
func NewProvider(ctx context.Context, providerType string, model string) (Provider, error) {
	switch providerType {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, model, os.Getenv("ANTHROPIC_BASE_URL")), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			return NewOpenAICompatibleProvider("openai", apiKey, base, model), nil
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable is not set")
		}
		return NewOpenAICompatibleProvider("openrouter", apiKey, openRouterBaseURL, model), nil

	case "minimax":
		apiKey := os.Getenv("MINIMAX_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("MINIMAX_API_KEY environment variable is not set")
		}
		return NewOpenAICompatibleProvider("minimax", apiKey, minimaxBaseURL, model), nil

	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		return NewGoogleProvider(ctx, apiKey, model)

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// NewProviderWithOptions creates a provider and wraps it with retries and
// rate limiting.
func NewProviderWithOptions(ctx context.Context, providerType, model string, opts Options) (Provider, error) {
	p, err := NewProvider(ctx, providerType, model)
	if err != nil {
		return nil, err
	}
	return WithOptions(p, opts), nil
}

// WithOptions wraps p in the middleware stack described by opts. Retries
// are the outer layer so every attempt, not just the first, waits for a
// rate limit token.
func WithOptions(p Provider, opts Options) Provider {
	var mws []Middleware
	if opts.MaxRetries > 0 {
		baseDelay, maxDelay := opts.RetryBaseDelay, opts.RetryMaxDelay
		if baseDelay <= 0 {
			baseDelay = 500 * time.Millisecond
		}
		if maxDelay <= 0 {
			maxDelay = 10 * time.Second
		}
		mws = append(mws, RetryMiddleware(opts.MaxRetries, baseDelay, maxDelay))
	}
	if opts.RequestsPerMinute > 0 {
		mws = append(mws, RateLimitMiddleware(opts.RequestsPerMinute))
	}
	return Chain(p, mws...)
}
