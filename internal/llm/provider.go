package llm

import "context"

// defaultMaxTokens is used when a request leaves MaxTokens unset.
const defaultMaxTokens = 4096

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Middleware decorates a Provider with cross-cutting behaviour such as
// rate limiting or retries.
type Middleware func(Provider) Provider

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(p Provider, mws ...Middleware) Provider {
	for i := len(mws) - 1; i >= 0; i-- {
		p = mws[i](p)
	}
	return p
}
