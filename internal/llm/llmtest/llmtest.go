// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/ziadkadry99/ad-verify/internal/llm"
)

// Provider records every request and answers with Respond, or with a fixed
// reply when Respond is nil.
type Provider struct {
	mu      sync.Mutex
	calls   []llm.CompletionRequest
	name    string
	reply   string
	Respond func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// New returns a provider that always replies with content.
func New(content string) *Provider {
	return &Provider{name: "mock", reply: content}
}

// NewFunc returns a provider driven by fn.
func NewFunc(fn func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)) *Provider {
	return &Provider{name: "mock", Respond: fn}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	respond := p.Respond
	p.mu.Unlock()

	if respond != nil {
		return respond(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var in int
	for _, m := range req.Messages {
		in += llm.EstimateTokens(m.Content)
	}
	return &llm.CompletionResponse{
		Content:      p.reply,
		InputTokens:  in,
		OutputTokens: llm.EstimateTokens(p.reply),
		Model:        "mock-model",
		FinishReason: "stop",
	}, nil
}

// Calls returns a copy of the recorded requests.
func (p *Provider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.calls...)
}

// CallCount returns the number of Complete calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// LastUserMessage returns the content of the final message of the most
// recent request, or "".
func (p *Provider) LastUserMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return ""
	}
	msgs := p.calls[len(p.calls)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}
