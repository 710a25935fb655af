// Package verifier implements the retrieval-augmented verification
// pipeline: URL context and regulation retrieval feed a single prompt, the
// model's reply is parsed into an Outcome, and malformed replies fall back
// to a fixed record.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/ad-verify/internal/knowledge"
	"github.com/ziadkadry99/ad-verify/internal/llm"
	"github.com/ziadkadry99/ad-verify/internal/metrics"
)

const (
	// DefaultModelTimeout bounds a single model call unless WithModelTimeout
	// overrides it.
	DefaultModelTimeout = 90 * time.Second
	defaultMaxTokens    = 2048
)

var (
	// ErrEmptyContent is returned when the advertisement text is blank.
	ErrEmptyContent = errors.New("advertisement content is required")
	// ErrRetrievalUnavailable wraps knowledge store failures.
	ErrRetrievalUnavailable = errors.New("guideline retrieval unavailable")
	// ErrModelFailure wraps language model invocation failures.
	ErrModelFailure = errors.New("language model request failed")
)

// Retriever finds the regulation chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]knowledge.Chunk, error)
}

// ContextFetcher turns an optional URL into prompt text. It never fails.
type ContextFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Recorder receives pipeline measurements. *metrics.Metrics implements it.
type Recorder interface {
	ObserveVerification(outcome string, d time.Duration)
	ObserveModelUsage(provider string, inputTokens, outputTokens int, cost float64)
}

// Engine runs verifications. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	retriever    Retriever
	fetcher      ContextFetcher
	provider     llm.Provider
	model        string
	topK         int
	modelTimeout time.Duration
	maxTokens    int
	recorder     Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithTopK sets how many guideline chunks are retrieved.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithModelTimeout bounds each model call.
func WithModelTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.modelTimeout = d
		}
	}
}

// WithRecorder reports outcomes and model usage.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates an Engine.
func NewEngine(retriever Retriever, fetcher ContextFetcher, provider llm.Provider, opts ...Option) *Engine {
	e := &Engine{
		retriever:    retriever,
		fetcher:      fetcher,
		provider:     provider,
		topK:         knowledge.DefaultTopK,
		modelTimeout: DefaultModelTimeout,
		maxTokens:    defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify assesses adContent, optionally enriched with text from adURL.
// Context fetch problems and unparseable model replies are absorbed; an
// empty ad, a retrieval failure or a model failure is returned as an error.
func (e *Engine) Verify(ctx context.Context, adContent, adURL string) (*Outcome, error) {
	start := time.Now()
	out, parsed, err := e.verify(ctx, adContent, adURL)

	label := metrics.OutcomeParsed
	switch {
	case err != nil:
		label = metrics.OutcomeError
	case !parsed:
		label = metrics.OutcomeFallback
	}
	if e.recorder != nil {
		e.recorder.ObserveVerification(label, time.Since(start))
	}
	return out, err
}

func (e *Engine) verify(ctx context.Context, adContent, adURL string) (*Outcome, bool, error) {
	if strings.TrimSpace(adContent) == "" {
		return nil, false, ErrEmptyContent
	}

	var (
		urlContext string
		chunks     []knowledge.Chunk
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		urlContext = e.fetcher.Fetch(gctx, strings.TrimSpace(adURL))
		return nil
	})
	g.Go(func() error {
		var err error
		chunks, err = e.retriever.Retrieve(gctx, adContent, e.topK)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	prompt := BuildPrompt(adContent, urlContext, chunks)

	mctx, cancel := context.WithTimeout(ctx, e.modelTimeout)
	defer cancel()
	resp, err := e.provider.Complete(mctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    llm.SystemAndUser(SystemPrompt, prompt),
		MaxTokens:   e.maxTokens,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrModelFailure, err)
	}

	cost := llm.ResponseCost(resp)
	if e.recorder != nil {
		e.recorder.ObserveModelUsage(e.provider.Name(), resp.InputTokens, resp.OutputTokens, cost)
	}
	log.Printf("verifier: %s/%s used %d input + %d output tokens (~$%.4f), %d guideline chunks",
		e.provider.Name(), resp.Model, resp.InputTokens, resp.OutputTokens, cost, len(chunks))

	out, err := ParseModelOutput(resp.Content)
	if err != nil {
		log.Printf("verifier: using fallback outcome: %v", err)
		fb := Fallback(resp.Content)
		return &fb, false, nil
	}
	return &out, true, nil
}
