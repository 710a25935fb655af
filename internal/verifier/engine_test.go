package verifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/ad-verify/internal/embeddings"
	"github.com/ziadkadry99/ad-verify/internal/knowledge"
	"github.com/ziadkadry99/ad-verify/internal/llm"
	"github.com/ziadkadry99/ad-verify/internal/llm/llmtest"
	"github.com/ziadkadry99/ad-verify/internal/metrics"
	"github.com/ziadkadry99/ad-verify/internal/vectordb"
	"github.com/ziadkadry99/ad-verify/internal/webcontext"
)

func seededStore(t *testing.T) *knowledge.Store {
	t.Helper()
	vs, err := vectordb.NewChromemStore(embeddings.NewHashEmbedder(0))
	require.NoError(t, err)
	s := knowledge.NewStore(vs, "")
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	tokens   int
}

func (r *fakeRecorder) ObserveVerification(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) ObserveModelUsage(_ string, in, out int, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens += in + out
}

type failingRetriever struct{ err error }

func (f failingRetriever) Retrieve(context.Context, string, int) ([]knowledge.Chunk, error) {
	return nil, f.err
}

type countingFetcher struct {
	mu   sync.Mutex
	urls []string
}

func (f *countingFetcher) Fetch(_ context.Context, url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return "page text"
}

func TestScenarioMisleadingAd(t *testing.T) {
	store := seededStore(t)
	provider := llmtest.New(`{
		"score": 0.12,
		"explanation": "The ad relies on false urgency and an unsubstantiated weight loss claim.",
		"issues": ["False urgency: 'Limited time offer'", "Unsubstantiated health claim: lose 20 pounds in 3 days"],
		"recommendations": ["Remove the artificial deadline", "Provide scientific evidence or drop the claim"]
	}`)
	rec := &fakeRecorder{}
	engine := NewEngine(store, webcontext.New(), provider, WithRecorder(rec), WithModel("gpt-4o-mini"))

	out, err := engine.Verify(context.Background(), "Buy now! Limited time offer, lose 20 pounds in 3 days!", "")
	require.NoError(t, err)

	assert.Less(t, out.CredibilityScore, 0.5)
	assert.NotEmpty(t, out.Issues)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	req := calls[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.True(t, req.JSONMode)
	assert.Zero(t, req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, SystemPrompt, req.Messages[0].Content)

	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, webcontext.NoURLText)
	assert.Contains(t, prompt, "False urgency: Creating fake time pressure")
	assert.Contains(t, prompt, "Health and medical claims require scientific evidence")

	assert.Equal(t, []string{metrics.OutcomeParsed}, rec.outcomes)
	assert.Positive(t, rec.tokens)
}

func TestScenarioURLContextIncluded(t *testing.T) {
	var hits int
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/certs", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>Certifications</h1><p>Certified by the XYZ board for recycled ocean plastic content.</p></body></html>`))
	}))
	defer site.Close()

	provider := llmtest.NewFunc(func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		prompt := req.Messages[len(req.Messages)-1].Content
		explanation := "No supporting evidence for the certification claims was found."
		if strings.Contains(prompt, "Certified by the XYZ board") {
			explanation = "The certification claims are backed by the XYZ board certificate on the linked page."
		}
		return &llm.CompletionResponse{
			Content: `{"score": 0.78, "explanation": "` + explanation + `", "issues": [], "recommendations": ["Link the certificate number"]}`,
			Model:   "mock",
		}, nil
	})
	engine := NewEngine(seededStore(t), webcontext.New(), provider)

	out, err := engine.Verify(context.Background(),
		"This eco-friendly bottle is made from 100% recycled ocean plastic, certified by XYZ board.",
		site.URL+"/certs")
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Contains(t, provider.LastUserMessage(), "ADDITIONAL CONTEXT FROM URL:\nCertifications\n")
	assert.Contains(t, out.Explanation, "certification claims")
	assert.Equal(t, []string{}, out.Issues)
}

func TestScenarioNonJSONReply(t *testing.T) {
	rec := &fakeRecorder{}
	engine := NewEngine(seededStore(t), webcontext.New(), llmtest.New("not json at all"), WithRecorder(rec))

	out, err := engine.Verify(context.Background(), "Totally normal ad", "")
	require.NoError(t, err)
	assert.Equal(t, Fallback("not json at all"), *out)
	assert.True(t, strings.HasPrefix(out.Explanation, FallbackPrefix))
	assert.Equal(t, []string{metrics.OutcomeFallback}, rec.outcomes)
}

func TestVerifyUnreachableURLStillCompletes(t *testing.T) {
	site := httptest.NewServer(http.NotFoundHandler())
	url := site.URL
	site.Close()

	provider := llmtest.New(`{"score": 0.6, "explanation": "ok"}`)
	engine := NewEngine(seededStore(t), webcontext.New(webcontext.WithTimeout(2*time.Second)), provider)

	out, err := engine.Verify(context.Background(), "Great deals on shoes", url)
	require.NoError(t, err)
	assert.Equal(t, 0.6, out.CredibilityScore)
	assert.Contains(t, provider.LastUserMessage(), webcontext.ErrorPrefix)
}

func TestVerifyScoreAlwaysInRange(t *testing.T) {
	store := seededStore(t)
	for _, reply := range []string{
		`{"score": -4}`,
		`{"score": 12}`,
		`{"score": 0.3}`,
		`{}`,
		`garbage`,
		"```json\n{\"score\": 2}\n```",
	} {
		engine := NewEngine(store, webcontext.New(), llmtest.New(reply))
		out, err := engine.Verify(context.Background(), "Some ad", "")
		require.NoError(t, err, reply)
		assert.GreaterOrEqual(t, out.CredibilityScore, 0.0, reply)
		assert.LessOrEqual(t, out.CredibilityScore, 1.0, reply)
	}
}

func TestVerifyEmptyContent(t *testing.T) {
	provider := llmtest.New(`{}`)
	fetcher := &countingFetcher{}
	rec := &fakeRecorder{}
	engine := NewEngine(seededStore(t), fetcher, provider, WithRecorder(rec))

	for _, content := range []string{"", "   \n\t"} {
		_, err := engine.Verify(context.Background(), content, "http://example.com")
		assert.ErrorIs(t, err, ErrEmptyContent)
	}
	assert.Zero(t, provider.CallCount())
	assert.Empty(t, fetcher.urls)
	assert.Equal(t, []string{metrics.OutcomeError, metrics.OutcomeError}, rec.outcomes)
}

func TestVerifyRetrievalUnavailable(t *testing.T) {
	vs, err := vectordb.NewChromemStore(embeddings.NewHashEmbedder(0))
	require.NoError(t, err)
	uninitialized := knowledge.NewStore(vs, "")

	provider := llmtest.New(`{}`)
	engine := NewEngine(uninitialized, webcontext.New(), provider)

	_, err = engine.Verify(context.Background(), "Some ad", "")
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	assert.ErrorIs(t, err, knowledge.ErrStoreUnavailable)
	assert.Zero(t, provider.CallCount(), "the model must not be called without grounding")
}

func TestVerifyModelFailureSurfaces(t *testing.T) {
	providerErr := &llm.ProviderError{Type: llm.ErrorTypeAuthentication, Provider: "mock", StatusCode: 401}
	provider := llmtest.NewFunc(func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, providerErr
	})
	engine := NewEngine(seededStore(t), webcontext.New(), provider)

	_, err := engine.Verify(context.Background(), "Some ad", "")
	assert.ErrorIs(t, err, ErrModelFailure)
	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 401, pe.StatusCode)
}

func TestVerifyModelTimeout(t *testing.T) {
	provider := llmtest.NewFunc(func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	engine := NewEngine(seededStore(t), webcontext.New(), provider, WithModelTimeout(20*time.Millisecond))

	_, err := engine.Verify(context.Background(), "Some ad", "")
	assert.ErrorIs(t, err, ErrModelFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVerifyPassesTopK(t *testing.T) {
	var gotK int
	r := retrieverFunc(func(_ context.Context, _ string, k int) ([]knowledge.Chunk, error) {
		gotK = k
		return nil, nil
	})
	provider := llmtest.New(`{"score": 0.5}`)
	engine := NewEngine(r, webcontext.New(), provider, WithTopK(3))

	_, err := engine.Verify(context.Background(), "Some ad", "")
	require.NoError(t, err)
	assert.Equal(t, 3, gotK)
	assert.Contains(t, provider.LastUserMessage(), NoGuidelinesText)
}

type retrieverFunc func(ctx context.Context, query string, k int) ([]knowledge.Chunk, error)

func (f retrieverFunc) Retrieve(ctx context.Context, query string, k int) ([]knowledge.Chunk, error) {
	return f(ctx, query, k)
}

func TestVerifyRetrieverErrorIsWrapped(t *testing.T) {
	boom := errors.New("disk on fire")
	engine := NewEngine(failingRetriever{err: boom}, webcontext.New(), llmtest.New(`{}`))

	_, err := engine.Verify(context.Background(), "Some ad", "")
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	assert.ErrorIs(t, err, boom)
}
