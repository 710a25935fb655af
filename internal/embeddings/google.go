package embeddings

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleModel represents a supported Google embedding model.
type GoogleModel string

const (
	ModelGeminiEmbedding001 GoogleModel = "gemini-embedding-001"
	ModelTextEmbedding004   GoogleModel = "text-embedding-004"
)

func (m GoogleModel) dimensions() int {
	switch m {
	case ModelTextEmbedding004:
		return 768
	default:
		return 3072
	}
}

// GoogleEmbedder generates embeddings using the Gemini API.
type GoogleEmbedder struct {
	client *genai.Client
	model  GoogleModel
}

// NewGoogleEmbedder creates a new Google embedder.
func NewGoogleEmbedder(ctx context.Context, apiKey string, model GoogleModel) (*GoogleEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GoogleEmbedder{client: client, model: model}, nil
}

func (e *GoogleEmbedder) Name() string {
	return string(e.model)
}

func (e *GoogleEmbedder) Dimensions() int {
	return e.model.dimensions()
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxBatchSize {
		end := min(i+maxBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-i)
		for _, text := range texts[i:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		resp, err := e.client.Models.EmbedContent(ctx, string(e.model), contents, nil)
		if err != nil {
			return nil, fmt.Errorf("google embed request failed: %w", err)
		}
		if len(resp.Embeddings) != end-i {
			return nil, fmt.Errorf("google returned %d embeddings, expected %d", len(resp.Embeddings), end-i)
		}
		for _, emb := range resp.Embeddings {
			if len(emb.Values) == 0 {
				return nil, fmt.Errorf("google returned empty embedding")
			}
			results = append(results, emb.Values)
		}
	}
	return results, nil
}
