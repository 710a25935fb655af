package vectordb

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text.
// Similar texts will produce similar vectors because shared characters contribute
// to the same positions in the vector.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	// Normalize
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(newMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	return store
}

func regulationDocs(now time.Time) []Document {
	return []Document{
		{
			ID:      "ftc-1",
			Content: "Advertising must be truthful and not misleading, and claims must be substantiated",
			Metadata: DocumentMetadata{
				Source:      "ftc_guidelines",
				ChunkIndex:  0,
				ContentHash: "abc123",
				Kind:        KindSeed,
				AddedAt:     now,
			},
		},
		{
			ID:      "social-1",
			Content: "Influencers must clearly disclose any material connection to a brand",
			Metadata: DocumentMetadata{
				Source:      "social_media_rules",
				ChunkIndex:  0,
				ContentHash: "def456",
				Kind:        KindSeed,
				AddedAt:     now,
			},
		},
		{
			ID:      "house-1",
			Content: "Internal policy: no before and after photos for weight loss products",
			Metadata: DocumentMetadata{
				Source:      "house_rules.md",
				ChunkIndex:  3,
				ContentHash: "ghi789",
				FileHash:    "f00d",
				Kind:        KindIngested,
				AddedAt:     now,
			},
		},
	}
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.AddDocuments(ctx, regulationDocs(time.Now())); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	if count := store.Count(); count != 3 {
		t.Errorf("Count: got %d, want 3", count)
	}

	results, err := store.Search(ctx, "truthful advertising claims", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search returned no results")
	}
	if len(results) > 2 {
		t.Errorf("Search returned %d results, expected at most 2", len(results))
	}

	for _, r := range results {
		if r.Similarity == 0 {
			t.Error("result has zero similarity")
		}
	}
}

func TestChromemStore_SearchLimitAboveCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.AddDocuments(ctx, regulationDocs(time.Now())[:1]); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	results, err := store.Search(ctx, "advertising", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestChromemStore_SearchEmpty(t *testing.T) {
	results, err := newTestStore(t).Search(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestChromemStore_SearchWithFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.AddDocuments(ctx, regulationDocs(time.Now())); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	kind := KindIngested
	results, err := store.Search(ctx, "weight loss photos", 10, &SearchFilter{Kind: &kind})
	if err != nil {
		t.Fatalf("Search with filter: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected filtered results")
	}
	for _, r := range results {
		if r.Document.Metadata.Kind != KindIngested {
			t.Errorf("expected kind ingested, got %s", r.Document.Metadata.Kind)
		}
	}
}

func TestChromemStore_SameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	docs := regulationDocs(time.Now())

	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments again: %v", err)
	}
	if count := store.Count(); count != len(docs) {
		t.Errorf("Count: got %d, want %d", count, len(docs))
	}
}

func TestChromemStore_GetAndDeleteBySource(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.AddDocuments(ctx, regulationDocs(time.Now())); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	docs, err := store.GetBySource(ctx, "house_rules.md")
	if err != nil {
		t.Fatalf("GetBySource: %v", err)
	}
	if len(docs) != 1 || docs[0].Metadata.ChunkIndex != 3 {
		t.Fatalf("unexpected docs for source: %+v", docs)
	}

	if err := store.DeleteBySource(ctx, "house_rules.md"); err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	if count := store.Count(); count != 2 {
		t.Errorf("Count after delete: got %d, want 2", count)
	}
}

func TestChromemStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.AddDocuments(ctx, regulationDocs(time.Now())); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if count := store.Count(); count != 0 {
		t.Errorf("Count after reset: got %d, want 0", count)
	}
}

func TestChromemStore_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().Truncate(time.Second)
	if err := store.AddDocuments(ctx, regulationDocs(now)); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	// Persist creates missing directories.
	dir := t.TempDir() + "/nested/vectordb"
	if err := store.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	store2 := newTestStore(t)
	if err := store2.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if count := store2.Count(); count != 3 {
		t.Errorf("Count after load: got %d, want 3", count)
	}

	docs, err := store2.GetBySource(ctx, "house_rules.md")
	if err != nil {
		t.Fatalf("GetBySource after load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc after load, got %d", len(docs))
	}
	md := docs[0].Metadata
	if md.Kind != KindIngested || md.ChunkIndex != 3 || md.ContentHash != "ghi789" || md.FileHash != "f00d" {
		t.Errorf("metadata not preserved: %+v", md)
	}
	if !md.AddedAt.Equal(now) {
		t.Errorf("added_at: got %v, want %v", md.AddedAt, now)
	}
}

func TestChromemStore_LoadMissing(t *testing.T) {
	err := newTestStore(t).Load(context.Background(), t.TempDir())
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}
