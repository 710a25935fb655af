package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/ad-verify/internal/embeddings"
)

const (
	collectionName = "ad_regulations"

	// FileName is the snapshot written inside the persistence directory.
	FileName = "chromem.gob.gz"
)

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	s := &ChromemStore{embedFunc: embeddings.ToChromemFunc(embedder)}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStore) open() error {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.db = db
	s.collection = col
	return nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, runtime.NumCPU())
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (s *ChromemStore) GetBySource(ctx context.Context, source string) ([]Document, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	where := map[string]string{"source": source}

	// Query with the source as text and count as limit to get every match.
	results, err := s.collection.Query(ctx, source, count, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query by source: %w", err)
	}

	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: mapToMetadata(r.Metadata),
		}
	}

	return docs, nil
}

func (s *ChromemStore) DeleteBySource(ctx context.Context, source string) error {
	where := map[string]string{"source": source}
	return s.collection.Delete(ctx, where, nil)
}

func (s *ChromemStore) Reset(ctx context.Context) error {
	return s.open()
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vector store dir: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, FileName), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// metadataToMap converts DocumentMetadata to a flat map[string]string for chromem.
func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"source":       m.Source,
		"chunk_index":  strconv.Itoa(m.ChunkIndex),
		"content_hash": m.ContentHash,
		"file_hash":    m.FileHash,
		"kind":         string(m.Kind),
		"added_at":     m.AddedAt.Format(time.RFC3339),
	}
}

// mapToMetadata converts a flat map[string]string back to DocumentMetadata.
func mapToMetadata(m map[string]string) DocumentMetadata {
	chunkIndex, _ := strconv.Atoi(m["chunk_index"])
	addedAt, _ := time.Parse(time.RFC3339, m["added_at"])

	return DocumentMetadata{
		Source:      m["source"],
		ChunkIndex:  chunkIndex,
		ContentHash: m["content_hash"],
		FileHash:    m["file_hash"],
		Kind:        DocumentKind(m["kind"]),
		AddedAt:     addedAt,
	}
}

// buildWhereClause converts a SearchFilter to a chromem where clause.
func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}

	where := make(map[string]string)
	if filter.Kind != nil {
		where["kind"] = string(*filter.Kind)
	}

	if len(where) == 0 {
		return nil
	}
	return where
}
