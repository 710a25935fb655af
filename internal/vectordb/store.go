package vectordb

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Load when nothing has been persisted yet.
var ErrNotExist = errors.New("vector store not persisted")

// VectorStore defines the interface for storing and searching documents by embeddings.
type VectorStore interface {
	// AddDocuments adds or updates documents in the store.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// GetBySource retrieves all documents associated with the given source.
	GetBySource(ctx context.Context, source string) ([]Document, error)

	// DeleteBySource removes all documents associated with the given source.
	DeleteBySource(ctx context.Context, source string) error

	// Reset drops every document.
	Reset(ctx context.Context) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory. It returns an
	// error wrapping ErrNotExist when the directory holds no snapshot.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of documents in the store.
	Count() int
}
