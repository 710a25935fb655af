package vectordb

import "time"

// DocumentKind records how a chunk entered the store.
type DocumentKind string

const (
	// KindSeed marks chunks from the built-in regulation corpus.
	KindSeed DocumentKind = "seed"
	// KindIngested marks chunks added at runtime through the API or CLI.
	KindIngested DocumentKind = "ingested"
)

// Document represents a piece of content to be stored and searched.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a document.
type DocumentMetadata struct {
	Source      string
	ChunkIndex  int
	ContentHash string
	// FileHash is the digest of the whole file a chunk was ingested from.
	// It is empty for seed chunks and API ingests.
	FileHash    string
	Kind        DocumentKind
	AddedAt     time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by metadata fields. A nil filter
// matches everything.
type SearchFilter struct {
	Kind *DocumentKind
}
