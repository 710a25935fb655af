package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/ad-verify/internal/vectordb"
)

// DefaultTopK is the number of chunks retrieved when the caller passes k <= 0.
const DefaultTopK = 5

var (
	// ErrStoreUnavailable is returned when the store has not been initialized.
	ErrStoreUnavailable = errors.New("knowledge store unavailable")
	// ErrStoreCorrupt is returned when a persisted store exists but cannot be
	// loaded. The store is never reseeded over it.
	ErrStoreCorrupt = errors.New("knowledge store corrupt")
	// ErrSourceNotFound is returned when no chunk carries the given source.
	ErrSourceNotFound = errors.New("knowledge source not found")
)

// Chunk is a retrieved piece of regulation text.
type Chunk struct {
	ID         string                `json:"id"`
	Text       string                `json:"text"`
	Source     string                `json:"source"`
	Kind       vectordb.DocumentKind `json:"kind"`
	Similarity float32               `json:"similarity"`
}

// Store owns the regulation knowledge base: seeding, ingestion, persistence
// and retrieval. It is safe for concurrent use; writers hold the lock
// exclusively while retrievals share it.
type Store struct {
	mu       sync.RWMutex
	vectors  vectordb.VectorStore
	dir      string
	splitter *Splitter
	onCount  func(int)
	ready    bool
}

// Option configures a Store.
type Option func(*Store)

// WithSplitter overrides the default chunking policy.
func WithSplitter(sp *Splitter) Option {
	return func(s *Store) { s.splitter = sp }
}

// WithCountObserver registers a callback invoked with the chunk count after
// every change.
func WithCountObserver(fn func(int)) Option {
	return func(s *Store) { s.onCount = fn }
}

// NewStore creates a store backed by vectors and persisted under dir. An
// empty dir keeps the store in memory only.
func NewStore(vectors vectordb.VectorStore, dir string, opts ...Option) *Store {
	s := &Store{
		vectors:  vectors,
		dir:      dir,
		splitter: NewSplitter(DefaultChunkSize, DefaultChunkOverlap),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted store, or seeds and persists a new one when
// nothing was persisted yet. A snapshot that exists but fails to load is
// reported as ErrStoreCorrupt.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir != "" {
		err := s.vectors.Load(ctx, s.dir)
		switch {
		case err == nil:
			if n := s.vectors.Count(); n > 0 {
				log.Printf("knowledge: loaded %d chunks from %s", n, s.dir)
				s.ready = true
				s.notify()
				return nil
			}
			log.Printf("knowledge: persisted store in %s is empty, seeding", s.dir)
		case errors.Is(err, vectordb.ErrNotExist):
			log.Printf("knowledge: no persisted store in %s, seeding", s.dir)
		default:
			return fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
		}
	}

	if err := s.seedLocked(ctx); err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *Store) seedLocked(ctx context.Context) error {
	total := 0
	for _, doc := range SeedCorpus() {
		n, err := s.addLocked(ctx, doc.Source, []string{doc.Text}, vectordb.KindSeed, "")
		if err != nil {
			return fmt.Errorf("seeding %s: %w", doc.Source, err)
		}
		total += n
	}
	if err := s.persistLocked(ctx); err != nil {
		return err
	}
	log.Printf("knowledge: added %d seed chunks", total)
	s.notify()
	return nil
}

// AddTexts chunks, embeds, indexes and persists texts under source. It
// returns the number of chunks that were not already in the store.
func (s *Store) AddTexts(ctx context.Context, source string, texts []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return 0, ErrStoreUnavailable
	}

	n, err := s.addLocked(ctx, source, texts, vectordb.KindIngested, "")
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := s.persistLocked(ctx); err != nil {
			return n, err
		}
		s.notify()
	}
	return n, nil
}

// ReplaceFile indexes the text of a guideline file under source, replacing
// whatever an earlier ingest of the same source stored. When every stored
// chunk of source already carries fileHash the file is unchanged and nothing
// is re-embedded.
func (s *Store) ReplaceFile(ctx context.Context, source, text, fileHash string) (added int, unchanged bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return 0, false, ErrStoreUnavailable
	}

	existing, err := s.vectors.GetBySource(ctx, source)
	if err != nil {
		return 0, false, fmt.Errorf("looking up %s: %w", source, err)
	}
	if len(existing) > 0 {
		if fileHash != "" && allFromFile(existing, fileHash) {
			return 0, true, nil
		}
		if err := s.vectors.DeleteBySource(ctx, source); err != nil {
			return 0, false, fmt.Errorf("replacing %s: %w", source, err)
		}
	}

	n, err := s.addLocked(ctx, source, []string{text}, vectordb.KindIngested, fileHash)
	if err != nil {
		return 0, false, err
	}
	if err := s.persistLocked(ctx); err != nil {
		return n, false, err
	}
	s.notify()
	return n, false, nil
}

func allFromFile(docs []vectordb.Document, fileHash string) bool {
	for _, d := range docs {
		if d.Metadata.FileHash != fileHash {
			return false
		}
	}
	return true
}

func (s *Store) addLocked(ctx context.Context, source string, texts []string, kind vectordb.DocumentKind, fileHash string) (int, error) {
	now := time.Now().UTC()
	seen := make(map[string]bool)
	var docs []vectordb.Document
	for _, text := range texts {
		for _, chunk := range s.splitter.Split(text) {
			id := ChunkID(source, chunk)
			if seen[id] {
				continue
			}
			seen[id] = true
			docs = append(docs, vectordb.Document{
				ID:      id,
				Content: chunk,
				Metadata: vectordb.DocumentMetadata{
					Source:      source,
					ChunkIndex:  len(docs),
					ContentHash: contentHash(chunk),
					FileHash:    fileHash,
					Kind:        kind,
					AddedAt:     now,
				},
			})
		}
	}
	if len(docs) == 0 {
		return 0, nil
	}

	before := s.vectors.Count()
	if err := s.vectors.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("indexing chunks: %w", err)
	}
	return s.vectors.Count() - before, nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}
	if err := s.vectors.Persist(ctx, s.dir); err != nil {
		return fmt.Errorf("persisting knowledge store: %w", err)
	}
	return nil
}

// Rebuild drops every chunk, including ingested ones, and reseeds.
func (s *Store) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vectors.Reset(ctx); err != nil {
		return fmt.Errorf("resetting vector store: %w", err)
	}
	s.ready = false
	if err := s.seedLocked(ctx); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// DeleteSource removes all chunks stored under source and returns how many
// were removed. It returns ErrSourceNotFound when there were none.
func (s *Store) DeleteSource(ctx context.Context, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return 0, ErrStoreUnavailable
	}
	before := s.vectors.Count()
	if err := s.vectors.DeleteBySource(ctx, source); err != nil {
		return 0, fmt.Errorf("deleting %s: %w", source, err)
	}
	removed := before - s.vectors.Count()
	if removed == 0 {
		return 0, ErrSourceNotFound
	}
	if err := s.persistLocked(ctx); err != nil {
		return removed, err
	}
	s.notify()
	return removed, nil
}

// Count returns the number of chunks in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors.Count()
}

// Ready reports whether Initialize has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Retrieve returns at most k chunks most similar to query, best first.
// k <= 0 means DefaultTopK.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]Chunk, error) {
	return s.Search(ctx, query, k, "")
}

// Search is Retrieve restricted to chunks of the given kind. An empty kind
// matches every chunk.
func (s *Store) Search(ctx context.Context, query string, k int, kind vectordb.DocumentKind) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrStoreUnavailable
	}
	if k <= 0 {
		k = DefaultTopK
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	var filter *vectordb.SearchFilter
	if kind != "" {
		filter = &vectordb.SearchFilter{Kind: &kind}
	}
	results, err := s.vectors.Search(ctx, query, k, filter)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge store: %w", err)
	}

	chunks := make([]Chunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, Chunk{
			ID:         r.Document.ID,
			Text:       r.Document.Content,
			Source:     r.Document.Metadata.Source,
			Kind:       r.Document.Metadata.Kind,
			Similarity: r.Similarity,
		})
	}
	return chunks, nil
}

func (s *Store) notify() {
	if s.onCount != nil {
		s.onCount(s.vectors.Count())
	}
}

// ChunkID derives the content-addressed identifier of a chunk.
func ChunkID(source, text string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + text))
	return hex.EncodeToString(sum[:16])
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
