// Package memory provides similarity search over freeform text: a flat
// nearest-neighbor vector store plus a small facade for storing and recalling
// campaign notes.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/maestroia/maestro-go/embeddings"
)

// Document is one stored text with its embedding. Documents are identified by
// insertion order, never updated, and never evicted.
type Document struct {
	Text      string
	Embedding []float64
}

// SearchResult pairs a stored document with its distance to the query.
type SearchResult struct {
	Text     string
	Distance float64
}

// VectorStore indexes documents in a flat structure and answers
// nearest-neighbor queries by L2 distance. All operations are serialized
// against a mutex; the document list and index stay in lock-step because a
// document is only appended after its embedding succeeded.
type VectorStore struct {
	provider embeddings.Provider

	mu   sync.RWMutex
	docs []Document
}

// NewVectorStore creates a store backed by the given embedding provider.
func NewVectorStore(provider embeddings.Provider) *VectorStore {
	return &VectorStore{provider: provider}
}

// Add embeds text and appends it to the index.
func (s *VectorStore) Add(ctx context.Context, text string) error {
	vec, err := s.provider.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, Document{Text: text, Embedding: vec})
	return nil
}

// Search returns up to k stored documents ordered by ascending distance to
// the query. A k larger than the store returns everything; an empty store
// returns an empty slice.
func (s *VectorStore) Search(ctx context.Context, query string, k int) ([]string, error) {
	results, err := s.SearchWithScores(ctx, query, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return texts, nil
}

// SearchWithScores is Search with distances attached.
func (s *VectorStore) SearchWithScores(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return []SearchResult{}, nil
	}

	vec, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		results = append(results, SearchResult{
			Text:     doc.Text,
			Distance: floats.Distance(vec, doc.Embedding, 2),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored documents.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
