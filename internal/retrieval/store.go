package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/harborlend/underwriteai/internal/document"
)

// Store is an in-memory vector index over policy chunks. It is safe for
// concurrent use; indexing replaces nothing, it only appends, and a
// reindex goes through Reset.
type Store struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []entry
}

type entry struct {
	doc    document.Document
	vector []float64
}

// Match is a scored retrieval hit.
type Match struct {
	Document document.Document
	Score    float64
}

// NewStore creates an empty vector store.
func NewStore(embedder Embedder) *Store {
	return &Store{embedder: embedder}
}

// Len reports the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reset drops the whole index.
func (s *Store) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Add embeds and indexes a batch of chunks.
func (s *Store) Add(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("retrieval: embed batch: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range docs {
		s.entries = append(s.entries, entry{doc: d, vector: vectors[i]})
	}
	return nil
}

// Search returns the k chunks most similar to the query, best first.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = 3
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}
	qv := vectors[0]

	s.mu.RLock()
	matches := make([]Match, 0, len(s.entries))
	for _, e := range s.entries {
		matches = append(matches, Match{Document: e.doc, Score: cosine(qv, e.vector)})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
