package vectorstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps vectors in memory and ranks them by cosine similarity.
// Used for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	vectors map[string]Vector
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vectors: make(map[string]Vector)}
}

func (s *MemoryStore) Upsert(_ context.Context, vectors []Vector) (int, error) {
	if err := validateVectors(vectors); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if _, exists := s.vectors[v.ID]; !exists {
			s.order = append(s.order, v.ID)
		}
		values := make([]float32, len(v.Values))
		copy(values, v.Values)
		s.vectors[v.ID] = Vector{ID: v.ID, Values: values, Text: v.Text}
	}
	return len(vectors), nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	results := make([]Match, 0, len(s.order))
	for _, id := range s.order {
		v := s.vectors[id]
		results = append(results, Match{
			ID:    v.ID,
			Score: float32(cosineSimilarity(vector, v.Values)),
			Text:  v.Text,
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Len reports how many vectors are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}
