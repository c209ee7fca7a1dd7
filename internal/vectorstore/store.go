// Package vectorstore holds the nearest-neighbour backends used for
// Salesforce metadata retrieval.
package vectorstore

import (
	"context"
	"errors"
	"math"
)

// MetadataTextKey is the metadata field that carries a chunk's source text.
const MetadataTextKey = "text"

var (
	// ErrEmptyVector is returned when a query or upsert carries no values.
	ErrEmptyVector = errors.New("vectorstore: vector is empty")
	// ErrMissingID is returned when an upserted vector has no identifier.
	ErrMissingID = errors.New("vectorstore: vector id is required")
)

// Vector is a chunk embedding with its source text.
type Vector struct {
	ID     string
	Values []float32
	Text   string
}

// Match is one similarity search result, best first.
type Match struct {
	ID    string
	Score float32
	Text  string
}

// Searcher returns the topK stored vectors nearest to the query vector.
type Searcher interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// Upserter writes vectors, replacing any existing vector with the same ID.
type Upserter interface {
	Upsert(ctx context.Context, vectors []Vector) (int, error)
}

// Store is a full read/write vector backend.
type Store interface {
	Searcher
	Upserter
}

// IndexSpec describes the index the indexing job expects to exist.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
}

// IndexManager is implemented by backends that can provision their own index.
type IndexManager interface {
	EnsureIndex(ctx context.Context, spec IndexSpec) (created bool, err error)
}

func validateVectors(vectors []Vector) error {
	for _, v := range vectors {
		if v.ID == "" {
			return ErrMissingID
		}
		if len(v.Values) == 0 {
			return ErrEmptyVector
		}
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	var normA float64
	var normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
