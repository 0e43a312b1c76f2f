// Package vector defines the vector index port used by the ingestion
// pipeline and the retriever. Adapters live in subpackages (qdrant for
// production, memory for tests and single-node dev).
package vector

import "context"

// Vector is one embedded chunk ready for indexing. ID is the chunk's
// database ID; Metadata rides along as payload and comes back on query.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// VectorMatch is a single query hit, score normalized so that higher is
// always more similar regardless of the backend's distance metric.
type VectorMatch struct {
	ID    string
	Score float64
}

// Store indexes embeddings per namespace. One namespace per document keeps
// deletes and re-ingestion cheap: dropping a document never touches another
// document's points.
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]VectorMatch, error)
	DeleteNamespace(ctx context.Context, namespace string) error
}
