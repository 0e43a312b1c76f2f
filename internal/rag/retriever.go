// Package rag holds the query-time half of the pipeline: retrieval,
// conversation memory, and answer generation.
package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/repos"
	"github.com/yungbote/blueprint-backend/internal/types"
	"github.com/yungbote/blueprint-backend/internal/vector"
)

// Embedder is the slice of the LLM client retrieval needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// RetrievedChunk pairs a hydrated chunk with its relevance score.
type RetrievedChunk struct {
	Chunk *types.TextChunk
	Score float64
}

// Retriever answers similarity queries scoped to one document or all of
// them. It never returns chunks from a document that is not ready: a
// partially indexed document is invisible until its ready flip.
type Retriever struct {
	log       *logger.Logger
	embedder  Embedder
	vectors   vector.Store
	chunks    repos.TextChunkRepo
	documents repos.DocumentRepo

	DefaultTopK int
	MaxTopK     int
}

func NewRetriever(
	log *logger.Logger,
	embedder Embedder,
	vectors vector.Store,
	chunks repos.TextChunkRepo,
	documents repos.DocumentRepo,
) *Retriever {
	return &Retriever{
		log:         log.With("service", "Retriever"),
		embedder:    embedder,
		vectors:     vectors,
		chunks:      chunks,
		documents:   documents,
		DefaultTopK: 5,
		MaxTopK:     20,
	}
}

// Retrieve embeds the query and returns the top-k chunks, highest score
// first, ties broken by earlier page order. An empty scope queries all
// documents; otherwise scope is a document ID.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope string, k int) ([]RetrievedChunk, error) {
	if k <= 0 {
		k = r.DefaultTopK
	}
	if r.MaxTopK > 0 && k > r.MaxTopK {
		k = r.MaxTopK
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &RetrievalError{Cause: err}
	}
	if len(embeddings) != 1 {
		return nil, &RetrievalError{Cause: fmt.Errorf("unexpected embedding count %d for single query", len(embeddings))}
	}

	matches, err := r.vectors.QueryMatches(ctx, strings.TrimSpace(scope), embeddings[0], k)
	if err != nil {
		return nil, &RetrievalError{Cause: err}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	scores := make(map[uuid.UUID]float64, len(matches))
	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		id, parseErr := uuid.Parse(m.ID)
		if parseErr != nil {
			r.log.Warn("non-uuid vector match skipped", "vector_id", m.ID)
			continue
		}
		ids = append(ids, id)
		scores[id] = m.Score
	}

	chunks, err := r.chunks.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, &RetrievalError{Cause: err}
	}

	readyDocs := make(map[uuid.UUID]bool)
	out := make([]RetrievedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		ready, ok := readyDocs[chunk.DocumentID]
		if !ok {
			doc, docErr := r.documents.GetByID(ctx, nil, chunk.DocumentID)
			if docErr != nil {
				return nil, &RetrievalError{Cause: docErr}
			}
			ready = doc != nil && doc.Status == types.DocumentStatusReady
			readyDocs[chunk.DocumentID] = ready
		}
		if !ready {
			continue
		}
		out = append(out, RetrievedChunk{Chunk: chunk, Score: scores[chunk.ID]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Chunk.PageStart != out[j].Chunk.PageStart {
			return out[i].Chunk.PageStart < out[j].Chunk.PageStart
		}
		return out[i].Chunk.Index < out[j].Chunk.Index
	})
	return out, nil
}
