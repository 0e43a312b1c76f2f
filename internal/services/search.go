package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/rag"
)

// SearchResult is one ranked chunk in a similarity search response.
type SearchResult struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	PageStart  int       `json:"page_start"`
	PageEnd    int       `json:"page_end"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
}

type SearchService interface {
	// Search returns the top-k chunks for the query, highest score first.
	// An empty scope searches every ready document; otherwise scope is a
	// document ID.
	Search(ctx context.Context, query string, scope string, k int) ([]SearchResult, error)
}

type searchService struct {
	log       *logger.Logger
	retriever *rag.Retriever
}

func NewSearchService(baseLog *logger.Logger, retriever *rag.Retriever) SearchService {
	return &searchService{
		log:       baseLog.With("service", "SearchService"),
		retriever: retriever,
	}
}

func (s *searchService) Search(ctx context.Context, query string, scope string, k int) ([]SearchResult, error) {
	retrieved, err := s.retriever.Retrieve(ctx, query, scope, k)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(retrieved))
	for _, rc := range retrieved {
		out = append(out, SearchResult{
			ChunkID:    rc.Chunk.ID,
			DocumentID: rc.Chunk.DocumentID,
			PageStart:  rc.Chunk.PageStart,
			PageEnd:    rc.Chunk.PageEnd,
			Kind:       rc.Chunk.Kind,
			Text:       rc.Chunk.Text,
			Score:      rc.Score,
		})
	}
	return out, nil
}
