package services

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/rag"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type ChatService interface {
	// Ask answers one question with no conversation state. An empty scope
	// searches every ready document.
	Ask(ctx context.Context, query string, scope string) (*rag.Answer, error)
	// Chat answers within a session: recent turns condition the prompt and
	// the completed exchange is appended to memory afterwards.
	Chat(ctx context.Context, sessionID string, query string, scope string) (*rag.Answer, error)
}

type chatService struct {
	log       *logger.Logger
	retriever *rag.Retriever
	generator *rag.Generator
	memory    rag.Memory

	// HistoryTurns caps how many prior turns condition each chat prompt.
	HistoryTurns int
}

func NewChatService(
	baseLog *logger.Logger,
	retriever *rag.Retriever,
	generator *rag.Generator,
	memory rag.Memory,
) ChatService {
	return &chatService{
		log:          baseLog.With("service", "ChatService"),
		retriever:    retriever,
		generator:    generator,
		memory:       memory,
		HistoryTurns: 4,
	}
}

func (s *chatService) Ask(ctx context.Context, query string, scope string) (*rag.Answer, error) {
	return s.answer(ctx, query, scope, nil)
}

func (s *chatService) Chat(ctx context.Context, sessionID string, query string, scope string) (*rag.Answer, error) {
	sessionID = strings.TrimSpace(sessionID)

	var history []types.ChatTurn
	if sessionID != "" {
		var err error
		history, err = s.memory.Recent(ctx, sessionID, s.HistoryTurns)
		if err != nil {
			// Memory loss degrades the prompt, not the request.
			s.log.Warn("conversation history unavailable", "session_id", sessionID, "error", err)
			history = nil
		}
	}

	answer, err := s.answer(ctx, query, scope, history)
	if err != nil {
		return nil, err
	}

	if sessionID != "" {
		turn := types.ChatTurn{
			SessionID:      sessionID,
			Query:          query,
			Answer:         answer.Answer,
			SourceChunkIDs: answer.SourceChunkIDs,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.memory.Append(ctx, sessionID, turn); err != nil {
			s.log.Warn("turn not recorded", "session_id", sessionID, "error", err)
		}
	}
	return answer, nil
}

func (s *chatService) answer(ctx context.Context, query string, scope string, history []types.ChatTurn) (*rag.Answer, error) {
	retrieved, err := s.retriever.Retrieve(ctx, query, scope, 0)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(ctx, query, retrieved, history)
}
