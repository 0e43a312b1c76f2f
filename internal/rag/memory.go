package rag

import (
	"context"
	"sync"

	"github.com/yungbote/blueprint-backend/internal/types"
)

// Memory is the session-scoped conversation log. Implementations cap the
// retained turns and evict oldest-first; sessions never share turns.
type Memory interface {
	// Append records one completed turn for the session.
	Append(ctx context.Context, sessionID string, turn types.ChatTurn) error
	// Recent returns up to n of the most recent turns in chronological order.
	Recent(ctx context.Context, sessionID string, n int) ([]types.ChatTurn, error)
}

type inMemory struct {
	mu       sync.Mutex
	sessions map[string][]types.ChatTurn
	maxTurns int
}

// NewInMemory backs conversation memory with a process-local map. Single-node
// deployments and tests use it; production uses the Redis implementation.
func NewInMemory(maxTurns int) Memory {
	if maxTurns <= 0 {
		maxTurns = 4
	}
	return &inMemory{
		sessions: make(map[string][]types.ChatTurn),
		maxTurns: maxTurns,
	}
}

func (m *inMemory) Append(ctx context.Context, sessionID string, turn types.ChatTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.sessions[sessionID], turn)
	if len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}
	m.sessions[sessionID] = turns
	return nil
}

func (m *inMemory) Recent(ctx context.Context, sessionID string, n int) ([]types.ChatTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.sessions[sessionID]
	if n <= 0 || n > len(turns) {
		n = len(turns)
	}
	out := make([]types.ChatTurn, n)
	copy(out, turns[len(turns)-n:])
	return out, nil
}
