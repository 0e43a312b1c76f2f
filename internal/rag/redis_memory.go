package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type redisMemory struct {
	log      *logger.Logger
	rdb      *goredis.Client
	maxTurns int
	ttl      time.Duration
}

// NewRedisMemory connects to REDIS_ADDR and stores each session as a list,
// newest turn first. LTRIM after every push enforces the FIFO cap server-side;
// idle sessions expire after the TTL.
func NewRedisMemory(log *logger.Logger, maxTurns int) (Memory, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxTurns <= 0 {
		maxTurns = 4
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisMemory{
		log:      log.With("service", "RedisMemory"),
		rdb:      rdb,
		maxTurns: maxTurns,
		ttl:      24 * time.Hour,
	}, nil
}

func (m *redisMemory) Append(ctx context.Context, sessionID string, turn types.ChatTurn) error {
	raw, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	key := m.key(sessionID)
	pipe := m.rdb.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, int64(m.maxTurns-1))
	pipe.Expire(ctx, key, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (m *redisMemory) Recent(ctx context.Context, sessionID string, n int) ([]types.ChatTurn, error) {
	if n <= 0 || n > m.maxTurns {
		n = m.maxTurns
	}

	raws, err := m.rdb.LRange(ctx, m.key(sessionID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}

	// The list holds newest first; reverse into chronological order.
	out := make([]types.ChatTurn, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		var turn types.ChatTurn
		if err := json.Unmarshal([]byte(raws[i]), &turn); err != nil {
			m.log.Warn("corrupt turn dropped", "session_id", sessionID, "error", err)
			continue
		}
		out = append(out, turn)
	}
	return out, nil
}

func (m *redisMemory) key(sessionID string) string {
	return "chat:session:" + strings.TrimSpace(sessionID)
}
