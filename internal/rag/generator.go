package rag

import (
	"context"
	"time"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/pkg/httpx"
	"github.com/yungbote/blueprint-backend/internal/types"
)

// Confidence bands derived from the top included relevance score.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// TextGenerator is the slice of the LLM client the generator needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

// Answer is a generated response with its grounding made explicit.
type Answer struct {
	Answer         string   `json:"answer"`
	Confidence     float64  `json:"confidence"`
	ConfidenceBand string   `json:"confidence_band"`
	SourceChunkIDs []string `json:"source_chunk_ids,omitempty"`
}

// Generator builds a bounded prompt from retrieved chunks and conversation
// history, calls the LLM with bounded retry, and reports confidence from the
// relevance of the chunks actually included.
type Generator struct {
	log *logger.Logger
	llm TextGenerator

	MaxContextChunks  int
	ContextCharBudget int
	MinRelevance      float64
	HighRelevance     float64
	Retries           int
	RetryBase         time.Duration
}

func NewGenerator(log *logger.Logger, llm TextGenerator) *Generator {
	return &Generator{
		log:               log.With("service", "Generator"),
		llm:               llm,
		MaxContextChunks:  3,
		ContextCharBudget: 6000,
		MinRelevance:      0.35,
		HighRelevance:     0.75,
		Retries:           3,
		RetryBase:         time.Second,
	}
}

// Generate answers the query from the retrieved chunks. Chunks arrive sorted
// by relevance; the lowest-relevance ones are dropped first when the context
// exceeds the character budget. When no included chunk clears MinRelevance
// the answer is produced with an explicit weak-grounding instruction and a
// low confidence band.
func (g *Generator) Generate(ctx context.Context, query string, retrieved []RetrievedChunk, history []types.ChatTurn) (*Answer, error) {
	included := g.selectContext(retrieved)

	topScore := 0.0
	if len(included) > 0 {
		topScore = included[0].Score
	}
	grounded := topScore >= g.MinRelevance

	user := buildUserPrompt(query, included, history, grounded)

	text, err := g.generateWithRetry(ctx, systemPrompt, user)
	if err != nil {
		return nil, &GenerationError{Cause: err}
	}

	answer := &Answer{
		Answer:         text,
		Confidence:     topScore,
		ConfidenceBand: g.band(topScore),
	}
	for _, rc := range included {
		answer.SourceChunkIDs = append(answer.SourceChunkIDs, rc.Chunk.ID.String())
	}
	return answer, nil
}

// selectContext keeps the MaxContextChunks highest-relevance chunks, then
// trims from the bottom until the character budget holds.
func (g *Generator) selectContext(retrieved []RetrievedChunk) []RetrievedChunk {
	max := g.MaxContextChunks
	if max <= 0 {
		max = 3
	}
	included := retrieved
	if len(included) > max {
		included = included[:max]
	}

	if g.ContextCharBudget > 0 {
		total := 0
		for _, rc := range included {
			total += len([]rune(rc.Chunk.Text))
		}
		for len(included) > 1 && total > g.ContextCharBudget {
			last := included[len(included)-1]
			total -= len([]rune(last.Chunk.Text))
			included = included[:len(included)-1]
		}
	}
	return included
}

func (g *Generator) generateWithRetry(ctx context.Context, system, user string) (string, error) {
	base := g.RetryBase
	if base <= 0 {
		base = time.Second
	}
	backoff := httpx.Backoff{Base: base, Max: 20 * time.Second, Retries: g.Retries}

	var lastErr error
	for {
		text, err := g.llm.GenerateText(ctx, system, user)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !httpx.IsRetryableError(err) {
			return "", err
		}
		if !backoff.Next() {
			return "", lastErr
		}
		g.log.Warn("generation retrying", "attempt", backoff.Attempt(), "error", err)
		if sErr := httpx.Sleep(ctx, backoff.Delay(nil)); sErr != nil {
			return "", sErr
		}
	}
}

func (g *Generator) band(score float64) string {
	switch {
	case score >= g.HighRelevance:
		return ConfidenceHigh
	case score >= g.MinRelevance:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
