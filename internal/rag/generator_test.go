package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type scriptedLLM struct {
	calls    int
	errs     []error
	text     string
	lastUser string
	lastSys  string
}

func (s *scriptedLLM) GenerateText(ctx context.Context, system string, user string) (string, error) {
	s.calls++
	s.lastSys = system
	s.lastUser = user
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return s.text, nil
}

type statusError int

func (e statusError) Error() string       { return fmt.Sprintf("upstream status %d", int(e)) }
func (e statusError) HTTPStatusCode() int { return int(e) }

func newTestGenerator(llm TextGenerator) *Generator {
	g := NewGenerator(logger.NewNop(), llm)
	g.RetryBase = time.Millisecond
	return g
}

func retrievedChunk(text string, score float64) RetrievedChunk {
	return RetrievedChunk{
		Chunk: &types.TextChunk{ID: uuid.New(), Text: text},
		Score: score,
	}
}

func TestGenerateGroundedAnswer(t *testing.T) {
	llm := &scriptedLLM{text: "There are 3 timber doors."}
	g := newTestGenerator(llm)

	chunks := []RetrievedChunk{
		retrievedChunk("door D-01: 900mm x 2100mm, material Timber, quantity 3", 0.82),
		retrievedChunk("window W-01: 1200mm x 1500mm, material Aluminium, quantity 2", 0.6),
	}

	got, err := g.Generate(context.Background(), "how many doors?", chunks, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Answer != "There are 3 timber doors." {
		t.Errorf("answer: got %q", got.Answer)
	}
	if got.Confidence != 0.82 {
		t.Errorf("confidence: want=0.82 got=%g", got.Confidence)
	}
	if got.ConfidenceBand != ConfidenceHigh {
		t.Errorf("band: want=%s got=%s", ConfidenceHigh, got.ConfidenceBand)
	}
	if len(got.SourceChunkIDs) != 2 {
		t.Errorf("source chunks: want=2 got=%d", len(got.SourceChunkIDs))
	}
	if !strings.Contains(llm.lastUser, "material Timber") {
		t.Errorf("chunk text missing from prompt:\n%s", llm.lastUser)
	}
	if strings.Contains(llm.lastUser, "does not clearly answer") {
		t.Errorf("grounded prompt carries the weak-grounding notice")
	}
}

func TestGenerateConfidenceBands(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.9, ConfidenceHigh},
		{0.75, ConfidenceHigh},
		{0.5, ConfidenceMedium},
		{0.35, ConfidenceMedium},
		{0.2, ConfidenceLow},
	}
	for _, tc := range cases {
		g := newTestGenerator(&scriptedLLM{text: "ok"})
		got, err := g.Generate(context.Background(), "q", []RetrievedChunk{retrievedChunk("ctx", tc.score)}, nil)
		if err != nil {
			t.Fatalf("score %g: %v", tc.score, err)
		}
		if got.ConfidenceBand != tc.want {
			t.Errorf("score %g: band want=%s got=%s", tc.score, tc.want, got.ConfidenceBand)
		}
	}
}

func TestGenerateUngroundedAddsNotice(t *testing.T) {
	llm := &scriptedLLM{text: "The document does not say."}
	g := newTestGenerator(llm)

	got, err := g.Generate(context.Background(), "what color is the roof?", []RetrievedChunk{retrievedChunk("unrelated text", 0.1)}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.ConfidenceBand != ConfidenceLow {
		t.Errorf("band: want=%s got=%s", ConfidenceLow, got.ConfidenceBand)
	}
	if !strings.Contains(llm.lastUser, "does not clearly answer") {
		t.Errorf("weak-grounding notice missing:\n%s", llm.lastUser)
	}
}

func TestGenerateNoChunksStillAnswers(t *testing.T) {
	llm := &scriptedLLM{text: "No matching content was found."}
	g := newTestGenerator(llm)

	got, err := g.Generate(context.Background(), "q", nil, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Confidence != 0 || got.ConfidenceBand != ConfidenceLow {
		t.Errorf("empty retrieval: confidence=%g band=%s", got.Confidence, got.ConfidenceBand)
	}
	if !strings.Contains(llm.lastUser, "(none retrieved)") {
		t.Errorf("empty-context marker missing:\n%s", llm.lastUser)
	}
}

func TestGenerateIncludesHistory(t *testing.T) {
	llm := &scriptedLLM{text: "ok"}
	g := newTestGenerator(llm)

	history := []types.ChatTurn{{Query: "how many doors?", Answer: "Three."}}
	if _, err := g.Generate(context.Background(), "and windows?", []RetrievedChunk{retrievedChunk("ctx", 0.8)}, history); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(llm.lastUser, "Human: how many doors?") {
		t.Errorf("history question missing:\n%s", llm.lastUser)
	}
	if !strings.Contains(llm.lastUser, "Assistant: Three.") {
		t.Errorf("history answer missing:\n%s", llm.lastUser)
	}
}

func TestGenerateContextBudgetDropsLowestFirst(t *testing.T) {
	llm := &scriptedLLM{text: "ok"}
	g := newTestGenerator(llm)
	g.ContextCharBudget = 30

	chunks := []RetrievedChunk{
		retrievedChunk("best chunk stays", 0.9),
		retrievedChunk("second chunk is dropped for budget", 0.5),
	}
	got, err := g.Generate(context.Background(), "q", chunks, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got.SourceChunkIDs) != 1 {
		t.Fatalf("included chunks: want=1 got=%d", len(got.SourceChunkIDs))
	}
	if got.SourceChunkIDs[0] != chunks[0].Chunk.ID.String() {
		t.Errorf("kept the wrong chunk")
	}
	if strings.Contains(llm.lastUser, "second chunk") {
		t.Errorf("dropped chunk still in prompt:\n%s", llm.lastUser)
	}
}

func TestGenerateRetriesRetryableThenSucceeds(t *testing.T) {
	llm := &scriptedLLM{
		errs: []error{statusError(503), statusError(429), nil},
		text: "recovered",
	}
	g := newTestGenerator(llm)

	got, err := g.Generate(context.Background(), "q", []RetrievedChunk{retrievedChunk("ctx", 0.8)}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Answer != "recovered" {
		t.Errorf("answer: got %q", got.Answer)
	}
	if llm.calls != 3 {
		t.Errorf("calls: want=3 got=%d", llm.calls)
	}
}

func TestGenerateFailsFastOnNonRetryable(t *testing.T) {
	llm := &scriptedLLM{errs: []error{errors.New("bad request"), nil}, text: "never"}
	g := newTestGenerator(llm)

	_, err := g.Generate(context.Background(), "q", []RetrievedChunk{retrievedChunk("ctx", 0.8)}, nil)
	var gErr *GenerationError
	if !errors.As(err, &gErr) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}
	if llm.calls != 1 {
		t.Errorf("non-retryable error was retried: calls=%d", llm.calls)
	}
}

func TestGenerateExhaustedRetriesIsGenerationError(t *testing.T) {
	llm := &scriptedLLM{
		errs: []error{statusError(503), statusError(503), statusError(503), statusError(503), statusError(503)},
	}
	g := newTestGenerator(llm)
	g.Retries = 2

	_, err := g.Generate(context.Background(), "q", []RetrievedChunk{retrievedChunk("ctx", 0.8)}, nil)
	var gErr *GenerationError
	if !errors.As(err, &gErr) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}
	if llm.calls != 3 {
		t.Errorf("calls: want=3 got=%d", llm.calls)
	}
}
