package rag

import (
	"strings"

	"github.com/yungbote/blueprint-backend/internal/types"
)

const systemPrompt = `You are a helpful assistant specialized in construction and architectural documents.
You help users understand door and window schedules, calculate areas, and provide cost estimates.
Give a direct, clear answer (2-3 sentences maximum).
Only use information from the provided context.
Be specific about doors, windows, measurements, and costs.
If you don't know the answer from the context, say so clearly.`

const ungroundedNotice = `None of the retrieved context is strongly relevant to this question.
Say explicitly that the document does not clearly answer it before offering any general guidance.`

// buildUserPrompt assembles the user message: prior turns, retrieved context,
// then the question. grounded=false appends the weak-grounding notice so the
// model never fakes sourced confidence.
func buildUserPrompt(query string, chunks []RetrievedChunk, history []types.ChatTurn, grounded bool) string {
	var b strings.Builder

	if len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, turn := range history {
			b.WriteString("Human: ")
			b.WriteString(turn.Query)
			b.WriteString("\nAssistant: ")
			b.WriteString(turn.Answer)
			b.WriteString("\n\n")
		}
	}

	if len(chunks) > 0 {
		b.WriteString("Context from document:\n")
		for _, rc := range chunks {
			b.WriteString(rc.Chunk.Text)
			b.WriteString("\n\n")
		}
	} else {
		b.WriteString("Context from document: (none retrieved)\n\n")
	}

	if !grounded {
		b.WriteString(ungroundedNotice)
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
