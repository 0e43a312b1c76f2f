package rag

import "fmt"

// RetrievalError means the retrieval path itself failed (embedding provider
// or vector index unreachable). It propagates to the caller instead of
// degrading into silent empty results.
type RetrievalError struct {
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Cause)
}

func (e *RetrievalError) Unwrap() error { return e.Cause }

// GenerationError means the LLM provider kept failing after bounded retries.
// It is distinct from a low-confidence answer: the caller gets a typed
// failure, never a fabricated or empty response.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }
