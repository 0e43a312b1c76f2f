package ingestion

import "fmt"

// ValidationError rejects a document before processing starts: bad magic
// bytes, oversize files, too many pages. It is distinct from extraction
// failure and maps to a 4xx at the API surface.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// IndexingError is a batch write failure that survived batch- and per-chunk
// retries. It fails the whole document ingestion.
type IndexingError struct {
	DocumentID string
	Cause      error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing failed for document %s: %v", e.DocumentID, e.Cause)
}

func (e *IndexingError) Unwrap() error { return e.Cause }
