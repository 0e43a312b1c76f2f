package types

import "time"

// ChatTurn is one question/answer exchange in a session. Turns live in
// conversation memory (Redis or in-process), not in Postgres.
type ChatTurn struct {
	SessionID      string    `json:"session_id"`
	Query          string    `json:"query"`
	Answer         string    `json:"answer"`
	SourceChunkIDs []string  `json:"source_chunk_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
