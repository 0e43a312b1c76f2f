// Package apierr carries the status and machine-readable code a service
// failure should surface with at the HTTP boundary.
package apierr

import "fmt"

// Codes for this API's failure classes. Handlers put them in the error
// envelope so clients can branch without parsing messages.
const (
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeRetrievalFailed  = "retrieval_failed"
	CodeGenerationFailed = "generation_failed"
	CodeInternal         = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatusCode satisfies the retry classifier's status interface, so a
// surfaced Error keeps its retryability.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
