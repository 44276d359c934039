package client

import (
	"fmt"

	"github.com/webpuppy/webhound-go/internal/models"
)

// PreprocessingError is a server-side rejection of the query itself: a 400
// response with a structured body naming the blocked reasons. It is a
// different failure family from transport errors and maps to the same user
// messages as local validation blocking.
type PreprocessingError struct {
	Data models.PreprocessingErrorData
}

func (e *PreprocessingError) Error() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	return "query rejected by server-side preprocessing"
}

// RateLimitError carries the wait hint from a 429 retry-after header.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", e.RetryAfterSeconds)
}

// StatusError is any other non-2xx response, with the body text preserved so
// helpful backend messages bubble up to the user.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Status)
}
