package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors for dispatch operations.
var (
	ErrNoFile        = errors.New("no file selected")
	ErrNoReference   = errors.New("no link provided")
	ErrUnknownMode   = errors.New("unknown submission mode")
	ErrNoEndpoint    = errors.New("no endpoint configured for mode")
	ErrResponseLarge = errors.New("response body exceeds limit")
)

// User-facing prompts for local validation failures.
const (
	PromptFile = "Please select a video file!"
	PromptLink = "Please enter a YouTube link!"
)

// ValidationError reports missing or empty input. It is raised before any
// network call and carries the prompt shown to the user.
type ValidationError struct {
	Mode   Mode
	Prompt string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s submission: %v", e.Mode, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError reports a network failure or a non-success HTTP status.
// StatusCode is zero when no response was received.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("summarization service %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("summarization service %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not a JSON object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding service response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
