package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeSession represents session lookup/lifecycle errors
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeIngest represents page fetch/parse errors
	ErrorTypeIngest ErrorType = "ingest"
	// ErrorTypeLLM represents LLM request errors
	ErrorTypeLLM ErrorType = "llm"
	// ErrorTypeArchive represents Neo4j archive errors
	ErrorTypeArchive ErrorType = "archive"
	// ErrorTypeValidation represents malformed caller input
	ErrorTypeValidation ErrorType = "validation"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Base lets typed errors that embed *BaseError be matched by category
func (e *BaseError) Base() *BaseError {
	return e
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Session Errors

// ErrSessionNotFound is returned when a session id is unknown or expired
type ErrSessionNotFound struct {
	*BaseError
	SessionID string
}

func NewSessionNotFound(sessionID string) *ErrSessionNotFound {
	return &ErrSessionNotFound{
		BaseError: NewBaseError(ErrorTypeSession, fmt.Sprintf("session not found: %s", sessionID), nil),
		SessionID: sessionID,
	}
}

// Ingest Errors

// ErrFetchFailed is returned when a page cannot be retrieved
type ErrFetchFailed struct {
	*BaseError
	URL        string
	StatusCode int
}

func NewFetchFailed(url string, statusCode int, err error) *ErrFetchFailed {
	msg := fmt.Sprintf("failed to fetch %s", url)
	if statusCode != 0 {
		msg = fmt.Sprintf("failed to fetch %s: status %d", url, statusCode)
	}
	return &ErrFetchFailed{
		BaseError:  NewBaseError(ErrorTypeIngest, msg, err),
		URL:        url,
		StatusCode: statusCode,
	}
}

// ErrParseFailed is returned when page content cannot be parsed
type ErrParseFailed struct {
	*BaseError
	URL string
}

func NewParseFailed(url string, err error) *ErrParseFailed {
	return &ErrParseFailed{
		BaseError: NewBaseError(ErrorTypeIngest, fmt.Sprintf("failed to parse %s", url), err),
		URL:       url,
	}
}

// LLM Errors

// ErrLLMFailed is returned when an LLM request fails. StatusCode is the
// HTTP status of the last attempt, or 0 when no response was received.
type ErrLLMFailed struct {
	*BaseError
	Model      string
	Attempts   int
	StatusCode int
}

func NewLLMFailed(model string, attempts, statusCode int, err error) *ErrLLMFailed {
	return &ErrLLMFailed{
		BaseError:  NewBaseError(ErrorTypeLLM, fmt.Sprintf("LLM request failed after %d attempts", attempts), err),
		Model:      model,
		Attempts:   attempts,
		StatusCode: statusCode,
	}
}

// ErrLLMDisabled is returned when an operation needs an LLM and none is
// configured
var ErrLLMDisabled = NewBaseError(ErrorTypeLLM, "LLM not configured", nil)

// Archive Errors

// ErrArchiveFailed is returned when a session graph cannot be written to Neo4j
type ErrArchiveFailed struct {
	*BaseError
	SessionID string
}

func NewArchiveFailed(sessionID string, err error) *ErrArchiveFailed {
	return &ErrArchiveFailed{
		BaseError: NewBaseError(ErrorTypeArchive, fmt.Sprintf("failed to archive session: %s", sessionID), err),
		SessionID: sessionID,
	}
}

// Validation Errors

// ErrInvalidInput is returned when a request field is missing or malformed
type ErrInvalidInput struct {
	*BaseError
	Field  string
	Reason string
}

func NewInvalidInput(field, reason string) *ErrInvalidInput {
	return &ErrInvalidInput{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if b, ok := err.(interface{ Base() *BaseError }); ok {
			return b.Base().Type == errType
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error is worth retrying. Transport failures,
// 5xx and 429 responses are; other 4xx responses are not.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrLLMDisabled) {
		return false
	}
	var fetchErr *ErrFetchFailed
	if errors.As(err, &fetchErr) {
		return retryableStatus(fetchErr.StatusCode)
	}
	var llmErr *ErrLLMFailed
	if errors.As(err, &llmErr) {
		return retryableStatus(llmErr.StatusCode)
	}
	return IsErrorType(err, ErrorTypeArchive)
}

func retryableStatus(code int) bool {
	return code == 0 || code >= 500 || code == 429
}
