// Package errors defines the sentinel errors shared by the scoring services
// and maps any error chain to an HTTP status and a stable machine-readable
// code for JSON error bodies.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrIdempotencyConflict = errors.New("idempotency key already used")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrInternal            = errors.New("internal error")
	ErrTimeout             = errors.New("operation timed out")
	ErrUnavailable         = errors.New("dependency unavailable")

	// ErrNotScorable is returned for input that contains no words.
	ErrNotScorable = readability.ErrNoWords
)

// AppError pins an error to a response status and a client-facing
// message, overriding the sentinel mapping.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Err.Error() + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// kinds is checked in order; the first sentinel in the chain wins.
var kinds = []struct {
	target error
	status int
	code   string
}{
	{ErrDocumentNotFound, http.StatusNotFound, "not_found"},
	{ErrIdempotencyConflict, http.StatusConflict, "conflict"},
	{ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{ErrNotScorable, http.StatusUnprocessableEntity, "no_words"},
	{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{ErrTimeout, http.StatusServiceUnavailable, "timeout"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "timeout"},
	{context.Canceled, http.StatusServiceUnavailable, "cancelled"},
	{ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// HTTPStatusCode maps err to a response status. An AppError's own status
// wins over the sentinel mapping; unknown errors are 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable code for err, "internal" when no
// sentinel matches.
func Code(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.code
		}
	}
	return "internal"
}
