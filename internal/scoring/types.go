// Package scoring defines the request, response and Kafka event types of
// the scoring service, and the Service that turns text into reports.
package scoring

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
)

// Format names how a body of text is split into chunks.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Valid reports whether f is empty or a known format.
func (f Format) Valid() bool {
	return f == "" || f == FormatText || f == FormatMarkdown
}

// OrDefault returns FormatText for the empty format.
func (f Format) OrDefault() Format {
	if f == "" {
		return FormatText
	}
	return f
}

// ScoreRequest is the body of POST /api/v1/score.
type ScoreRequest struct {
	Text   string `json:"text"`
	Format Format `json:"format,omitempty"`
}

// ChunksRequest is the body of POST /api/v1/score/chunks. Every chunk is
// plain text and all of them are scored as one document.
type ChunksRequest struct {
	Chunks []string `json:"chunks"`
}

// ScoreResponse is a report plus how it was produced.
type ScoreResponse struct {
	readability.Report
	Chunks int  `json:"chunks"`
	Cached bool `json:"cached"`
}

// SyllablesResponse is returned by GET /api/v1/syllables.
type SyllablesResponse struct {
	Word      string `json:"word"`
	Syllables int    `json:"syllables"`
}

// DocumentRequest is the body of POST /api/v1/documents.
type DocumentRequest struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	Format         Format `json:"format,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// DocumentStatus tracks a submitted document through the worker.
type DocumentStatus string

const (
	StatusPending DocumentStatus = "PENDING"
	StatusScored  DocumentStatus = "SCORED"
	StatusFailed  DocumentStatus = "FAILED"
)

// SubmitResponse is returned after a document is accepted.
type SubmitResponse struct {
	DocumentID string         `json:"document_id"`
	Status     DocumentStatus `json:"status"`
}

// Document is the stored state of a submitted document.
type Document struct {
	ID          string              `json:"document_id"`
	Title       string              `json:"title"`
	Format      Format              `json:"format"`
	ContentHash string              `json:"content_hash"`
	ContentSize int                 `json:"content_size"`
	Status      DocumentStatus      `json:"status"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	ScoredAt    *time.Time          `json:"scored_at,omitempty"`
	Report      *readability.Report `json:"report,omitempty"`
}

// DocumentEvent is published to the document-submitted topic.
type DocumentEvent struct {
	DocumentID  string    `json:"document_id"`
	Title       string    `json:"title"`
	Format      Format    `json:"format"`
	Body        string    `json:"body"`
	SubmittedAt time.Time `json:"submitted_at"`
}
