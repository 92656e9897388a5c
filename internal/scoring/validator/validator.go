// Package validator checks scoring requests against the configured limits
// and reports every failing field at once.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
	"golang.org/x/text/unicode/norm"
)

const (
	maxTitleLength          = 1024
	maxIdempotencyKeyLength = 255
	maxWordLength           = 256
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// Validator applies the limits from a ScoringConfig.
type Validator struct {
	maxBodyLength int
	maxChunks     int
}

func New(cfg config.ScoringConfig) *Validator {
	return &Validator{maxBodyLength: cfg.MaxBodyLength, maxChunks: cfg.MaxChunks}
}

// Score validates a POST /api/v1/score body. Empty text is allowed here;
// scoring it yields a no-words error instead.
func (v *Validator) Score(req *scoring.ScoreRequest) error {
	errs := make(map[string]string)
	v.checkText(errs, "text", req.Text)
	checkFormat(errs, req.Format)
	return result(errs)
}

// Chunks validates a POST /api/v1/score/chunks body.
func (v *Validator) Chunks(req *scoring.ChunksRequest) error {
	errs := make(map[string]string)
	switch {
	case req.Chunks == nil:
		errs["chunks"] = "chunks is required"
	case len(req.Chunks) > v.maxChunks:
		errs["chunks"] = fmt.Sprintf("at most %d chunks are allowed", v.maxChunks)
	default:
		total := 0
		for i, c := range req.Chunks {
			if !utf8.ValidString(c) {
				errs[fmt.Sprintf("chunks[%d]", i)] = "must be valid UTF-8"
			}
			total += len(c)
		}
		if total > v.maxBodyLength {
			errs["chunks"] = fmt.Sprintf("combined chunks must be at most %d bytes", v.maxBodyLength)
		}
	}
	return result(errs)
}

// Document validates a POST /api/v1/documents body.
func (v *Validator) Document(req *scoring.DocumentRequest) error {
	errs := make(map[string]string)
	if len(req.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d bytes", maxTitleLength)
	}
	if strings.TrimSpace(req.Body) == "" {
		errs["body"] = "body is required and must not be empty"
	} else {
		v.checkText(errs, "body", req.Body)
	}
	checkFormat(errs, req.Format)
	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		errs["idempotency_key"] = fmt.Sprintf("idempotency key must be at most %d characters", maxIdempotencyKeyLength)
	}
	return result(errs)
}

// Word validates the word parameter of GET /api/v1/syllables. words is
// the tokenizer's split of the parameter, which must be exactly one word
// covering the whole parameter, either as sent or after NFC composition.
func (v *Validator) Word(word string, words []string) error {
	errs := make(map[string]string)
	switch {
	case word == "":
		errs["word"] = "word is required"
	case len(word) > maxWordLength:
		errs["word"] = fmt.Sprintf("word must be at most %d bytes", maxWordLength)
	case len(words) != 1 || !sameWord(words[0], strings.TrimSpace(word)):
		errs["word"] = "must be exactly one word of letters"
	}
	return result(errs)
}

func sameWord(token, word string) bool {
	return token == word || token == norm.NFC.String(word)
}

func (v *Validator) checkText(errs map[string]string, field, text string) {
	if len(text) > v.maxBodyLength {
		errs[field] = fmt.Sprintf("%s must be at most %d bytes", field, v.maxBodyLength)
	} else if !utf8.ValidString(text) {
		errs[field] = "must be valid UTF-8"
	}
}

func checkFormat(errs map[string]string, f scoring.Format) {
	if !f.Valid() {
		errs["format"] = fmt.Sprintf("unknown format %q, want %q or %q", f, scoring.FormatText, scoring.FormatMarkdown)
	}
}

func result(errs map[string]string) error {
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
