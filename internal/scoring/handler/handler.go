// Package handler serves the scoring HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/cache"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/tracing"
)

// Submitter accepts documents for asynchronous scoring.
type Submitter interface {
	Submit(ctx context.Context, req *scoring.DocumentRequest) (*scoring.SubmitResponse, error)
}

// DocumentReader loads stored documents.
type DocumentReader interface {
	Get(ctx context.Context, id string) (*scoring.Document, error)
}

// CacheAdmin reports on and clears the score cache.
type CacheAdmin interface {
	Stats(ctx context.Context) cache.Stats
	Invalidate(ctx context.Context) (int64, error)
}

// Deps are the handler's collaborators. Only Service and Validator are
// required; endpoints whose dependency is nil answer 503.
type Deps struct {
	Service   *scoring.Service
	Validator *validator.Validator
	Cache     CacheAdmin
	Submitter Submitter
	Documents DocumentReader
	Tracker   analytics.Tracker
	Tracer    *tracing.Tracer
	Metrics   *metrics.Metrics
	MaxBody   int64
}

type Handler struct {
	Deps
	logger *slog.Logger
}

func New(d Deps) *Handler {
	if d.MaxBody <= 0 {
		d.MaxBody = 1 << 20
	}
	return &Handler{
		Deps:   d,
		logger: slog.Default().With("component", "scoring-handler"),
	}
}

// Score serves POST /api/v1/score.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	var req scoring.ScoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Validator.Score(&req); err != nil {
		h.writeValidation(w, err)
		return
	}
	format := req.Format.OrDefault()
	h.score(w, r, scoring.SourceText, format, h.Service.Chunks(req.Text, format))
}

// ScoreChunks serves POST /api/v1/score/chunks.
func (h *Handler) ScoreChunks(w http.ResponseWriter, r *http.Request) {
	var req scoring.ChunksRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Validator.Chunks(&req); err != nil {
		h.writeValidation(w, err)
		return
	}
	h.score(w, r, scoring.SourceChunks, scoring.FormatText, req.Chunks)
}

func (h *Handler) score(w http.ResponseWriter, r *http.Request, source scoring.Source, format scoring.Format, chunks []string) {
	ctx, span := tracing.StartSpan(r.Context(), "http.score", middleware.GetRequestID(r.Context()))
	defer h.Tracer.Finish(span)
	log := logger.FromContext(ctx)

	res, err := h.Service.Score(ctx, source, format, chunks)
	if h.Tracker != nil {
		h.Tracker.Track(scoring.NewEvent(source, "", middleware.GetRequestID(ctx), res, err))
	}
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			log.Error("scoring failed", "source", source, "error", err)
		}
		h.writeAppError(w, status, err, err.Error())
		return
	}

	log.Info("text scored",
		"source", source,
		"chunks", res.Chunks,
		"words", res.Report.Words,
		"reading_ease", res.Report.ReadingEase,
		"grade_level", res.Report.GradeLevel,
		"cached", res.Cached,
		"latency_ms", res.Elapsed.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, scoring.ScoreResponse{
		Report: res.Report,
		Chunks: res.Chunks,
		Cached: res.Cached,
	})
}

// Syllables serves GET /api/v1/syllables?word=.
func (h *Handler) Syllables(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	engine := h.Service.Engine()
	if err := h.Validator.Word(word, engine.Words(word)); err != nil {
		h.writeValidation(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scoring.SyllablesResponse{
		Word:      word,
		Syllables: engine.SyllablesInWord(word),
	})
}

// SubmitDocument serves POST /api/v1/documents.
func (h *Handler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	if h.Submitter == nil {
		h.writeError(w, http.StatusServiceUnavailable, "document storage is disabled")
		return
	}
	var req scoring.DocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Validator.Document(&req); err != nil {
		h.writeValidation(w, err)
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)
	resp, err := h.Submitter.Submit(ctx, &req)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("document submission failed", "error", err, "status_code", status)
		h.writeAppError(w, status, err, "document submission failed")
		return
	}
	if h.Metrics != nil {
		h.Metrics.DocumentsSubmittedTotal.Inc()
	}
	log.Info("document submitted", "doc_id", resp.DocumentID, "status", resp.Status)
	h.writeJSON(w, http.StatusAccepted, resp)
}

// GetDocument serves GET /api/v1/documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if h.Documents == nil {
		h.writeError(w, http.StatusServiceUnavailable, "document storage is disabled")
		return
	}
	doc, err := h.Documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("loading document failed", "error", err)
			h.writeAppError(w, status, err, "loading document failed")
			return
		}
		h.writeAppError(w, status, err, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// CacheStats serves GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.Cache.Stats(r.Context()))
}

// CacheInvalidate serves POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.Cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// decode reads a JSON body into dst, answering 400 or 413 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError adds the machine-readable code of err to the body.
func (h *Handler) writeAppError(w http.ResponseWriter, status int, err error, message string) {
	h.writeJSON(w, status, map[string]string{"error": message, "code": apperrors.Code(err)})
}
