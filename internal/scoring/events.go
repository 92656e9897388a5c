package scoring

import (
	"errors"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
)

// NewEvent describes the outcome of Service.Score for analytics. err is
// the error Score returned, if any.
func NewEvent(source Source, documentID, requestID string, res Result, err error) analytics.ScoreEvent {
	ev := analytics.ScoreEvent{
		Type:       analytics.EventScored,
		Source:     string(source),
		DocumentID: documentID,
		Chunks:     res.Chunks,
		CacheHit:   res.Cached,
		LatencyMs:  res.Elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
		RequestID:  requestID,
	}
	switch {
	case errors.Is(err, readability.ErrNoWords):
		ev.Type = analytics.EventNotScorable
	case err != nil:
		ev.Type = analytics.EventFailed
	default:
		r := res.Report
		ev.Words = r.Words
		ev.Syllables = r.Syllables
		ev.Sentences = r.Sentences
		ev.ReadingEase = float64(r.ReadingEase)
		ev.GradeLevel = float64(r.GradeLevel)
		ev.Band = r.ReadingEaseLabel
	}
	return ev
}
