package analytics

import "time"

type EventType string

const (
	EventScored      EventType = "scored"
	EventNotScorable EventType = "not_scorable"
	EventFailed      EventType = "failed"
)

// Snapshot is a stored copy of the aggregate.
type Snapshot struct {
	ID         int64           `json:"id"`
	CapturedAt time.Time       `json:"captured_at"`
	Stats      AggregatedStats `json:"stats"`
}

// ScoreEvent describes one scoring call or one worker-scored document.
type ScoreEvent struct {
	Type        EventType `json:"type"`
	Source      string    `json:"source"`
	DocumentID  string    `json:"document_id,omitempty"`
	Chunks      int       `json:"chunks"`
	Words       int       `json:"words"`
	Syllables   int       `json:"syllables"`
	Sentences   int       `json:"sentences"`
	ReadingEase float64   `json:"reading_ease"`
	GradeLevel  float64   `json:"grade_level"`
	Band        string    `json:"band,omitempty"`
	CacheHit    bool      `json:"cache_hit"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
}
