package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractJob is one recorded pipeline run, as stored in the extract_job table.
type ExtractJob struct {
	ID           uuid.UUID       `json:"id"`
	FilePath     string          `json:"file_path"`
	FileType     string          `json:"file_type"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Method       *string         `json:"method,omitempty"`
	EngineUsed   *string         `json:"engine_used,omitempty"`
	Confidence   *float64        `json:"confidence,omitempty"`
	WordCount    int             `json:"word_count"`
	MetricsCount int             `json:"metrics_count"`
	NotesCount   int             `json:"notes_count"`
	NeedsReview  bool            `json:"needs_review"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	ResultJSON   json.RawMessage `json:"result_json,omitempty"`
}

// ExtractJobOutcome is what a finished run reports back to the ledger.
type ExtractJobOutcome struct {
	Success      bool
	Method       string
	EngineUsed   string
	Confidence   *float64
	WordCount    int
	MetricsCount int
	NotesCount   int
	NeedsReview  bool
	ErrorMessage string
	ResultJSON   json.RawMessage
}
