package runs

import (
	"time"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one indexing run: the paths it covered and what came out.
type Run struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	Paths              []string   `json:"paths"`
	CreateNew          bool       `json:"create_new"`
	Reindex            bool       `json:"reindex"`
	ProcessedVideos    int        `json:"processed_videos"`
	ProcessedDocuments int        `json:"processed_documents"`
	SkippedFiles       int        `json:"skipped_files"`
	ChunksIndexed      int        `json:"chunks_indexed"`
	ChunksFailed       int        `json:"chunks_failed"`
	Error              string     `json:"error,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
}
