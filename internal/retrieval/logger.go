package retrieval

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lectura/internal/middleware"
)

// QueryLogEntry is one JSONL line of the search audit log.
type QueryLogEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Query         string    `json:"query"`
	ContentType   string    `json:"content_type,omitempty"`
	NumResults    int       `json:"num_results"`
	LatencyMs     int64     `json:"latency_ms"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// QueryLogger appends search queries as JSON lines. Safe for concurrent
// use; a failed write is logged and dropped, never surfaced to the caller.
type QueryLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewQueryLogger(w io.Writer) *QueryLogger {
	return &QueryLogger{w: w}
}

// NewFileQueryLogger appends to the given file, creating parent
// directories as needed, and mirrors entries to stdout.
func NewFileQueryLogger(path string) (*QueryLogger, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path comes from application config
	if err != nil {
		return nil, err
	}
	return NewQueryLogger(io.MultiWriter(os.Stdout, f)), nil
}

// Log records a completed search. The correlation id is taken from the
// context when the request carried one.
func (l *QueryLogger) Log(ctx context.Context, query, contentType string, numResults int, took time.Duration) {
	entry := QueryLogEntry{
		Timestamp:   time.Now().UTC(),
		Query:       query,
		ContentType: contentType,
		NumResults:  numResults,
		LatencyMs:   took.Milliseconds(),
	}
	if id, ok := middleware.CorrelationFromContext(ctx); ok {
		entry.CorrelationID = id
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewEncoder(l.w).Encode(entry); err != nil {
		slog.ErrorContext(ctx, "failed to write query log entry", "error", err)
	}
}
