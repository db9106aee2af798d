package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"
	"lectura/internal/content"
	"lectura/internal/middleware"
	"lectura/internal/pipeline"
)

// runTimeout bounds a whole indexing run, download through upsert.
const runTimeout = 15 * time.Minute

type IndexConsumer struct {
	indexer Indexer
	runs    RunRecorder
	reports ReportStore
}

// NewIndexConsumer wires the indexing pipeline behind the index.request
// topic. reports may be nil, in which case no run artifacts are archived.
func NewIndexConsumer(indexer Indexer, runs RunRecorder, reports ReportStore) *IndexConsumer {
	return &IndexConsumer{
		indexer: indexer,
		runs:    runs,
		reports: reports,
	}
}

func (h *IndexConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload IndexRequestPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	if len(payload.Paths) == 0 {
		slog.WarnContext(ctx, "index request with no paths, dropping")
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	run, err := h.runs.Start(runCtx, payload.Paths, payload.CreateNew, payload.Reindex)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record run start", "error", err)
		return err // Retry
	}

	report, runErr := h.index(runCtx, payload)

	if err := h.runs.Complete(runCtx, run, report, runErr); err != nil {
		slog.ErrorContext(ctx, "failed to record run completion", "run_id", run.ID, "error", err)
	}

	if runErr != nil {
		if errors.Is(runErr, content.ErrEmptyResult) {
			// Nothing to index is terminal, requeueing would reproduce it.
			slog.WarnContext(ctx, "run produced no chunks, dropping", "run_id", run.ID, "error", runErr)
			return nil
		}
		slog.ErrorContext(ctx, "indexing run failed", "run_id", run.ID, "error", runErr)
		return runErr // Retry
	}

	h.archiveReport(runCtx, run.ID, report)

	slog.InfoContext(ctx, "indexing run completed",
		"run_id", run.ID,
		"paths", len(payload.Paths),
		"chunks_indexed", report.ChunksIndexed,
		"chunks_failed", report.ChunksFailed,
		"skipped_files", report.SkippedFiles,
	)
	return nil
}

// archiveReport writes the full per-file report to the bucket. The database
// row only keeps the counters, so this is where the detail survives.
func (h *IndexConsumer) archiveReport(ctx context.Context, runID string, report *pipeline.Report) {
	if h.reports == nil || report == nil {
		return
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal run report", "run_id", runID, "error", err)
		return
	}
	path := "reports/" + runID + ".json"
	if err := h.reports.PutBytes(ctx, path, data, "application/json"); err != nil {
		slog.WarnContext(ctx, "failed to archive run report", "run_id", runID, "path", path, "error", err)
	}
}

func (h *IndexConsumer) index(ctx context.Context, payload IndexRequestPayload) (*pipeline.Report, error) {
	if payload.Reindex {
		return h.indexer.Reindex(ctx, payload.Paths)
	}
	return h.indexer.IndexPaths(ctx, payload.Paths, payload.CreateNew)
}
