package worker

import (
	"context"

	"lectura/features/runs"
	"lectura/internal/pipeline"
)

type Indexer interface {
	IndexPaths(ctx context.Context, paths []string, createNew bool) (*pipeline.Report, error)
	Reindex(ctx context.Context, paths []string) (*pipeline.Report, error)
}

type RunRecorder interface {
	Start(ctx context.Context, paths []string, createNew, reindex bool) (*runs.Run, error)
	Complete(ctx context.Context, run *runs.Run, report *pipeline.Report, runErr error) error
}

// ReportStore archives run reports next to the source content.
type ReportStore interface {
	PutBytes(ctx context.Context, path string, data []byte, contentType string) error
}
