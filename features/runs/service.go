package runs

import (
	"context"

	"lectura/internal/pipeline"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Start records a run in the running state and returns it with its id set.
func (s *Service) Start(ctx context.Context, paths []string, createNew, reindex bool) (*Run, error) {
	run := &Run{
		Status:    StatusRunning,
		Paths:     paths,
		CreateNew: createNew,
		Reindex:   reindex,
	}
	if err := s.repo.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Complete closes the run with the pipeline report. A nil report (schema
// setup failed before any file ran) leaves the counters at zero.
func (s *Service) Complete(ctx context.Context, run *Run, report *pipeline.Report, runErr error) error {
	run.Status = StatusCompleted
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}
	if report != nil {
		run.ProcessedVideos = report.ProcessedVideos
		run.ProcessedDocuments = report.ProcessedDocuments
		run.SkippedFiles = report.SkippedFiles
		run.ChunksIndexed = report.ChunksIndexed
		run.ChunksFailed = report.ChunksFailed
	}
	return s.repo.Finish(ctx, run)
}

func (s *Service) List(ctx context.Context, limit int) ([]Run, error) {
	return s.repo.List(ctx, limit)
}

func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
