package runs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lectura/features/runs"
	"lectura/internal/pipeline"
)

type fakeRepo struct {
	runs      map[string]*runs.Run
	createErr error
	finishErr error
	finished  *runs.Run
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{runs: map[string]*runs.Run{}}
}

func (f *fakeRepo) Create(ctx context.Context, run *runs.Run) error {
	if f.createErr != nil {
		return f.createErr
	}
	run.ID = "run-1"
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRepo) Finish(ctx context.Context, run *runs.Run) error {
	f.finished = run
	return f.finishErr
}

func (f *fakeRepo) List(ctx context.Context, limit int) ([]runs.Run, error) {
	var out []runs.Run
	for _, r := range f.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*runs.Run, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (f *fakeRepo) Count(ctx context.Context) (int, error) {
	return len(f.runs), nil
}

func TestService_Start(t *testing.T) {
	repo := newFakeRepo()
	svc := runs.NewService(repo)

	run, err := svc.Start(context.Background(), []string{"docs_md/a.md"}, true, false)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, runs.StatusRunning, run.Status)
	assert.True(t, run.CreateNew)

	t.Run("RepoFailure", func(t *testing.T) {
		repo := newFakeRepo()
		repo.createErr = errors.New("db down")
		svc := runs.NewService(repo)

		run, err := svc.Start(context.Background(), nil, false, false)
		assert.Error(t, err)
		assert.Nil(t, run)
	})
}

func TestService_Complete(t *testing.T) {
	t.Run("CopiesReportCounters", func(t *testing.T) {
		repo := newFakeRepo()
		svc := runs.NewService(repo)

		run := &runs.Run{ID: "run-1", Status: runs.StatusRunning}
		report := &pipeline.Report{
			ProcessedVideos:    2,
			ProcessedDocuments: 3,
			SkippedFiles:       1,
			ChunksIndexed:      40,
			ChunksFailed:       2,
		}
		err := svc.Complete(context.Background(), run, report, nil)
		require.NoError(t, err)
		assert.Equal(t, runs.StatusCompleted, run.Status)
		assert.Equal(t, 2, run.ProcessedVideos)
		assert.Equal(t, 3, run.ProcessedDocuments)
		assert.Equal(t, 40, run.ChunksIndexed)
		assert.Empty(t, run.Error)
	})

	t.Run("FailureKeepsPartialReport", func(t *testing.T) {
		repo := newFakeRepo()
		svc := runs.NewService(repo)

		run := &runs.Run{ID: "run-1", Status: runs.StatusRunning}
		report := &pipeline.Report{ChunksIndexed: 10, SkippedFiles: 2}
		err := svc.Complete(context.Background(), run, report, errors.New("no indexable content"))
		require.NoError(t, err)
		assert.Equal(t, runs.StatusFailed, run.Status)
		assert.Equal(t, "no indexable content", run.Error)
		assert.Equal(t, 10, run.ChunksIndexed)
	})

	t.Run("NilReport", func(t *testing.T) {
		repo := newFakeRepo()
		svc := runs.NewService(repo)

		run := &runs.Run{ID: "run-1", Status: runs.StatusRunning}
		err := svc.Complete(context.Background(), run, nil, errors.New("schema setup failed"))
		require.NoError(t, err)
		assert.Equal(t, runs.StatusFailed, run.Status)
		assert.Equal(t, 0, run.ChunksIndexed)
	})
}
