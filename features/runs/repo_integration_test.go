package runs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lectura/features/runs"
	"lectura/internal/testutils"
)

func TestRunsRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := runs.NewPostgresRepo(s.DB)
	ctx := context.Background()

	// 1. Create a run and confirm the database fills in id and started_at.
	r1 := &runs.Run{
		Status:    runs.StatusRunning,
		Paths:     []string{"videos_md/intro.md", "docs_md/notes.md"},
		CreateNew: true,
	}
	err := repo.Create(ctx, r1)
	require.NoError(t, err)
	require.NotEmpty(t, r1.ID)
	require.False(t, r1.StartedAt.IsZero())

	// Sleep to ensure time difference for ordering test
	time.Sleep(100 * time.Millisecond)

	r2 := &runs.Run{Status: runs.StatusRunning, Paths: []string{"docs_md/other.md"}, Reindex: true}
	err = repo.Create(ctx, r2)
	require.NoError(t, err)

	// 2. Finish the first run with results.
	r1.Status = runs.StatusCompleted
	r1.ProcessedVideos = 1
	r1.ProcessedDocuments = 1
	r1.ChunksIndexed = 18
	err = repo.Finish(ctx, r1)
	require.NoError(t, err)
	require.NotNil(t, r1.FinishedAt)

	// 3. List is ordered newest-first.
	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, r2.ID, list[0].ID, "Newest run should be first")
	assert.Equal(t, r1.ID, list[1].ID)
	assert.Equal(t, runs.StatusCompleted, list[1].Status)
	assert.Equal(t, 18, list[1].ChunksIndexed)

	// 4. Get round-trips paths and flags.
	got, err := repo.Get(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs_md/other.md"}, got.Paths)
	assert.True(t, got.Reindex)
	assert.Nil(t, got.FinishedAt)

	// 5. Failed runs keep their error message.
	r2.Status = runs.StatusFailed
	r2.Error = "no indexable content"
	err = repo.Finish(ctx, r2)
	require.NoError(t, err)

	got, err = repo.Get(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, runs.StatusFailed, got.Status)
	assert.Equal(t, "no indexable content", got.Error)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
