package settings_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"lectura/internal/settings"
)

func TestPostgresRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := settings.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "search_alpha", "search_top_k", "max_chunk_length", "max_segment_seconds", "embed_batch_size"}).
			AddRow(1, 0.5, 10, 500, 30.0, 16)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, search_alpha, search_top_k, max_chunk_length, max_segment_seconds, embed_batch_size FROM settings WHERE id = 1")).
			WillReturnRows(rows)

		s, err := repo.Get(context.Background())
		assert.NoError(t, err)
		assert.NotNil(t, s)
		assert.Equal(t, float32(0.5), s.SearchAlpha)
		assert.Equal(t, 10, s.SearchTopK)
		assert.Equal(t, 500, s.MaxChunkLength)
		assert.Equal(t, float64(30), s.MaxSegmentSeconds)
		assert.Equal(t, 16, s.EmbedBatchSize)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
			WillReturnError(sqlmock.ErrCancelled)

		s, err := repo.Get(context.Background())
		assert.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestPostgresRepo_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := settings.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		s := &settings.Settings{
			SearchAlpha:       0.7,
			SearchTopK:        20,
			MaxChunkLength:    800,
			MaxSegmentSeconds: 45,
			EmbedBatchSize:    32,
		}

		mock.ExpectExec(regexp.QuoteMeta("UPDATE settings")).
			WithArgs(s.SearchAlpha, s.SearchTopK, s.MaxChunkLength, s.MaxSegmentSeconds, s.EmbedBatchSize).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Update(context.Background(), s)
		assert.NoError(t, err)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE settings")).
			WillReturnError(sqlmock.ErrCancelled)

		err := repo.Update(context.Background(), &settings.Settings{})
		assert.Error(t, err)
	})
}
