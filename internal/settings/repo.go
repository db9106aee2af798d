package settings

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context) (*Settings, error) {
	s := &Settings{}
	query := `SELECT id, search_alpha, search_top_k, max_chunk_length, max_segment_seconds, embed_batch_size FROM settings WHERE id = 1`
	err := r.db.QueryRowContext(ctx, query).Scan(&s.ID, &s.SearchAlpha, &s.SearchTopK, &s.MaxChunkLength, &s.MaxSegmentSeconds, &s.EmbedBatchSize)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepo) Update(ctx context.Context, s *Settings) error {
	query := `
		UPDATE settings
		SET search_alpha = $1, search_top_k = $2, max_chunk_length = $3, max_segment_seconds = $4, embed_batch_size = $5, updated_at = NOW()
		WHERE id = 1
	`
	_, err := r.db.ExecContext(ctx, query, s.SearchAlpha, s.SearchTopK, s.MaxChunkLength, s.MaxSegmentSeconds, s.EmbedBatchSize)
	return err
}
