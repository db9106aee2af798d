package runs

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type Repository interface {
	Create(ctx context.Context, run *Run) error
	Finish(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (*Run, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, run *Run) error {
	query := `INSERT INTO runs (status, paths, create_new, reindex) VALUES ($1, $2, $3, $4) RETURNING id, started_at`
	return r.db.QueryRowContext(ctx, query, run.Status, pq.Array(run.Paths), run.CreateNew, run.Reindex).
		Scan(&run.ID, &run.StartedAt)
}

func (r *PostgresRepo) Finish(ctx context.Context, run *Run) error {
	query := `UPDATE runs
		SET status = $2, processed_videos = $3, processed_documents = $4, skipped_files = $5,
		    chunks_indexed = $6, chunks_failed = $7, error = $8, finished_at = NOW()
		WHERE id = $1
		RETURNING finished_at`
	var finished sql.NullTime
	err := r.db.QueryRowContext(ctx, query, run.ID, run.Status, run.ProcessedVideos, run.ProcessedDocuments,
		run.SkippedFiles, run.ChunksIndexed, run.ChunksFailed, run.Error).
		Scan(&finished)
	if err != nil {
		return err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, status, paths, create_new, reindex, processed_videos, processed_documents,
		skipped_files, chunks_indexed, chunks_failed, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Run, error) {
	query := `SELECT id, status, paths, create_new, reindex, processed_videos, processed_documents,
		skipped_files, chunks_indexed, chunks_failed, error, started_at, finished_at
		FROM runs WHERE id = $1`
	return scanRun(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var paths pq.StringArray
	var runErr sql.NullString
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.Status, &paths, &run.CreateNew, &run.Reindex,
		&run.ProcessedVideos, &run.ProcessedDocuments, &run.SkippedFiles,
		&run.ChunksIndexed, &run.ChunksFailed, &runErr, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	run.Paths = []string(paths)
	if runErr.Valid {
		run.Error = runErr.String
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}
