package settings

import (
	"context"
)

// Settings are the runtime tunables of chunking, embedding, and search.
// Stored as a single row; the id column is fixed at 1.
type Settings struct {
	ID                int     `json:"-"`
	SearchAlpha       float32 `json:"search_alpha"`
	SearchTopK        int     `json:"search_top_k"`
	MaxChunkLength    int     `json:"max_chunk_length"`
	MaxSegmentSeconds float64 `json:"max_segment_seconds"`
	EmbedBatchSize    int     `json:"embed_batch_size"`
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, set *Settings) error {
	return s.repo.Update(ctx, set)
}
