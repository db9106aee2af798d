package retrieval

import (
	"context"
	"time"

	"lectura/internal/content"
	"lectura/internal/settings"
)

// SearchResult is one hybrid-search hit, flattened from the unified index
// schema. Type-specific fields are empty for the other content shape.
type SearchResult struct {
	Text         string  `json:"text"`
	Score        float32 `json:"score"`
	ContentType  string  `json:"content_type"`
	SourceID     string  `json:"source_id"`
	ChunkIndex   int     `json:"chunk_index"`
	StartTime    string  `json:"start_time,omitempty"`
	EndTime      string  `json:"end_time,omitempty"`
	SectionTitle string  `json:"section_title,omitempty"`
	Keywords     string  `json:"keywords,omitempty"`
	Topics       string  `json:"topics,omitempty"`
	SourceURL    string  `json:"source_url,omitempty"`
}

// SearchOptions override the stored defaults per request.
type SearchOptions struct {
	Alpha       *float32
	Limit       *int
	ContentType content.Type
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, query string, vector []float32, alpha float32, limit int, contentType content.Type) ([]SearchResult, error)
}

type SettingsService interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type Service struct {
	embedder Embedder
	store    VectorStore
	settings SettingsService
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, set SettingsService, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, settings: set, logger: l}
}

// Search embeds the query and runs a hybrid (BM25 + vector) search over the
// unified index, optionally restricted to one content type.
func (s *Service) Search(ctx context.Context, query string, opts *SearchOptions) ([]SearchResult, error) {
	start := time.Now()
	var results []SearchResult
	var err error

	defer func() {
		if s.logger != nil && err == nil {
			contentType := ""
			if opts != nil {
				contentType = string(opts.ContentType)
			}
			s.logger.Log(ctx, query, contentType, len(results), time.Since(start))
		}
	}()

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		cfg = &settings.Settings{SearchAlpha: 0.5, SearchTopK: 10}
		err = nil
	}

	alpha := cfg.SearchAlpha
	limit := cfg.SearchTopK
	var contentType content.Type
	if opts != nil {
		if opts.Alpha != nil {
			alpha = *opts.Alpha
		}
		if opts.Limit != nil {
			limit = *opts.Limit
		}
		contentType = opts.ContentType
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err = s.store.Search(ctx, query, vec, alpha, limit, contentType)
	if err != nil {
		return nil, err
	}
	return results, nil
}
