package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"lectura/internal/content"
	"lectura/internal/middleware"
	"lectura/internal/worker"
)

// signedURLTTL is how long download links handed to clients stay valid.
const signedURLTTL = 15 * time.Minute

// ChunkStore is the index surface the source inventory reads from. Sources
// have no database record: the index is the system of record.
type ChunkStore interface {
	ListSources(ctx context.Context, contentType content.Type) ([]content.SourceInfo, error)
	GetChunks(ctx context.Context, sourceID string, limit, offset int) ([]content.Chunk, error)
	CountBySource(ctx context.Context, sourceID string, contentType content.Type) (int, error)
}

// Deleter removes a source's chunks under the pipeline's source lock.
type Deleter interface {
	DeleteSource(ctx context.Context, sourceID string, contentType content.Type) (content.DeleteResult, error)
}

// ObjectStore resolves bucket paths and issues download links.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	chunks  ChunkStore
	deleter Deleter
	objects ObjectStore
	pub     EventPublisher
}

func NewService(chunks ChunkStore, deleter Deleter, objects ObjectStore, pub EventPublisher) *Service {
	return &Service{chunks: chunks, deleter: deleter, objects: objects, pub: pub}
}

// List returns the source inventory aggregated from the index.
func (s *Service) List(ctx context.Context, contentType content.Type) ([]content.SourceInfo, error) {
	return s.chunks.ListSources(ctx, contentType)
}

// ChunkView is the wire shape of a chunk, type-specific fields omitted when
// absent and the vector never exposed.
type ChunkView struct {
	ID           string       `json:"id"`
	ContentType  content.Type `json:"content_type"`
	SourceID     string       `json:"source_id"`
	ChunkIndex   int          `json:"chunk_index"`
	Text         string       `json:"text"`
	StartTime    string       `json:"start_time,omitempty"`
	EndTime      string       `json:"end_time,omitempty"`
	SectionTitle string       `json:"section_title,omitempty"`
	Keywords     string       `json:"keywords,omitempty"`
	Topics       string       `json:"topics,omitempty"`
	CreatedDate  time.Time    `json:"created_date"`
}

func viewOf(c content.Chunk) ChunkView {
	v := ChunkView{
		ID:          c.ID(),
		ContentType: c.Type,
		SourceID:    c.SourceID,
		ChunkIndex:  c.ChunkIndex,
		Text:        c.Text,
		Keywords:    c.Keywords,
		Topics:      c.Topics,
		CreatedDate: c.CreatedDate,
	}
	if c.Video != nil {
		v.StartTime = c.Video.StartTime
		v.EndTime = c.Video.EndTime
	}
	if c.Document != nil {
		v.SectionTitle = c.Document.SectionTitle
	}
	return v
}

type SourceDetail struct {
	SourceID    string      `json:"source_id"`
	Chunks      []ChunkView `json:"chunks"`
	TotalChunks int         `json:"total_chunks"`
	DownloadURL string      `json:"download_url,omitempty"`
}

// Get returns a page of a source's chunks plus a short-lived download link
// for the backing object when one can be resolved.
func (s *Service) Get(ctx context.Context, id string, contentType content.Type, limit, offset int) (*SourceDetail, error) {
	chunks, err := s.chunks.GetChunks(ctx, id, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.chunks.CountBySource(ctx, id, contentType)
	if err != nil {
		slog.WarnContext(ctx, "failed to count chunks", "error", err, "source_id", id)
		total = len(chunks)
	}

	views := make([]ChunkView, 0, len(chunks))
	for _, c := range chunks {
		views = append(views, viewOf(c))
	}

	detail := &SourceDetail{
		SourceID:    id,
		Chunks:      views,
		TotalChunks: total,
	}

	if path, err := s.resolvePath(ctx, id, contentType); err == nil {
		if url, err := s.objects.SignedURL(ctx, path, signedURLTTL); err == nil {
			detail.DownloadURL = url
		} else {
			slog.WarnContext(ctx, "failed to sign download url", "error", err, "path", path)
		}
	}
	return detail, nil
}

// Delete removes every chunk of the source from the index.
func (s *Service) Delete(ctx context.Context, id string, contentType content.Type) (content.DeleteResult, error) {
	res, err := s.deleter.DeleteSource(ctx, id, contentType)
	if err != nil {
		return res, err
	}
	slog.InfoContext(ctx, "source deleted", "source_id", id, "content_type", contentType, "deleted", res.DeletedCount, "failed", res.FailedCount)
	return res, nil
}

// Reindex publishes an index.request that replaces the source's chunks from
// its current file content.
func (s *Service) Reindex(ctx context.Context, id string, contentType content.Type) (string, error) {
	path, err := s.resolvePath(ctx, id, contentType)
	if err != nil {
		return "", err
	}

	payload, _ := json.Marshal(worker.IndexRequestPayload{
		Paths:         []string{path},
		Reindex:       true,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish("index.request", payload); err != nil {
		return "", fmt.Errorf("publish index.request: %w", err)
	}
	slog.InfoContext(ctx, "published index.request", "source_id", id, "path", path, "reindex", true)
	return path, nil
}

// Index publishes an index.request for explicit paths, or for everything
// under a prefix when paths is empty.
func (s *Service) Index(ctx context.Context, paths []string, prefix string, createNew bool) ([]string, error) {
	if len(paths) == 0 {
		listed, err := s.objects.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}
		paths = listed
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to index: %w", content.ErrEmptyResult)
	}

	payload, _ := json.Marshal(worker.IndexRequestPayload{
		Paths:         paths,
		CreateNew:     createNew,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish("index.request", payload); err != nil {
		return nil, fmt.Errorf("publish index.request: %w", err)
	}
	slog.InfoContext(ctx, "published index.request", "paths", len(paths), "create_new", createNew)
	return paths, nil
}

// resolvePath finds the bucket object behind a source id by listing the
// type's folder and matching the base name. Video source ids come from
// transcript metadata, so the convention <folder>/<id>.md is checked first
// and the listing is the fallback.
func (s *Service) resolvePath(ctx context.Context, id string, contentType content.Type) (string, error) {
	folder := "docs_md"
	if contentType == content.TypeVideo {
		folder = "videos_md"
	}

	paths, err := s.objects.List(ctx, folder+"/")
	if err != nil {
		return "", fmt.Errorf("list %s: %w", folder, err)
	}
	want := id + ".md"
	for _, p := range paths {
		if path.Base(p) == want {
			return p, nil
		}
	}
	return "", fmt.Errorf("no object found for source %s under %s/", id, folder)
}
