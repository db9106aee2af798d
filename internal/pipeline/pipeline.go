// Package pipeline orchestrates indexing runs: object store → parse →
// chunk → embed → upsert against the unified index. Stages run serially;
// concurrent runs over the same source serialize on a per-source lock.
package pipeline

import (
	"context"
	"sync"

	"lectura/internal/content"
	"lectura/internal/embed"
	"lectura/internal/settings"
)

// ObjectStore is the read side of the content bucket.
type ObjectStore interface {
	GetBytes(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// ChunkStore is the chunk lifecycle surface of the search index.
type ChunkStore interface {
	UpsertChunks(ctx context.Context, chunks []content.Chunk) (content.UpsertResult, error)
	DeleteBySource(ctx context.Context, sourceID string, contentType content.Type) (content.DeleteResult, error)
}

// SchemaManager ensures the index class exists before uploads.
type SchemaManager interface {
	Ensure(ctx context.Context, createNew bool) error
}

// SettingsService supplies runtime tunables; nil or failing lookups fall
// back to the configured defaults.
type SettingsService interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Options are the static defaults an Indexer starts from.
type Options struct {
	MaxChunkLength    int
	MaxSegmentSeconds float64
	EmbedBatchSize    int
	// Lenient restores silent zero-value defaults for malformed transcript
	// metadata instead of failing the file.
	Lenient bool
}

// Indexer runs the content pipeline. All collaborators are injected once at
// construction.
type Indexer struct {
	objects  ObjectStore
	embedder embed.Embedder
	store    ChunkStore
	schema   SchemaManager
	settings SettingsService
	opts     Options
	locks    sourceLocks
}

func NewIndexer(objects ObjectStore, embedder embed.Embedder, store ChunkStore, schema SchemaManager, set SettingsService, opts Options) *Indexer {
	if opts.MaxChunkLength <= 0 {
		opts.MaxChunkLength = 500
	}
	if opts.MaxSegmentSeconds <= 0 {
		opts.MaxSegmentSeconds = 30
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = 16
	}
	return &Indexer{
		objects:  objects,
		embedder: embedder,
		store:    store,
		schema:   schema,
		settings: set,
		opts:     opts,
		locks:    sourceLocks{held: map[string]*sync.Mutex{}},
	}
}

// effectiveOptions overlays stored settings on the static defaults.
func (ix *Indexer) effectiveOptions(ctx context.Context) Options {
	opts := ix.opts
	if ix.settings == nil {
		return opts
	}
	s, err := ix.settings.Get(ctx)
	if err != nil || s == nil {
		return opts
	}
	if s.MaxChunkLength > 0 {
		opts.MaxChunkLength = s.MaxChunkLength
	}
	if s.MaxSegmentSeconds > 0 {
		opts.MaxSegmentSeconds = s.MaxSegmentSeconds
	}
	if s.EmbedBatchSize > 0 {
		opts.EmbedBatchSize = s.EmbedBatchSize
	}
	return opts
}

// sourceLocks serializes pipeline work per (source_id, content_type) so two
// runs cannot interleave their delete/insert phases on the same source.
type sourceLocks struct {
	mu   sync.Mutex
	held map[string]*sync.Mutex
}

func (l *sourceLocks) lock(sourceID string, contentType content.Type) func() {
	key := sourceID + "/" + string(contentType)
	l.mu.Lock()
	m, ok := l.held[key]
	if !ok {
		m = &sync.Mutex{}
		l.held[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
