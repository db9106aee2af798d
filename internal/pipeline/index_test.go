package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lectura/internal/content"
)

const testTranscript = "**Video ID**: vid-003\n" +
	"**Created**: 2024-09-01T10:00:00Z\n" +
	"**Duration**: 0:00:35.00\n" +
	"**Keywords**: `graphs`\n" +
	"**[0:00:00.00]** welcome back everyone\n" +
	"**[0:00:05.00]** today we cover graphs\n" +
	"**[0:00:12.00]** let us start with definitions\n"

const testDocument = "# Definitions\n" +
	"A graph is a set of vertices and edges. " +
	"Two vertices are adjacent when an edge connects them. " +
	"A path visits vertices along connecting edges.\n"

type fakeObjects struct {
	files map[string][]byte
}

func (f *fakeObjects) GetBytes(ctx context.Context, path string) ([]byte, error) {
	b, ok := f.files[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return b, nil
}

func (f *fakeObjects) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for p := range f.files {
		out = append(out, p)
	}
	return out, nil
}

type fakeEmbedder struct {
	calls  int
	failOn map[int]bool // 1-based call numbers that fail
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, errors.New("quota exceeded")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeChunkStore struct {
	upserts [][]content.Chunk
	deletes []string
}

func (f *fakeChunkStore) UpsertChunks(ctx context.Context, chunks []content.Chunk) (content.UpsertResult, error) {
	f.upserts = append(f.upserts, chunks)
	return content.UpsertResult{Succeeded: len(chunks), Total: len(chunks)}, nil
}

func (f *fakeChunkStore) DeleteBySource(ctx context.Context, sourceID string, contentType content.Type) (content.DeleteResult, error) {
	f.deletes = append(f.deletes, string(contentType)+"/"+sourceID)
	return content.DeleteResult{DeletedCount: 1}, nil
}

type fakeSchema struct {
	calls []bool
	err   error
}

func (f *fakeSchema) Ensure(ctx context.Context, createNew bool) error {
	f.calls = append(f.calls, createNew)
	return f.err
}

func newTestIndexer(objects *fakeObjects, store *fakeChunkStore, schema *fakeSchema, embedder *fakeEmbedder) *Indexer {
	return NewIndexer(objects, embedder, store, schema, nil, Options{
		MaxChunkLength:    80,
		MaxSegmentSeconds: 30,
		EmbedBatchSize:    16,
	})
}

func TestIndexPaths(t *testing.T) {
	ctx := context.Background()

	t.Run("Video Transcript", func(t *testing.T) {
		objects := &fakeObjects{files: map[string][]byte{
			"videos_md/lecture-03.md": []byte(testTranscript),
		}}
		store := &fakeChunkStore{}
		schema := &fakeSchema{}
		ix := newTestIndexer(objects, store, schema, &fakeEmbedder{})

		report, err := ix.IndexPaths(ctx, []string{"videos_md/lecture-03.md"}, false)
		require.NoError(t, err)

		assert.Equal(t, []bool{false}, schema.calls)
		assert.Equal(t, 1, report.ProcessedVideos)
		assert.Equal(t, 0, report.SkippedFiles)

		require.Len(t, store.upserts, 1)
		chunks := store.upserts[0]
		// 0-12s merges under the 30s budget, 12-35s stands alone.
		require.Len(t, chunks, 2)
		assert.Equal(t, content.TypeVideo, chunks[0].Type)
		assert.Equal(t, "vid-003", chunks[0].SourceID)
		assert.Equal(t, "welcome back everyone today we cover graphs", chunks[0].Text)
		require.NotNil(t, chunks[0].Video)
		assert.Equal(t, "0:00:00.00", chunks[0].Video.StartTime)
		assert.Equal(t, "graphs", chunks[0].Keywords)
		for i, c := range chunks {
			assert.Equal(t, i, c.ChunkIndex)
			assert.NotEmpty(t, c.Vector)
		}
	})

	t.Run("Document", func(t *testing.T) {
		objects := &fakeObjects{files: map[string][]byte{
			"docs_md/notes-ch1.md": []byte(testDocument),
		}}
		store := &fakeChunkStore{}
		ix := newTestIndexer(objects, store, &fakeSchema{}, &fakeEmbedder{})

		report, err := ix.IndexPaths(ctx, []string{"docs_md/notes-ch1.md"}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.ProcessedDocuments)

		require.Len(t, store.upserts, 1)
		chunks := store.upserts[0]
		require.NotEmpty(t, chunks)
		for i, c := range chunks {
			assert.Equal(t, content.TypeDocument, c.Type)
			assert.Equal(t, "notes-ch1", c.SourceID)
			assert.Equal(t, i, c.ChunkIndex)
			require.NotNil(t, c.Document)
			assert.Equal(t, "Definitions", c.Document.SectionTitle)
		}
	})

	t.Run("CreateNew Reaches Schema", func(t *testing.T) {
		objects := &fakeObjects{files: map[string][]byte{
			"docs_md/a.md": []byte(testDocument),
		}}
		schema := &fakeSchema{}
		ix := newTestIndexer(objects, &fakeChunkStore{}, schema, &fakeEmbedder{})

		_, err := ix.IndexPaths(ctx, []string{"docs_md/a.md"}, true)
		require.NoError(t, err)
		assert.Equal(t, []bool{true}, schema.calls)
	})

	t.Run("Schema Failure Aborts Run", func(t *testing.T) {
		ix := newTestIndexer(&fakeObjects{}, &fakeChunkStore{}, &fakeSchema{err: errors.New("unreachable")}, &fakeEmbedder{})
		_, err := ix.IndexPaths(ctx, []string{"docs_md/a.md"}, false)
		assert.Error(t, err)
	})

	t.Run("Missing File Skipped", func(t *testing.T) {
		objects := &fakeObjects{files: map[string][]byte{
			"docs_md/present.md": []byte(testDocument),
		}}
		store := &fakeChunkStore{}
		ix := newTestIndexer(objects, store, &fakeSchema{}, &fakeEmbedder{})

		report, err := ix.IndexPaths(ctx, []string{"docs_md/absent.md", "docs_md/present.md"}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.SkippedFiles)
		assert.Equal(t, 1, report.ProcessedDocuments)
		assert.Len(t, store.upserts, 1)
	})

	t.Run("All Skipped Is Empty Result", func(t *testing.T) {
		ix := newTestIndexer(&fakeObjects{}, &fakeChunkStore{}, &fakeSchema{}, &fakeEmbedder{})
		report, err := ix.IndexPaths(ctx, []string{"docs_md/absent.md"}, false)
		assert.True(t, errors.Is(err, content.ErrEmptyResult))
		assert.Equal(t, 1, report.SkippedFiles)
	})

	t.Run("Malformed Transcript Skipped", func(t *testing.T) {
		objects := &fakeObjects{files: map[string][]byte{
			"videos_md/broken.md": []byte("**[bogus]** spoken line without metadata\n"),
		}}
		store := &fakeChunkStore{}
		ix := newTestIndexer(objects, store, &fakeSchema{}, &fakeEmbedder{})

		report, err := ix.IndexPaths(ctx, []string{"videos_md/broken.md"}, false)
		assert.True(t, errors.Is(err, content.ErrEmptyResult))
		assert.Equal(t, 1, report.SkippedFiles)
		assert.Empty(t, store.upserts)
	})

	t.Run("Embed Failure Drops Chunks Keeps Density", func(t *testing.T) {
		objects := &fakeObjects{files: map[string][]byte{
			"videos_md/lecture-03.md": []byte(testTranscript),
		}}
		store := &fakeChunkStore{}
		// Batch size 1: the first of two chunk embeddings fails.
		embedder := &fakeEmbedder{failOn: map[int]bool{1: true}}
		ix := NewIndexer(objects, embedder, store, &fakeSchema{}, nil, Options{
			MaxChunkLength:    80,
			MaxSegmentSeconds: 30,
			EmbedBatchSize:    1,
		})

		report, err := ix.IndexPaths(ctx, []string{"videos_md/lecture-03.md"}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.ChunksIndexed)
		assert.Equal(t, 1, report.ChunksFailed)
		assert.Equal(t, 1, report.ChunksWithoutVector)

		require.Len(t, store.upserts, 1)
		chunks := store.upserts[0]
		require.Len(t, chunks, 1)
		// Surviving chunk is renumbered densely from zero.
		assert.Equal(t, 0, chunks[0].ChunkIndex)
	})

	t.Run("Embedding Outage Is Retryable", func(t *testing.T) {
		objects := &fakeObjects{files: map[string][]byte{
			"docs_md/notes-ch1.md": []byte(testDocument),
		}}
		store := &fakeChunkStore{}
		embedder := &fakeEmbedder{failOn: map[int]bool{1: true, 2: true, 3: true}}
		ix := newTestIndexer(objects, store, &fakeSchema{}, embedder)

		report, err := ix.IndexPaths(ctx, []string{"docs_md/notes-ch1.md"}, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, content.ErrExternalService))
		assert.False(t, errors.Is(err, content.ErrEmptyResult))
		assert.Equal(t, 1, report.SkippedFiles)
		assert.Empty(t, store.upserts)
	})

	t.Run("Rerun Upserts Identical Ids", func(t *testing.T) {
		objects := &fakeObjects{files: map[string][]byte{
			"videos_md/lecture-03.md": []byte(testTranscript),
			"docs_md/notes-ch1.md":    []byte(testDocument),
		}}
		store := &fakeChunkStore{}
		ix := newTestIndexer(objects, store, &fakeSchema{}, &fakeEmbedder{})
		paths := []string{"videos_md/lecture-03.md", "docs_md/notes-ch1.md"}

		first, err := ix.IndexPaths(ctx, paths, false)
		require.NoError(t, err)
		second, err := ix.IndexPaths(ctx, paths, false)
		require.NoError(t, err)
		assert.Equal(t, first.ChunksIndexed, second.ChunksIndexed)

		require.Len(t, store.upserts, 4)
		ids := func(batches [][]content.Chunk) []string {
			var out []string
			for _, batch := range batches {
				for _, c := range batch {
					out = append(out, c.ID())
				}
			}
			return out
		}
		// The second run writes the exact same deterministic ids, so the
		// index holds one object per chunk no matter how often a source
		// is reprocessed.
		assert.Equal(t, ids(store.upserts[:2]), ids(store.upserts[2:]))
	})
}

func TestReindex(t *testing.T) {
	ctx := context.Background()

	objects := &fakeObjects{files: map[string][]byte{
		"docs_md/notes-ch1.md": []byte(testDocument),
	}}
	store := &fakeChunkStore{}
	ix := newTestIndexer(objects, store, &fakeSchema{}, &fakeEmbedder{})

	report, err := ix.Reindex(ctx, []string{"docs_md/notes-ch1.md"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.ProcessedDocuments)

	// Old chunks go first, then the fresh set lands.
	assert.Equal(t, []string{"document/notes-ch1"}, store.deletes)
	assert.Len(t, store.upserts, 1)
}

func TestDeleteSource(t *testing.T) {
	store := &fakeChunkStore{}
	ix := newTestIndexer(&fakeObjects{}, store, &fakeSchema{}, &fakeEmbedder{})

	res, err := ix.DeleteSource(context.Background(), "vid-003", content.TypeVideo)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DeletedCount)
	assert.Equal(t, []string{"video/vid-003"}, store.deletes)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, content.TypeVideo, DetectContentType("videos_md/lec.md"))
	assert.Equal(t, content.TypeVideo, DetectContentType("bucket/videos_md/sub/lec.md"))
	assert.Equal(t, content.TypeDocument, DetectContentType("docs_md/notes.md"))
	assert.Equal(t, content.TypeDocument, DetectContentType("somewhere/else.md"))
}
