package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"lectura/internal/content"
	"lectura/internal/embed"
	"lectura/internal/metrics"
	"lectura/internal/transcript"
)

// Skip reasons recorded on FileResult. Embedding failures are the one kind
// the run error path treats differently: they signal an upstream outage
// rather than an empty source.
const (
	reasonDownloadFailed = "download failed"
	reasonParseFailed    = "parse failed"
	reasonNoChunks       = "no chunks"
	reasonEmbedFailed    = "embedding failed"
	reasonDeleteFailed   = "delete failed"
)

// FileResult records the outcome for a single object path within a run.
type FileResult struct {
	Path        string       `json:"path"`
	SourceID    string       `json:"source_id,omitempty"`
	ContentType content.Type `json:"content_type,omitempty"`
	Indexed     int          `json:"indexed"`
	Failed      int          `json:"failed"`
	NoVector    int          `json:"no_vector,omitempty"`
	Skipped     bool         `json:"skipped"`
	Reason      string       `json:"reason,omitempty"`
}

// Report aggregates a run across all its paths.
type Report struct {
	ProcessedVideos     int          `json:"processed_videos"`
	ProcessedDocuments  int          `json:"processed_documents"`
	SkippedFiles        int          `json:"skipped_files"`
	ChunksIndexed       int          `json:"chunks_indexed"`
	ChunksFailed        int          `json:"chunks_failed"`
	ChunksWithoutVector int          `json:"chunks_without_vector"`
	Files               []FileResult `json:"files"`
}

// IndexPaths runs the full pipeline over the given object paths. createNew
// drops and recreates the index class first, wiping all existing chunks.
// Files that fail to download or parse are skipped and counted; the run
// only errors when schema setup fails or no path produced any chunk.
func (ix *Indexer) IndexPaths(ctx context.Context, paths []string, createNew bool) (*Report, error) {
	if err := ix.schema.Ensure(ctx, createNew); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	opts := ix.effectiveOptions(ctx)

	report := &Report{}
	for _, p := range paths {
		res := ix.indexOne(ctx, p, opts, false)
		report.add(res)
	}
	if report.ChunksIndexed == 0 && report.ChunksFailed == 0 {
		return report, report.emptyRunError(len(paths))
	}
	return report, nil
}

// Reindex replaces everything previously indexed for the sources behind the
// given paths: per path, delete by source id and then index the current file
// content. The delete and insert run under the source lock so a concurrent
// run cannot observe the gap in between.
func (ix *Indexer) Reindex(ctx context.Context, paths []string) (*Report, error) {
	if err := ix.schema.Ensure(ctx, false); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	opts := ix.effectiveOptions(ctx)

	report := &Report{}
	for _, p := range paths {
		res := ix.indexOne(ctx, p, opts, true)
		report.add(res)
	}
	if report.ChunksIndexed == 0 && report.ChunksFailed == 0 {
		return report, report.emptyRunError(len(paths))
	}
	return report, nil
}

// DeleteSource removes every chunk of a source from the index.
func (ix *Indexer) DeleteSource(ctx context.Context, sourceID string, contentType content.Type) (content.DeleteResult, error) {
	unlock := ix.locks.lock(sourceID, contentType)
	defer unlock()
	return ix.store.DeleteBySource(ctx, sourceID, contentType)
}

// indexOne processes a single path end to end. replace deletes the source's
// existing chunks before upserting the new set.
func (ix *Indexer) indexOne(ctx context.Context, objectPath string, opts Options, replace bool) FileResult {
	res := FileResult{Path: objectPath, ContentType: DetectContentType(objectPath)}

	raw, err := ix.objects.GetBytes(ctx, objectPath)
	if err != nil {
		slog.ErrorContext(ctx, "skipping file: download failed", "path", objectPath, "error", err)
		metrics.SkippedFiles.WithLabelValues("download").Inc()
		res.Skipped, res.Reason = true, reasonDownloadFailed
		return res
	}

	var chunks []content.Chunk
	switch res.ContentType {
	case content.TypeVideo:
		video, err := transcript.ParseVideoMarkdown(string(raw), transcript.ParseOptions{
			Lenient:    opts.Lenient,
			FallbackID: sourceIDFromPath(objectPath),
		})
		if err != nil {
			slog.ErrorContext(ctx, "skipping file: transcript parse failed", "path", objectPath, "error", err)
			metrics.SkippedFiles.WithLabelValues("parse").Inc()
			res.Skipped, res.Reason = true, reasonParseFailed
			return res
		}
		res.SourceID = video.ID
		chunks = buildVideoChunks(video, opts.MaxSegmentSeconds)
	default:
		res.SourceID = sourceIDFromPath(objectPath)
		chunks = buildDocumentChunks(res.SourceID, string(raw), opts.MaxChunkLength)
	}

	if len(chunks) == 0 {
		slog.WarnContext(ctx, "skipping file: no chunks", "path", objectPath)
		metrics.SkippedFiles.WithLabelValues("empty").Inc()
		res.Skipped, res.Reason = true, reasonNoChunks
		return res
	}

	chunks, dropped := ix.embedChunks(ctx, chunks, opts.EmbedBatchSize)
	if len(chunks) == 0 {
		slog.ErrorContext(ctx, "skipping file: all embeddings failed", "path", objectPath)
		metrics.SkippedFiles.WithLabelValues("embedding").Inc()
		res.Skipped, res.Reason = true, reasonEmbedFailed
		return res
	}
	assignIndexes(chunks)

	unlock := ix.locks.lock(res.SourceID, res.ContentType)
	defer unlock()

	if replace {
		if _, err := ix.store.DeleteBySource(ctx, res.SourceID, res.ContentType); err != nil {
			slog.ErrorContext(ctx, "reindex delete failed", "source_id", res.SourceID, "error", err)
			res.Skipped, res.Reason = true, reasonDeleteFailed
			return res
		}
	}

	upsert, err := ix.store.UpsertChunks(ctx, chunks)
	if err != nil {
		slog.ErrorContext(ctx, "upsert failed", "path", objectPath, "source_id", res.SourceID, "error", err)
		res.Failed = len(chunks)
		return res
	}
	res.Indexed = upsert.Succeeded
	res.Failed = (upsert.Total - upsert.Succeeded) + dropped
	res.NoVector = dropped

	slog.InfoContext(ctx, "indexed file",
		"path", objectPath,
		"source_id", res.SourceID,
		"content_type", res.ContentType,
		"indexed", res.Indexed,
		"failed", res.Failed,
	)
	return res
}

// embedChunks embeds chunk texts in batches and drops chunks whose batch
// failed. Returns the surviving chunks and the number dropped.
func (ix *Indexer) embedChunks(ctx context.Context, chunks []content.Chunk, batchSize int) ([]content.Chunk, int) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors := embed.EmbedTexts(ctx, ix.embedder, texts, batchSize)

	kept := chunks[:0]
	dropped := 0
	for i := range chunks {
		if len(vectors[i]) == 0 {
			metrics.ChunksWithoutVector.Inc()
			dropped++
			continue
		}
		chunks[i].Vector = vectors[i]
		kept = append(kept, chunks[i])
	}
	return kept, dropped
}

// emptyRunError classifies a run that indexed nothing. Embedding failures
// mean the embedding service was unavailable, a transient condition the
// caller should retry; only runs whose sources genuinely produced no
// content are terminal.
func (r *Report) emptyRunError(numPaths int) error {
	for _, f := range r.Files {
		if f.Skipped && f.Reason == reasonEmbedFailed {
			return fmt.Errorf("embedding unavailable, no chunks indexed from %d path(s): %w", numPaths, content.ErrExternalService)
		}
	}
	return fmt.Errorf("no chunks produced from %d path(s): %w", numPaths, content.ErrEmptyResult)
}

func (r *Report) add(res FileResult) {
	r.Files = append(r.Files, res)
	if res.Skipped {
		r.SkippedFiles++
		return
	}
	switch res.ContentType {
	case content.TypeVideo:
		r.ProcessedVideos++
	case content.TypeDocument:
		r.ProcessedDocuments++
	}
	r.ChunksIndexed += res.Indexed
	r.ChunksFailed += res.Failed
	r.ChunksWithoutVector += res.NoVector
}
