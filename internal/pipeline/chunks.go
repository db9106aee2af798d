package pipeline

import (
	"path"
	"strings"
	"time"

	"lectura/internal/content"
	"lectura/internal/metrics"
	"lectura/internal/text"
	"lectura/internal/transcript"
)

// DetectContentType maps a bucket path onto a content type using the folder
// convention: transcripts live under videos_md/, extracted documents under
// docs_md/. Anything else defaults to document.
func DetectContentType(objectPath string) content.Type {
	for _, part := range strings.Split(path.Clean(objectPath), "/") {
		switch part {
		case "videos_md":
			return content.TypeVideo
		case "docs_md":
			return content.TypeDocument
		}
	}
	return content.TypeDocument
}

// sourceIDFromPath derives a document source id from the object path: the
// base name without its extension. Video source ids come from transcript
// metadata instead.
func sourceIDFromPath(objectPath string) string {
	base := path.Base(objectPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// buildVideoChunks merges transcript segments into duration-bounded windows
// and lifts each window into a chunk carrying its time range.
func buildVideoChunks(video *transcript.Video, maxSegmentSeconds float64) []content.Chunk {
	merged := transcript.MergeSegmentsByDuration(video.Segments, maxSegmentSeconds)
	created := parseCreatedDate(video.CreatedDate)
	keywords := strings.Join(video.Keywords, ", ")
	topics := strings.Join(video.Topics, ", ")

	chunks := make([]content.Chunk, 0, len(merged))
	for _, seg := range merged {
		body := strings.TrimSpace(seg.Text)
		if body == "" {
			continue
		}
		chunks = append(chunks, content.Chunk{
			Type:        content.TypeVideo,
			SourceID:    video.ID,
			Text:        body,
			CreatedDate: created,
			Keywords:    keywords,
			Topics:      topics,
			Video: &content.VideoMeta{
				StartTime: seg.StartTime,
				EndTime:   seg.EndTime,
			},
		})
	}
	return chunks
}

// buildDocumentChunks splits a markdown document into header sections and
// chunks each section body by sentence. Sections with no body are counted
// and skipped.
func buildDocumentChunks(sourceID string, markdown string, maxChunkLength int) []content.Chunk {
	sections := text.SplitSections(markdown)
	created := time.Now().UTC()

	var chunks []content.Chunk
	for _, sec := range sections {
		if strings.TrimSpace(sec.Body) == "" {
			metrics.SkippedSections.Inc()
			continue
		}
		for _, tc := range text.ChunkBySentence(sec.Body, maxChunkLength) {
			chunks = append(chunks, content.Chunk{
				Type:        content.TypeDocument,
				SourceID:    sourceID,
				Text:        tc.Text,
				CreatedDate: created,
				Document: &content.DocumentMeta{
					SectionTitle: sec.Title,
				},
			})
		}
	}
	return chunks
}

// parseCreatedDate accepts the timestamp formats transcript metadata shows
// up with and falls back to now for anything unparseable.
func parseCreatedDate(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// assignIndexes numbers chunks densely in order. Called after empty-vector
// filtering so persisted indexes have no gaps.
func assignIndexes(chunks []content.Chunk) {
	for i := range chunks {
		chunks[i].ChunkIndex = i
	}
}
