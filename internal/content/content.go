package content

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeVideo    Type = "video"
	TypeDocument Type = "document"
)

// chunkNamespace is the uuid5 namespace for chunk ids. Fixed so that ids are
// stable across processes and reprocessing the same source overwrites
// instead of duplicating.
var chunkNamespace = uuid.MustParse("7a6f3c1e-2b7d-4f41-9c87-5d20aa1f93b4")

// VideoMeta carries the fields only transcript chunks have.
type VideoMeta struct {
	StartTime string
	EndTime   string
}

// DocumentMeta carries the fields only document chunks have.
type DocumentMeta struct {
	SectionTitle string
}

// Chunk is the atomic indexed unit. Exactly one of Video or Document is set,
// matching Type; the flat nullable wire shape exists only at the index
// boundary (Properties).
type Chunk struct {
	Type        Type
	SourceID    string
	ChunkIndex  int
	Text        string
	Vector      []float32
	Keywords    string
	Topics      string
	CreatedDate time.Time

	Video    *VideoMeta
	Document *DocumentMeta
}

// ID derives a deterministic uuid from (source_id, content_type, chunk_index)
// so upserts are idempotent.
func (c Chunk) ID() string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s:%s:%d", c.SourceID, c.Type, c.ChunkIndex))).String()
}

// Properties flattens the chunk into the unified index schema. Type-specific
// fields of the other shape are simply absent (null in the index).
func (c Chunk) Properties() map[string]interface{} {
	props := map[string]interface{}{
		"contentType": string(c.Type),
		"sourceId":    c.SourceID,
		"text":        c.Text,
		"chunkIndex":  c.ChunkIndex,
		"createdDate": c.CreatedDate.UTC().Format(time.RFC3339),
		"keywords":    c.Keywords,
		"topics":      c.Topics,
	}
	if c.Video != nil {
		props["startTime"] = c.Video.StartTime
		props["endTime"] = c.Video.EndTime
	}
	if c.Document != nil {
		props["sectionTitle"] = c.Document.SectionTitle
	}
	return props
}

// Validate rejects chunks that must never reach the index: empty text, empty
// vector, or a vector whose length disagrees with the schema dimension.
func (c Chunk) Validate(dimensions int) error {
	if c.Text == "" {
		return fmt.Errorf("%w: chunk %s/%s[%d] has empty text", ErrEmptyResult, c.SourceID, c.Type, c.ChunkIndex)
	}
	if len(c.Vector) == 0 {
		return fmt.Errorf("%w: chunk %s/%s[%d] has no embedding", ErrEmptyResult, c.SourceID, c.Type, c.ChunkIndex)
	}
	if dimensions > 0 && len(c.Vector) != dimensions {
		return fmt.Errorf("%w: chunk %s/%s[%d] vector has %d dimensions, schema expects %d",
			ErrSchemaMismatch, c.SourceID, c.Type, c.ChunkIndex, len(c.Vector), dimensions)
	}
	return nil
}

// SourceInfo is one entry of the source inventory: a (source_id, content_type)
// pair and how many chunks it currently owns in the index.
type SourceInfo struct {
	SourceID   string `json:"source_id"`
	Type       Type   `json:"content_type"`
	ChunkCount int    `json:"chunk_count"`
}
