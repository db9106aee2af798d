package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate/entities/models"

	"lectura/internal/content"
)

// ClassName is the single unified class holding both content shapes.
const ClassName = "ContentChunk"

// SchemaClient is the minimal schema surface the manager needs.
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	DeleteClass(ctx context.Context, className string) error
}

// Manager owns the unified index schema lifecycle. Dimensions is the
// embedding model's output size; it is enforced at upload time, and changing
// it requires a destructive Ensure(ctx, true) — there is no in-place
// migration.
type Manager struct {
	client     SchemaClient
	Dimensions int
}

func NewManager(client SchemaClient, dimensions int) *Manager {
	return &Manager{client: client, Dimensions: dimensions}
}

// Ensure makes the unified class exist. With createNew an existing class is
// destroyed and recreated; without it an existing class is left untouched.
// An absent class is created either way.
func (m *Manager) Ensure(ctx context.Context, createNew bool) error {
	exists, err := m.client.ClassExists(ctx, ClassName)
	if err != nil {
		return fmt.Errorf("%w: check class: %v", content.ErrExternalService, err)
	}

	if exists {
		if !createNew {
			slog.InfoContext(ctx, "using existing index class", "class", ClassName)
			return nil
		}
		slog.InfoContext(ctx, "deleting existing index class", "class", ClassName)
		if err := m.client.DeleteClass(ctx, ClassName); err != nil {
			return fmt.Errorf("%w: delete class: %v", content.ErrExternalService, err)
		}
	}

	slog.InfoContext(ctx, "creating index class", "class", ClassName, "dimensions", m.Dimensions)
	if err := m.client.CreateClass(ctx, unifiedClass()); err != nil {
		return fmt.Errorf("%w: create class: %v", content.ErrExternalService, err)
	}
	return nil
}

// unifiedClass defines one schema for both content shapes: shared fields
// plus video-only (startTime/endTime) and document-only (sectionTitle)
// properties that stay null for the other shape. text is the primary
// searchable content; keywords, topics, and sectionTitle are secondary
// relevance signals. Vectors are supplied externally, so the vectorizer is
// none.
func unifiedClass() *models.Class {
	return &models.Class{
		Class:       ClassName,
		Description: "A chunk of a video transcript or extracted document",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "contentType", DataType: []string{"string"}},
			{Name: "sourceId", DataType: []string{"string"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "createdDate", DataType: []string{"date"}},
			{Name: "keywords", DataType: []string{"text"}},
			{Name: "topics", DataType: []string{"text"}},
			{Name: "startTime", DataType: []string{"string"}},
			{Name: "endTime", DataType: []string{"string"}},
			{Name: "sectionTitle", DataType: []string{"text"}},
		},
	}
}
