package weaviate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"lectura/internal/content"
	"lectura/internal/retrieval"
	"lectura/internal/vector"
)

// listPageSize bounds the GraphQL Get pages used when aggregating sources.
const listPageSize = 1000

// Store is the chunk lifecycle manager over the unified Weaviate class.
// Dimensions guards every upload against a schema/vector size mismatch.
type Store struct {
	client     *weaviate.Client
	dimensions int
}

func NewStore(client *weaviate.Client, dimensions int) *Store {
	return &Store{client: client, dimensions: dimensions}
}

// UpsertChunks writes all chunks in a single batch. Ids are deterministic,
// so re-running the same source overwrites its records instead of appending
// duplicates. Chunks must already carry a non-empty vector; a dimension
// mismatch fails the whole call before anything is sent.
func (s *Store) UpsertChunks(ctx context.Context, chunks []content.Chunk) (content.UpsertResult, error) {
	res := content.UpsertResult{Total: len(chunks)}
	if len(chunks) == 0 {
		return res, nil
	}

	objects := make([]*models.Object, 0, len(chunks))
	for _, c := range chunks {
		if err := c.Validate(s.dimensions); err != nil {
			return res, err
		}
		objects = append(objects, &models.Object{
			Class:      vector.ClassName,
			ID:         strfmt.UUID(c.ID()),
			Properties: c.Properties(),
			Vector:     models.C11yVector(c.Vector),
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: batch upsert: %v", content.ErrExternalService, err)
	}

	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			slog.WarnContext(ctx, "chunk rejected by index", "id", r.ID, "error", r.Result.Errors.Error[0].Message)
			continue
		}
		res.Succeeded++
	}
	return res, nil
}

// DeleteBySource removes every chunk of a source, optionally restricted to
// one content type. The batch deleter caps matches per call, so the delete
// is repeated until nothing matches. Zero matches is a successful no-op.
func (s *Store) DeleteBySource(ctx context.Context, sourceID string, contentType content.Type) (content.DeleteResult, error) {
	var res content.DeleteResult
	where := sourceFilter(sourceID, contentType)

	for {
		resp, err := s.client.Batch().ObjectsBatchDeleter().
			WithClassName(vector.ClassName).
			WithOutput("minimal").
			WithWhere(where).
			Do(ctx)
		if err != nil {
			return res, fmt.Errorf("%w: batch delete: %v", content.ErrExternalService, err)
		}
		if resp == nil || resp.Results == nil {
			return res, nil
		}

		res.DeletedCount += int(resp.Results.Successful)
		res.FailedCount += int(resp.Results.Failed)

		// Matches beyond this call's successes mean the per-call limit was
		// hit; repeat unless nothing moved.
		remaining := resp.Results.Matches - resp.Results.Successful - resp.Results.Failed
		if remaining <= 0 || resp.Results.Successful == 0 {
			return res, nil
		}
	}
}

// ListSources aggregates distinct (source_id, content_type) pairs with their
// chunk counts, paging through the class to stay under result-size limits.
func (s *Store) ListSources(ctx context.Context, contentType content.Type) ([]content.SourceInfo, error) {
	fields := []graphql.Field{
		{Name: "sourceId"},
		{Name: "contentType"},
	}

	counts := map[string]*content.SourceInfo{}
	for offset := 0; ; offset += listPageSize {
		builder := s.client.GraphQL().Get().
			WithClassName(vector.ClassName).
			WithFields(fields...).
			WithLimit(listPageSize).
			WithOffset(offset)
		if contentType != "" {
			builder = builder.WithWhere(typeFilter(contentType))
		}

		res, err := builder.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list sources: %v", content.ErrExternalService, err)
		}
		if len(res.Errors) > 0 {
			return nil, fmt.Errorf("%w: list sources: %v", content.ErrExternalService, res.Errors[0].Message)
		}

		page := extractObjects(res)
		for _, props := range page {
			id, _ := props["sourceId"].(string)
			ct, _ := props["contentType"].(string)
			if id == "" {
				continue
			}
			key := id + "/" + ct
			if counts[key] == nil {
				counts[key] = &content.SourceInfo{SourceID: id, Type: content.Type(ct)}
			}
			counts[key].ChunkCount++
		}

		if len(page) < listPageSize {
			break
		}
	}

	sources := make([]content.SourceInfo, 0, len(counts))
	for _, info := range counts {
		sources = append(sources, *info)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].SourceID != sources[j].SourceID {
			return sources[i].SourceID < sources[j].SourceID
		}
		return sources[i].Type < sources[j].Type
	})
	return sources, nil
}

// CountBySource returns the number of chunks a source currently owns.
func (s *Store) CountBySource(ctx context.Context, sourceID string, contentType content.Type) (int, error) {
	return s.aggregateCount(ctx, sourceFilter(sourceID, contentType))
}

// CountByType returns the chunk count for one content type, or the whole
// class when contentType is empty.
func (s *Store) CountByType(ctx context.Context, contentType content.Type) (int, error) {
	if contentType == "" {
		return s.aggregateCount(ctx, nil)
	}
	return s.aggregateCount(ctx, typeFilter(contentType))
}

func (s *Store) aggregateCount(ctx context.Context, where *filters.WhereBuilder) (int, error) {
	builder := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}})
	if where != nil {
		builder = builder.WithWhere(where)
	}

	res, err := builder.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: aggregate count: %v", content.ErrExternalService, err)
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("%w: aggregate count: %v", content.ErrExternalService, res.Errors[0].Message)
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	entries, ok := data[vector.ClassName].([]interface{})
	if !ok || len(entries) == 0 {
		return 0, nil
	}
	entry, ok := entries[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := entry["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}

// GetChunks returns a page of a source's chunk records without vectors, for
// inventory views.
func (s *Store) GetChunks(ctx context.Context, sourceID string, limit, offset int) ([]content.Chunk, error) {
	fields := []graphql.Field{
		{Name: "text"},
		{Name: "contentType"},
		{Name: "sourceId"},
		{Name: "chunkIndex"},
		{Name: "startTime"},
		{Name: "endTime"},
		{Name: "sectionTitle"},
		{Name: "keywords"},
		{Name: "topics"},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithWhere(sourceFilter(sourceID, "")).
		WithFields(fields...).
		WithLimit(limit).
		WithOffset(offset).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get chunks: %v", content.ErrExternalService, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: get chunks: %v", content.ErrExternalService, res.Errors[0].Message)
	}

	chunks := []content.Chunk{}
	for _, props := range extractObjects(res) {
		c := content.Chunk{
			SourceID: stringProp(props, "sourceId"),
			Type:     content.Type(stringProp(props, "contentType")),
			Text:     stringProp(props, "text"),
			Keywords: stringProp(props, "keywords"),
			Topics:   stringProp(props, "topics"),
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			c.ChunkIndex = int(idx)
		}
		switch c.Type {
		case content.TypeVideo:
			c.Video = &content.VideoMeta{
				StartTime: stringProp(props, "startTime"),
				EndTime:   stringProp(props, "endTime"),
			}
		case content.TypeDocument:
			c.Document = &content.DocumentMeta{
				SectionTitle: stringProp(props, "sectionTitle"),
			}
		}
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, nil
}

// Search runs a hybrid BM25+vector query, optionally filtered to one
// content type.
func (s *Store) Search(ctx context.Context, query string, vec []float32, alpha float32, limit int, contentType content.Type) ([]retrieval.SearchResult, error) {
	hybrid := s.client.GraphQL().HybridArgumentBuilder().
		WithQuery(query).
		WithVector(vec).
		WithAlpha(alpha)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "contentType"},
		{Name: "sourceId"},
		{Name: "chunkIndex"},
		{Name: "startTime"},
		{Name: "endTime"},
		{Name: "sectionTitle"},
		{Name: "keywords"},
		{Name: "topics"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "score"}}},
	}

	builder := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithHybrid(hybrid).
		WithLimit(limit).
		WithFields(fields...)
	if contentType != "" {
		builder = builder.WithWhere(typeFilter(contentType))
	}

	res, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", content.ErrExternalService, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: search: %v", content.ErrExternalService, res.Errors[0].Message)
	}

	var results []retrieval.SearchResult
	for _, props := range extractObjects(res) {
		result := retrieval.SearchResult{
			Text:         stringProp(props, "text"),
			ContentType:  stringProp(props, "contentType"),
			SourceID:     stringProp(props, "sourceId"),
			StartTime:    stringProp(props, "startTime"),
			EndTime:      stringProp(props, "endTime"),
			SectionTitle: stringProp(props, "sectionTitle"),
			Keywords:     stringProp(props, "keywords"),
			Topics:       stringProp(props, "topics"),
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			result.ChunkIndex = int(idx)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			switch score := additional["score"].(type) {
			case string:
				// Hybrid scores come back as strings.
				if f, err := strconv.ParseFloat(score, 32); err == nil {
					result.Score = float32(f)
				}
			case float64:
				result.Score = float32(score)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

func sourceFilter(sourceID string, contentType content.Type) *filters.WhereBuilder {
	idFilter := filters.Where().
		WithPath([]string{"sourceId"}).
		WithOperator(filters.Equal).
		WithValueString(sourceID)
	if contentType == "" {
		return idFilter
	}
	return filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{idFilter, typeFilter(contentType)})
}

func typeFilter(contentType content.Type) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{"contentType"}).
		WithOperator(filters.Equal).
		WithValueString(string(contentType))
}

func extractObjects(res *models.GraphQLResponse) []map[string]interface{} {
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return nil
	}
	var objects []map[string]interface{}
	for _, entry := range raw {
		if props, ok := entry.(map[string]interface{}); ok {
			objects = append(objects, props)
		}
	}
	return objects
}

func stringProp(props map[string]interface{}, key string) string {
	v, _ := props[key].(string)
	return v
}
