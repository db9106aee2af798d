package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate/entities/models"

	"lectura/internal/content"
)

type fakeSchemaClient struct {
	exists    bool
	existsErr error

	created []string
	deleted []string
	class   *models.Class
}

func (f *fakeSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	f.created = append(f.created, class.Class)
	f.class = class
	return nil
}

func (f *fakeSchemaClient) DeleteClass(ctx context.Context, className string) error {
	f.deleted = append(f.deleted, className)
	return nil
}

func TestManagerEnsure(t *testing.T) {
	ctx := context.Background()

	t.Run("Absent Class Is Created", func(t *testing.T) {
		client := &fakeSchemaClient{exists: false}
		m := NewManager(client, 768)

		assert.NoError(t, m.Ensure(ctx, false))
		assert.Equal(t, []string{ClassName}, client.created)
		assert.Empty(t, client.deleted)
	})

	t.Run("Existing Class Untouched", func(t *testing.T) {
		client := &fakeSchemaClient{exists: true}
		m := NewManager(client, 768)

		assert.NoError(t, m.Ensure(ctx, false))
		assert.Empty(t, client.created)
		assert.Empty(t, client.deleted)
	})

	t.Run("CreateNew Replaces Existing Class", func(t *testing.T) {
		client := &fakeSchemaClient{exists: true}
		m := NewManager(client, 768)

		assert.NoError(t, m.Ensure(ctx, true))
		assert.Equal(t, []string{ClassName}, client.deleted)
		assert.Equal(t, []string{ClassName}, client.created)
	})

	t.Run("CreateNew On Absent Class Just Creates", func(t *testing.T) {
		client := &fakeSchemaClient{exists: false}
		m := NewManager(client, 768)

		assert.NoError(t, m.Ensure(ctx, true))
		assert.Empty(t, client.deleted)
		assert.Equal(t, []string{ClassName}, client.created)
	})

	t.Run("Check Failure Wraps External Error", func(t *testing.T) {
		client := &fakeSchemaClient{existsErr: errors.New("connection refused")}
		m := NewManager(client, 768)

		err := m.Ensure(ctx, false)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, content.ErrExternalService))
	})
}

func TestUnifiedClassShape(t *testing.T) {
	client := &fakeSchemaClient{}
	m := NewManager(client, 768)
	assert.NoError(t, m.Ensure(context.Background(), false))

	assert.Equal(t, "none", client.class.Vectorizer)

	names := map[string]bool{}
	for _, p := range client.class.Properties {
		names[p.Name] = true
	}
	for _, want := range []string{
		"contentType", "sourceId", "text", "chunkIndex", "createdDate",
		"keywords", "topics", "startTime", "endTime", "sectionTitle",
	} {
		assert.True(t, names[want], "missing property %s", want)
	}
}
