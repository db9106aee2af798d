package vector

import (
	"context"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// schemaClient adapts the SDK's schema API to the surface the manager
// programs against. Errors pass through untouched; the manager classifies
// them.
type schemaClient struct {
	client *weaviate.Client
}

func NewSchemaClient(client *weaviate.Client) SchemaClient {
	return &schemaClient{client: client}
}

func (c *schemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	return c.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
}

func (c *schemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	return c.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (c *schemaClient) DeleteClass(ctx context.Context, className string) error {
	return c.client.Schema().ClassDeleter().WithClassName(className).Do(ctx)
}
