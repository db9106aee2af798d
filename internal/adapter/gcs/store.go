// Package gcs adapts Cloud Storage to the pipeline's object store
// capability: read whole objects, list by prefix, write processed
// artifacts, and mint short-lived read links.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"lectura/internal/content"
)

// ErrNotFound reports a missing object path.
var ErrNotFound = errors.New("object not found")

type Store struct {
	client *storage.Client
	bucket string
}

func NewStore(client *storage.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// GetBytes downloads a whole object into memory. Content files are small
// markdown exports, so buffering is fine.
func (s *Store) GetBytes(ctx context.Context, path string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", content.ErrExternalService, path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", content.ErrExternalService, path, err)
	}
	return data, nil
}

// List returns all object paths under a prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	paths := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", content.ErrExternalService, prefix, err)
		}
		paths = append(paths, attrs.Name)
	}
	return paths, nil
}

// PutBytes uploads an object, overwriting any existing one.
func (s *Store) PutBytes(ctx context.Context, path string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: write %s: %v", content.ErrExternalService, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", content.ErrExternalService, path, err)
	}
	return nil
}

// SignedURL mints a time-limited read link for a source file, so search
// responses can point back at the original content. Signing is local, no
// request is made.
func (s *Store) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(path, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("%w: sign %s: %v", content.ErrExternalService, path, err)
	}
	return url, nil
}
