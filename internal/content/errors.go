package content

import "errors"

var (
	// ErrExternalService wraps failures from the object store, embedding
	// service, or search index.
	ErrExternalService = errors.New("external service failure")

	// ErrSchemaMismatch reports a vector dimensionality or field mismatch
	// between the index schema and records being uploaded.
	ErrSchemaMismatch = errors.New("index schema mismatch")

	// ErrMalformedInput reports markdown that does not match the expected
	// transcript/metadata convention (strict parse mode only).
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptyResult reports a source that produced no indexable chunks.
	ErrEmptyResult = errors.New("no indexable content")
)
