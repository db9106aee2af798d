// Package embed turns ordered chunk texts into vectors in bounded batches,
// isolating failures to the batch that raised them.
package embed

import (
	"context"
	"log/slog"

	"lectura/internal/metrics"
)

// Embedder is the embedding service capability: one call per batch, vectors
// returned in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedTexts partitions texts into consecutive batches of batchSize and
// embeds each with a single service call. A failing batch contributes one
// nil placeholder per text instead of aborting the run; callers must filter
// placeholder entries before persisting. The result always has exactly one
// entry per input text, in input order.
func EmbedTexts(ctx context.Context, e Embedder, texts []string, batchSize int) [][]float32 {
	if batchSize <= 0 {
		batchSize = 16
	}

	vectors := make([][]float32, 0, len(texts))
	total := (len(texts) + batchSize - 1) / batchSize

	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		batchVectors, err := e.EmbedBatch(ctx, batch)
		if err != nil || len(batchVectors) != len(batch) {
			if err != nil {
				slog.ErrorContext(ctx, "embedding batch failed", "error", err, "batch", i/batchSize+1, "batches", total, "size", len(batch))
			} else {
				slog.ErrorContext(ctx, "embedding batch returned wrong cardinality", "batch", i/batchSize+1, "want", len(batch), "got", len(batchVectors))
			}
			metrics.EmbedBatchFailures.Inc()
			for range batch {
				vectors = append(vectors, nil)
			}
			continue
		}

		vectors = append(vectors, batchVectors...)
	}

	return vectors
}
