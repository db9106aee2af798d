// Package metrics exposes counters for the degraded paths the pipeline
// deliberately survives: failed embedding batches, lenient-parse defaults,
// skipped sections. These events keep the run going but must stay visible.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmbedBatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lectura_embed_batch_failures_total",
		Help: "Embedding batches that failed and were replaced by empty placeholders.",
	})

	ChunksWithoutVector = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lectura_chunks_without_vector_total",
		Help: "Chunks dropped before upload because their embedding batch failed.",
	})

	LenientTimestampDefaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lectura_lenient_timestamp_defaults_total",
		Help: "Timestamps that failed to parse and were defaulted to zero in lenient mode.",
	})

	SkippedSections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lectura_skipped_sections_total",
		Help: "Markdown sections skipped because they had no body.",
	})

	SkippedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lectura_skipped_files_total",
		Help: "Input files skipped during an indexing run, by reason.",
	}, []string{"reason"})
)
