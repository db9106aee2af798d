package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lectura/internal/logger"
	"lectura/internal/middleware"
)

func TestContextHandler(t *testing.T) {
	t.Run("AddsCorrelationID", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil)))

		ctx := middleware.WithCorrelationID(context.Background(), "corr-7")
		log.InfoContext(ctx, "indexing started")

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "corr-7", record["correlation_id"])
	})

	t.Run("NoIDNoAttribute", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil)))

		log.Info("background work")

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		_, present := record["correlation_id"]
		assert.False(t, present)
	})

	t.Run("WithAttrsKeepsDecoration", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "pipeline")

		ctx := middleware.WithCorrelationID(context.Background(), "corr-8")
		log.InfoContext(ctx, "chunking")

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "corr-8", record["correlation_id"])
		assert.Equal(t, "pipeline", record["component"])
	})
}
