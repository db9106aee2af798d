package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"lectura/internal/content"
	"lectura/internal/middleware"
)

type ChunkCounter interface {
	CountByType(ctx context.Context, contentType content.Type) (int, error)
	ListSources(ctx context.Context, contentType content.Type) ([]content.SourceInfo, error)
}

type RunCounter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	chunks ChunkCounter
	runs   RunCounter
}

func NewHandler(chunks ChunkCounter, runs RunCounter) *Handler {
	return &Handler{chunks: chunks, runs: runs}
}

type StatsResponse struct {
	Sources        int `json:"sources"`
	TotalChunks    int `json:"total_chunks"`
	VideoChunks    int `json:"video_chunks"`
	DocumentChunks int `json:"document_chunks"`
	Runs           int `json:"runs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	total, err := h.chunks.CountByType(ctx, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	videos, err := h.chunks.CountByType(ctx, content.TypeVideo)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count video chunks", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count video chunks", http.StatusInternalServerError)
		return
	}

	documents, err := h.chunks.CountByType(ctx, content.TypeDocument)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count document chunks", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count document chunks", http.StatusInternalServerError)
		return
	}

	sources, err := h.chunks.ListSources(ctx, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to list sources", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to list sources", http.StatusInternalServerError)
		return
	}

	runCount, err := h.runs.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count runs", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count runs", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Sources:        len(sources),
		TotalChunks:    total,
		VideoChunks:    videos,
		DocumentChunks: documents,
		Runs:           runCount,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
