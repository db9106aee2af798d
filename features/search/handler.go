package search

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lectura/internal/content"
	"lectura/internal/middleware"
	"lectura/internal/retrieval"
)

type Searcher interface {
	Search(ctx context.Context, query string, opts *retrieval.SearchOptions) ([]retrieval.SearchResult, error)
}

type Handler struct {
	searcher Searcher
}

func NewHandler(s Searcher) *Handler {
	return &Handler{searcher: s}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	var req struct {
		Query       string   `json:"query"`
		Alpha       *float32 `json:"alpha,omitempty"`
		Limit       *int     `json:"limit,omitempty"`
		ContentType string   `json:"content_type,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	opts := &retrieval.SearchOptions{Alpha: req.Alpha, Limit: req.Limit}
	switch req.ContentType {
	case "":
	case string(content.TypeVideo):
		opts.ContentType = content.TypeVideo
	case string(content.TypeDocument):
		opts.ContentType = content.TypeDocument
	default:
		h.writeError(ctx, w, "VALIDATION_ERROR", "content_type must be video or document", http.StatusBadRequest)
		return
	}

	slog.InfoContext(ctx, "searching", "query", req.Query, "correlationId", correlationID)

	results, err := h.searcher.Search(ctx, req.Query, opts)
	if err != nil {
		slog.ErrorContext(ctx, "search failed", "error", err, "correlationId", correlationID)
		if errors.Is(err, content.ErrExternalService) {
			h.writeError(ctx, w, "UPSTREAM_ERROR", "search backend unavailable", http.StatusBadGateway)
			return
		}
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if results == nil {
		results = []retrieval.SearchResult{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": results,
		"meta": map[string]int{"count": len(results)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
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
